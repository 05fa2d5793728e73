package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/internal/api/dto"
	"github.com/jakechorley/clinic-cover/internal/api/response"
	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/core/services"
)

// CreateRequest records a time off request for the caller
// POST /api/v1/requests
func (h *Handler) CreateRequest(c *gin.Context) {
	supervisorID, _, ok := identity(c)
	if !ok {
		return
	}

	var req dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	input, err := h.createRequestInput(supervisorID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	request, err := services.CreateRequest(c.Request.Context(), h.store, h.dispatcher, h.logger, input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, dto.NewRequestResponse(request))
}

func (h *Handler) createRequestInput(supervisorID string, req dto.CreateRequestRequest) (services.CreateRequestInput, error) {
	input := services.CreateRequestInput{RequestingSupervisorID: supervisorID}

	var err error
	if input.StartDate, err = dto.ParseDate(req.StartDate); err != nil {
		return input, err
	}
	if input.EndDate, err = dto.ParseDate(req.EndDate); err != nil {
		return input, err
	}

	if len(req.Sessions) > 0 && len(req.Clinics) > 0 {
		return input, fmt.Errorf("give either sessions or clinics, not both: %w", coverage.ErrInvalidRequest)
	}

	if len(req.Clinics) > 0 {
		input.Sessions, err = services.ExpandNamedClinics(h.cfg, req.Clinics, input.StartDate, input.EndDate)
		return input, err
	}

	for _, s := range req.Sessions {
		session, err := s.ToInput()
		if err != nil {
			return input, err
		}
		input.Sessions = append(input.Sessions, session)
	}
	return input, nil
}

// GetRequest returns a request with its coverage history
// GET /api/v1/requests/:id
func (h *Handler) GetRequest(c *gin.Context) {
	detail, err := services.GetRequest(c.Request.Context(), h.store, h.logger, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewRequestDetailResponse(detail))
}

// ListRequests
// GET /api/v1/requests
func (h *Handler) ListRequests(c *gin.Context) {
	var q dto.RequestListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	startFrom, err := dto.ParseOptionalDate(q.StartFrom)
	if err != nil {
		response.FromError(c, err)
		return
	}
	startTo, err := dto.ParseOptionalDate(q.StartTo)
	if err != nil {
		response.FromError(c, err)
		return
	}

	requests, err := services.ListRequests(c.Request.Context(), h.store, h.logger, services.RequestQuery{
		SupervisorID: q.SupervisorID,
		StartFrom:    startFrom,
		StartTo:      startTo,
		Status:       model.RequestStatus(q.Status),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewRequestResponses(requests))
}

// ListMyRequests returns the caller's requests newest first
// GET /api/v1/requests/mine
func (h *Handler) ListMyRequests(c *gin.Context) {
	supervisorID, _, ok := identity(c)
	if !ok {
		return
	}

	requests, err := services.ListMyRequests(c.Request.Context(), h.store, h.logger, supervisorID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewRequestResponses(requests))
}

// UpdateRequestDates
// PATCH /api/v1/requests/:id
func (h *Handler) UpdateRequestDates(c *gin.Context) {
	supervisorID, _, ok := identity(c)
	if !ok {
		return
	}

	var req dto.UpdateRequestDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	start, err := dto.ParseDate(req.StartDate)
	if err != nil {
		response.FromError(c, err)
		return
	}
	end, err := dto.ParseDate(req.EndDate)
	if err != nil {
		response.FromError(c, err)
		return
	}

	request, err := h.coordinator.UpdateRequestDates(c.Request.Context(), c.Param("id"), supervisorID, start, end)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewRequestResponse(request))
}

// DeleteRequest removes one of the caller's requests while nothing is covered
// DELETE /api/v1/requests/:id
func (h *Handler) DeleteRequest(c *gin.Context) {
	supervisorID, _, ok := identity(c)
	if !ok {
		return
	}

	requestID := c.Param("id")
	if err := h.coordinator.DeleteRequest(c.Request.Context(), requestID, supervisorID); err != nil {
		response.FromError(c, err)
		return
	}

	h.logger.Debug("Request deleted over API", zap.String("request_id", requestID))
	response.OK(c, gin.H{"id": requestID})
}
