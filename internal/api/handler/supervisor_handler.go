package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jakechorley/clinic-cover/internal/api/dto"
	"github.com/jakechorley/clinic-cover/internal/api/response"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/core/services"
)

// ListSupervisors returns the active supervisors
// GET /api/v1/supervisors
func (h *Handler) ListSupervisors(c *gin.Context) {
	supervisors, err := services.ListSupervisors(c.Request.Context(), h.store, h.logger)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewSupervisorResponses(supervisors))
}

// AddSupervisor registers a supervisor (admin only)
// POST /api/v1/supervisors
func (h *Handler) AddSupervisor(c *gin.Context) {
	var req dto.AddSupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	role := model.RoleUser
	if req.Role != "" {
		role = model.Role(strings.ToUpper(req.Role))
	}

	supervisor, err := services.AddSupervisor(c.Request.Context(), h.store, h.logger, services.AddSupervisorInput{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        role,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, dto.NewSupervisorResponse(supervisor))
}

// Me returns the caller's profile
// GET /api/v1/supervisors/me
func (h *Handler) Me(c *gin.Context) {
	supervisorID, _, ok := identity(c)
	if !ok {
		return
	}

	profile, err := services.GetSupervisorProfile(c.Request.Context(), h.store, supervisorID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewProfileResponse(profile))
}
