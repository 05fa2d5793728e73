package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jakechorley/clinic-cover/internal/api/dto"
	"github.com/jakechorley/clinic-cover/internal/api/response"
	"github.com/jakechorley/clinic-cover/pkg/core/services"
)

// ClaimSession covers a session as the calling supervisor
// POST /api/v1/sessions/:id/claim
func (h *Handler) ClaimSession(c *gin.Context) {
	supervisorID, _, ok := identity(c)
	if !ok {
		return
	}

	session, err := h.coordinator.Claim(c.Request.Context(), c.Param("id"), supervisorID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewSessionResponse(session))
}

// ReleaseSession gives up coverage of a session (holder or admin)
// POST /api/v1/sessions/:id/release
func (h *Handler) ReleaseSession(c *gin.Context) {
	supervisorID, role, ok := identity(c)
	if !ok {
		return
	}

	session, err := h.coordinator.Release(c.Request.Context(), c.Param("id"), supervisorID, role)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewSessionResponse(session))
}

// ListUncoveredSessions
// GET /api/v1/sessions/uncovered
func (h *Handler) ListUncoveredSessions(c *gin.Context) {
	var q dto.UncoveredSessionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	from, err := dto.ParseOptionalDate(q.From)
	if err != nil {
		response.FromError(c, err)
		return
	}
	to, err := dto.ParseOptionalDate(q.To)
	if err != nil {
		response.FromError(c, err)
		return
	}

	sessions, err := services.ListUncoveredSessions(c.Request.Context(), h.store, h.logger, services.UncoveredQuery{
		From:       from,
		To:         to,
		ClinicName: q.Clinic,
		Limit:      q.Limit,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewSessionResponses(sessions))
}

// ListSessions returns sessions in a date range
// GET /api/v1/sessions
func (h *Handler) ListSessions(c *gin.Context) {
	var q dto.SessionRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	from, err := dto.ParseDate(q.From)
	if err != nil {
		response.FromError(c, err)
		return
	}
	to, err := dto.ParseDate(q.To)
	if err != nil {
		response.FromError(c, err)
		return
	}

	sessions, err := services.ListSessionsInRange(c.Request.Context(), h.store, h.logger, from, to, q.CoverageFilter())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewSessionResponses(sessions))
}

// ListUpcomingSessions
// GET /api/v1/sessions/upcoming
func (h *Handler) ListUpcomingSessions(c *gin.Context) {
	supervisorID, _, ok := identity(c)
	if !ok {
		return
	}
	var q dto.UpcomingSessionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sessions, err := services.ListUpcomingSessions(c.Request.Context(), h.store, h.logger, h.now(), q.Days, supervisorID, q.Mine)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewSessionResponses(sessions))
}

// ListMyCoverage returns the caller's future covered sessions
// GET /api/v1/sessions/mine
func (h *Handler) ListMyCoverage(c *gin.Context) {
	supervisorID, _, ok := identity(c)
	if !ok {
		return
	}

	sessions, err := services.ListMyCoverage(c.Request.Context(), h.store, h.logger, h.now(), supervisorID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewSessionResponses(sessions))
}

// ClinicNames suggests clinic names for a search string
// GET /api/v1/clinics?search=
func (h *Handler) ClinicNames(c *gin.Context) {
	names, err := services.ClinicNameSuggestions(c.Request.Context(), h.store, h.logger, c.Query("search"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	response.OK(c, names)
}
