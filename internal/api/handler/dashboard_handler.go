package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jakechorley/clinic-cover/internal/api/dto"
	"github.com/jakechorley/clinic-cover/internal/api/response"
	"github.com/jakechorley/clinic-cover/pkg/core/services"
)

// DashboardStats
// GET /api/v1/dashboard/stats
func (h *Handler) DashboardStats(c *gin.Context) {
	supervisorID, _, ok := identity(c)
	if !ok {
		return
	}

	stats, err := services.GetDashboardStats(c.Request.Context(), h.store, h.logger, h.now(), supervisorID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewDashboardStatsResponse(stats))
}

// UrgentSessions lists uncovered sessions inside the configured urgent window
// GET /api/v1/dashboard/urgent
func (h *Handler) UrgentSessions(c *gin.Context) {
	urgent, err := services.GetUrgentSessions(c.Request.Context(), h.store, h.logger, h.now(), h.cfg.Coverage.UrgentWindowDays)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewUrgentSessionsResponse(urgent))
}

// RecentActivity
// GET /api/v1/dashboard/activity
func (h *Handler) RecentActivity(c *gin.Context) {
	entries, err := services.GetRecentActivity(c.Request.Context(), h.store, h.logger)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewActivityResponses(entries))
}

// UpcomingDeadlines
// GET /api/v1/dashboard/deadlines
func (h *Handler) UpcomingDeadlines(c *gin.Context) {
	deadlines, err := services.GetUpcomingDeadlines(c.Request.Context(), h.store, h.logger, h.now())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewDeadlineResponses(deadlines))
}
