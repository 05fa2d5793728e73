package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jakechorley/clinic-cover/internal/api/dto"
	"github.com/jakechorley/clinic-cover/internal/api/response"
	"github.com/jakechorley/clinic-cover/pkg/core/services"
)

// ListNotifications pages through the caller's notifications
// GET /api/v1/notifications
func (h *Handler) ListNotifications(c *gin.Context) {
	supervisorID, _, ok := identity(c)
	if !ok {
		return
	}
	var q dto.NotificationListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	page, err := services.ListNotifications(c.Request.Context(), h.store, h.logger, supervisorID, q.Limit, q.Cursor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NotificationPageResponse{
		Notifications: dto.NewNotificationResponses(page.Notifications),
		NextCursor:    page.NextCursor,
	})
}

// ListUnreadNotifications
// GET /api/v1/notifications/unread
func (h *Handler) ListUnreadNotifications(c *gin.Context) {
	supervisorID, _, ok := identity(c)
	if !ok {
		return
	}

	notifications, err := services.ListUnreadNotifications(c.Request.Context(), h.store, h.logger, supervisorID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.NewNotificationResponses(notifications))
}

// UnreadNotificationCount
// GET /api/v1/notifications/unread/count
func (h *Handler) UnreadNotificationCount(c *gin.Context) {
	supervisorID, _, ok := identity(c)
	if !ok {
		return
	}

	count, err := services.UnreadNotificationCount(c.Request.Context(), h.store, supervisorID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"count": count})
}

// MarkNotificationsRead marks the listed (or all) notifications read
// POST /api/v1/notifications/read
func (h *Handler) MarkNotificationsRead(c *gin.Context) {
	supervisorID, _, ok := identity(c)
	if !ok {
		return
	}

	var req dto.MarkReadRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	marked, err := services.MarkNotificationsRead(c.Request.Context(), h.store, h.logger, supervisorID, req.IDs)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"marked": marked})
}

// DeleteNotification
// DELETE /api/v1/notifications/:id
func (h *Handler) DeleteNotification(c *gin.Context) {
	supervisorID, _, ok := identity(c)
	if !ok {
		return
	}

	if err := services.DeleteNotification(c.Request.Context(), h.store, h.logger, supervisorID, c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"id": c.Param("id")})
}

// DeleteNotifications clears the caller's inbox, or only its read part with ?onlyRead=true
// DELETE /api/v1/notifications
func (h *Handler) DeleteNotifications(c *gin.Context) {
	supervisorID, _, ok := identity(c)
	if !ok {
		return
	}

	deleted, err := services.DeleteNotifications(c.Request.Context(), h.store, h.logger, supervisorID, c.Query("onlyRead") == "true")
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": deleted})
}
