package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/internal/api/handler"
	"github.com/jakechorley/clinic-cover/internal/api/middleware"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
)

// Setup builds the gin engine with every route
func Setup(h *handler.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Identity())
	{
		sessions := v1.Group("/sessions")
		{
			sessions.GET("", h.ListSessions)
			sessions.GET("/uncovered", h.ListUncoveredSessions)
			sessions.GET("/upcoming", h.ListUpcomingSessions)
			sessions.GET("/mine", h.ListMyCoverage)
			sessions.POST("/:id/claim", h.ClaimSession)
			sessions.POST("/:id/release", h.ReleaseSession)
		}

		v1.GET("/clinics", h.ClinicNames)

		requests := v1.Group("/requests")
		{
			requests.GET("", h.ListRequests)
			requests.POST("", h.CreateRequest)
			requests.GET("/mine", h.ListMyRequests)
			requests.GET("/:id", h.GetRequest)
			requests.PATCH("/:id", h.UpdateRequestDates)
			requests.DELETE("/:id", h.DeleteRequest)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", h.ListNotifications)
			notifications.DELETE("", h.DeleteNotifications)
			notifications.GET("/unread", h.ListUnreadNotifications)
			notifications.GET("/unread/count", h.UnreadNotificationCount)
			notifications.POST("/read", h.MarkNotificationsRead)
			notifications.DELETE("/:id", h.DeleteNotification)
		}

		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/stats", h.DashboardStats)
			dashboard.GET("/urgent", h.UrgentSessions)
			dashboard.GET("/activity", h.RecentActivity)
			dashboard.GET("/deadlines", h.UpcomingDeadlines)
		}

		supervisors := v1.Group("/supervisors")
		{
			supervisors.GET("", h.ListSupervisors)
			supervisors.GET("/me", h.Me)
			supervisors.POST("", middleware.RequireRole(model.RoleAdmin), h.AddSupervisor)
		}
	}

	return r
}
