package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/internal/api/middleware"
	"github.com/jakechorley/clinic-cover/internal/api/response"
	"github.com/jakechorley/clinic-cover/internal/config"
	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
	"github.com/jakechorley/clinic-cover/pkg/notify"
)

// Handler serves every API endpoint
type Handler struct {
	coordinator *coverage.Coordinator
	store       db.Store
	dispatcher  notify.Dispatcher
	cfg         *config.Config
	logger      *zap.Logger

	// now is swapped in tests
	now func() time.Time
}

// New creates a Handler
func New(coordinator *coverage.Coordinator, store db.Store, dispatcher notify.Dispatcher, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		store:       store,
		dispatcher:  dispatcher,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// identity returns the acting supervisor set by middleware.Identity
func identity(c *gin.Context) (string, model.Role, bool) {
	supervisorID := c.GetString(middleware.SupervisorIDKey)
	role, _ := c.Get(middleware.RoleKey)
	r, ok := role.(model.Role)
	if supervisorID == "" || !ok {
		response.Unauthenticated(c, "missing identity")
		return "", "", false
	}
	return supervisorID, r, true
}

// WithClock replaces the time source used for date windows
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}
