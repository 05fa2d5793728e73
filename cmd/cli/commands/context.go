package commands

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/internal/config"
	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
	"github.com/jakechorley/clinic-cover/pkg/notify"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg         *config.Config
	Store       db.Store
	Coordinator *coverage.Coordinator
	Dispatcher  notify.Dispatcher
	Logger      *zap.Logger
	Ctx         context.Context

	// ActingID is the supervisor commands run as (--as)
	ActingID string
}

// Actor loads the acting supervisor. Commands that act on someone's behalf call this first.
func (a *AppContext) Actor() (*model.Supervisor, error) {
	if a.ActingID == "" {
		return nil, errors.New("this command needs --as <supervisor_id>")
	}

	supervisor, err := a.Store.GetSupervisor(a.Ctx, a.ActingID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("unknown supervisor %q", a.ActingID)
		}
		return nil, fmt.Errorf("failed to load supervisor %s: %w", a.ActingID, err)
	}
	return supervisor, nil
}
