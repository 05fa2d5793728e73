package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

// SupervisorProfile is a supervisor with their activity counts
type SupervisorProfile struct {
	Supervisor          *model.Supervisor
	Requests            int
	CoveredSessions     int
	UnreadNotifications int
}

// ProfileStore defines the database operations needed for a supervisor profile
type ProfileStore interface {
	GetSupervisor(ctx context.Context, id string) (*model.Supervisor, error)
	CountRequests(ctx context.Context, supervisorID string) (int, error)
	CountSessions(ctx context.Context, filter db.SessionFilter) (int, error)
	CountNotifications(ctx context.Context, filter db.NotificationFilter) (int, error)
}

// AddSupervisorInput is the input to AddSupervisor
type AddSupervisorInput struct {
	ID          string
	DisplayName string     `validate:"required,max=100"`
	Email       string     `validate:"required,email"`
	Role        model.Role `validate:"required,oneof=ADMIN USER"`
}

// ListSupervisors returns active supervisors ordered by name
func ListSupervisors(ctx context.Context, store db.SupervisorStore, logger *zap.Logger) ([]model.Supervisor, error) {
	supervisors, err := store.ListSupervisors(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list supervisors: %w", err)
	}
	logger.Debug("Listed supervisors", zap.Int("count", len(supervisors)))
	return supervisors, nil
}

// AddSupervisor creates an active supervisor. An ID is generated when none is given.
func AddSupervisor(ctx context.Context, store db.SupervisorStore, logger *zap.Logger, input AddSupervisorInput) (*model.Supervisor, error) {
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.Email = strings.TrimSpace(input.Email)
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), coverage.ErrInvalidRequest)
	}

	supervisor := &model.Supervisor{
		ID:          input.ID,
		DisplayName: input.DisplayName,
		Email:       input.Email,
		Role:        input.Role,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if supervisor.ID == "" {
		supervisor.ID = uuid.New().String()
	}

	if err := store.InsertSupervisor(ctx, supervisor); err != nil {
		return nil, fmt.Errorf("failed to insert supervisor: %w", err)
	}

	logger.Info("Supervisor added",
		zap.String("id", supervisor.ID),
		zap.String("role", string(supervisor.Role)))

	return supervisor, nil
}

// GetSupervisorProfile returns the supervisor with their request, coverage and unread counts
func GetSupervisorProfile(ctx context.Context, store ProfileStore, supervisorID string) (*SupervisorProfile, error) {
	supervisor, err := store.GetSupervisor(ctx, supervisorID)
	if err != nil {
		return nil, translateLoadErr("supervisor", supervisorID, err)
	}

	profile := &SupervisorProfile{Supervisor: supervisor}

	if profile.Requests, err = store.CountRequests(ctx, supervisorID); err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	if profile.CoveredSessions, err = store.CountSessions(ctx, db.SessionFilter{CoveringSupervisorID: supervisorID}); err != nil {
		return nil, fmt.Errorf("failed to count covered sessions: %w", err)
	}
	if profile.UnreadNotifications, err = store.CountNotifications(ctx, db.NotificationFilter{SupervisorID: supervisorID, UnreadOnly: true}); err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	return profile, nil
}
