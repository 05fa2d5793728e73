package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
	"github.com/jakechorley/clinic-cover/pkg/notify"
)

// SessionInput describes one clinic session of a new request
type SessionInput struct {
	ClinicName string    `validate:"required,max=200"`
	Date       time.Time `validate:"required"`
	StartTime  time.Time `validate:"required"`
	EndTime    time.Time `validate:"required,gtfield=StartTime"`
	Notes      string    `validate:"max=1000"`
}

// CreateRequestInput is the input to CreateRequest
type CreateRequestInput struct {
	RequestingSupervisorID string         `validate:"required"`
	StartDate              time.Time      `validate:"required"`
	EndDate                time.Time      `validate:"required"`
	Sessions               []SessionInput `validate:"required,min=1,dive"`
}

// CreateRequestStore defines the database operations needed for creating requests
type CreateRequestStore interface {
	WithTx(ctx context.Context, fn func(tx db.Tx) error) error
}

var validate = validator.New()

// CreateRequest records a time off request with its sessions and tells every
// other active supervisor about it. The request, its sessions and the
// notifications are written in one transaction.
func CreateRequest(
	ctx context.Context,
	store CreateRequestStore,
	dispatcher notify.Dispatcher,
	logger *zap.Logger,
	input CreateRequestInput,
) (*model.TimeOffRequest, error) {
	if err := validateCreateRequest(input); err != nil {
		return nil, err
	}

	logger.Debug("Creating time off request",
		zap.String("supervisor_id", input.RequestingSupervisorID),
		zap.Time("start", input.StartDate),
		zap.Time("end", input.EndDate),
		zap.Int("sessions", len(input.Sessions)))

	request := &model.TimeOffRequest{
		ID:                     uuid.New().String(),
		RequestingSupervisorID: input.RequestingSupervisorID,
		StartDate:              input.StartDate,
		EndDate:                input.EndDate,
		CreatedAt:              time.Now().UTC(),
		Status:                 model.StatusPending,
		Sessions:               make([]model.ClinicSession, len(input.Sessions)),
	}
	for i, s := range input.Sessions {
		request.Sessions[i] = model.ClinicSession{
			ID:         uuid.New().String(),
			RequestID:  request.ID,
			ClinicName: s.ClinicName,
			Date:       s.Date,
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
			Notes:      s.Notes,
		}
	}

	notified := 0
	err := store.WithTx(ctx, func(tx db.Tx) error {
		notified = 0

		requester, err := tx.GetSupervisor(ctx, input.RequestingSupervisorID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return fmt.Errorf("supervisor %s: %w", input.RequestingSupervisorID, coverage.ErrNotFound)
			}
			return fmt.Errorf("failed to load requesting supervisor: %w", err)
		}

		if err := tx.InsertRequest(ctx, request); err != nil {
			return fmt.Errorf("failed to insert request: %w", err)
		}

		supervisors, err := tx.ListSupervisors(ctx, true)
		if err != nil {
			return fmt.Errorf("failed to list supervisors: %w", err)
		}
		for _, s := range supervisors {
			if s.ID == requester.ID {
				continue
			}
			if err := dispatcher.Enqueue(ctx, tx, notify.NewRequest(s.ID, requester, request)); err != nil {
				return err
			}
			notified++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Time off request created",
		zap.String("request_id", request.ID),
		zap.Int("sessions", len(request.Sessions)),
		zap.Int("supervisors_notified", notified))

	return coverage.ApplyStatus(request), nil
}

func validateCreateRequest(input CreateRequestInput) error {
	if len(input.Sessions) == 0 {
		return fmt.Errorf("at least one session is required: %w", coverage.ErrInvalidRequest)
	}
	if err := validate.Struct(input); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), coverage.ErrInvalidRequest)
	}
	if input.StartDate.After(input.EndDate) {
		return fmt.Errorf("start date must be before end date: %w", coverage.ErrInvalidRequest)
	}
	return nil
}
