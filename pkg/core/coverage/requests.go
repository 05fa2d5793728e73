package coverage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

// DeleteRequest deletes a request and its sessions.
// Only the requesting supervisor may delete, and only while no session is covered.
func (c *Coordinator) DeleteRequest(ctx context.Context, requestID, actingSupervisorID string) error {
	c.logger.Debug("Deleting request",
		zap.String("request_id", requestID),
		zap.String("supervisor_id", actingSupervisorID))

	var sessionCount int
	err := c.runTx(ctx, "delete_request", func(tx db.Tx) error {
		request, err := tx.GetRequest(ctx, requestID)
		if err != nil {
			return loadErr("request", requestID, err)
		}
		if err := checkOwnedAndOpen(request, actingSupervisorID, "delete"); err != nil {
			return err
		}

		sessionCount = len(request.Sessions)
		if err := tx.DeleteRequest(ctx, requestID); err != nil {
			return fmt.Errorf("failed to delete request: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, db.ErrConflict) {
			return c.rederiveRequestChange(ctx, requestID, actingSupervisorID, "delete")
		}
		return err
	}

	c.logger.Info("Request deleted",
		zap.String("request_id", requestID),
		zap.Int("sessions_deleted", sessionCount))

	return nil
}

// UpdateRequestDates changes the date range of a request under the same guard as deletion
func (c *Coordinator) UpdateRequestDates(ctx context.Context, requestID, actingSupervisorID string, start, end time.Time) (*model.TimeOffRequest, error) {
	if start.After(end) {
		return nil, fmt.Errorf("start date must be before end date: %w", ErrInvalidRequest)
	}

	var updated *model.TimeOffRequest
	err := c.runTx(ctx, "update_request", func(tx db.Tx) error {
		request, err := tx.GetRequest(ctx, requestID)
		if err != nil {
			return loadErr("request", requestID, err)
		}
		if err := checkOwnedAndOpen(request, actingSupervisorID, "update"); err != nil {
			return err
		}

		if err := tx.UpdateRequestDates(ctx, requestID, start, end); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}

		request.StartDate = start
		request.EndDate = end
		updated = request
		return nil
	})
	if err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, c.rederiveRequestChange(ctx, requestID, actingSupervisorID, "update")
		}
		return nil, err
	}

	c.logger.Info("Request dates updated",
		zap.String("request_id", requestID),
		zap.Time("start", start),
		zap.Time("end", end))

	return ApplyStatus(updated), nil
}

func checkOwnedAndOpen(request *model.TimeOffRequest, actingSupervisorID, verb string) error {
	if request.RequestingSupervisorID != actingSupervisorID {
		return fmt.Errorf("you can only %s your own requests: %w", verb, ErrUnauthorized)
	}
	if ComputeRequestStatus(request).Covered > 0 {
		return fmt.Errorf("cannot %s request %s: %w", verb, request.ID, ErrHasCoveredSessions)
	}
	return nil
}

func (c *Coordinator) rederiveRequestChange(ctx context.Context, requestID, actingSupervisorID, verb string) error {
	request, err := c.store.GetRequest(ctx, requestID)
	if err != nil {
		return loadErr("request", requestID, err)
	}
	if err := checkOwnedAndOpen(request, actingSupervisorID, verb); err != nil {
		return err
	}
	return fmt.Errorf("request %s sessions are being claimed concurrently: %w", requestID, ErrHasCoveredSessions)
}
