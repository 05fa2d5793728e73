package coverage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
	"github.com/jakechorley/clinic-cover/pkg/notify"
)

// Release returns a covered session to uncovered.
// Only the covering supervisor or an admin may release; releasing an
// uncovered session is rejected with ErrNotCovered and records nothing.
func (c *Coordinator) Release(ctx context.Context, sessionID, actingSupervisorID string, actingRole model.Role) (*model.ClinicSession, error) {
	if actingSupervisorID == "" {
		return nil, fmt.Errorf("acting supervisor is required: %w", ErrInvalidRequest)
	}

	c.logger.Debug("Releasing session",
		zap.String("session_id", sessionID),
		zap.String("supervisor_id", actingSupervisorID),
		zap.String("role", string(actingRole)))

	var released *model.ClinicSession
	var previousHolder string

	err := c.runTx(ctx, "release", func(tx db.Tx) error {
		released, previousHolder = nil, ""

		session, err := tx.GetSessionForUpdate(ctx, sessionID)
		if err != nil {
			return loadErr("session", sessionID, err)
		}

		if err := checkRelease(session, actingSupervisorID, actingRole); err != nil {
			return err
		}

		updated, err := tx.SetCoverage(ctx, sessionID, session.CoveringSupervisorID, "")
		if err != nil {
			return fmt.Errorf("failed to clear coverage: %w", err)
		}

		if err := tx.AppendCoverageEvent(ctx, &model.CoverageEvent{
			ID:                 uuid.New().String(),
			SessionID:          sessionID,
			ActingSupervisorID: actingSupervisorID,
			Action:             model.ActionReleased,
			Timestamp:          c.timestamp(),
		}); err != nil {
			return fmt.Errorf("failed to append coverage event: %w", err)
		}

		if c.opts.NotifyOnRelease {
			if err := c.notifyRelease(ctx, tx, updated, actingSupervisorID); err != nil {
				return err
			}
		}

		released = updated
		previousHolder = session.CoveringSupervisorID
		return nil
	})
	if err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, c.rederiveRelease(ctx, sessionID, actingSupervisorID, actingRole)
		}
		c.logger.Debug("Release rejected",
			zap.String("session_id", sessionID),
			zap.String("supervisor_id", actingSupervisorID),
			zap.Error(err))
		return nil, err
	}

	c.logger.Info("Session released",
		zap.String("session_id", sessionID),
		zap.String("supervisor_id", actingSupervisorID),
		zap.String("previous_holder", previousHolder))

	return released, nil
}

func checkRelease(session *model.ClinicSession, actingSupervisorID string, actingRole model.Role) error {
	if session.CoveringSupervisorID != actingSupervisorID && actingRole != model.RoleAdmin {
		return fmt.Errorf("you can only release sessions you are covering: %w", ErrUnauthorized)
	}
	if !session.IsCovered() {
		return fmt.Errorf("session %s: %w", session.ID, ErrNotCovered)
	}
	return nil
}

func (c *Coordinator) notifyRelease(ctx context.Context, tx db.Tx, session *model.ClinicSession, actingSupervisorID string) error {
	request, err := tx.GetRequest(ctx, session.RequestID)
	if err != nil {
		return loadErr("request", session.RequestID, err)
	}
	if request.RequestingSupervisorID == actingSupervisorID {
		return nil
	}

	releaser, err := actor(ctx, tx, actingSupervisorID)
	if err != nil {
		return fmt.Errorf("failed to load releasing supervisor: %w", err)
	}
	return c.dispatcher.Enqueue(ctx, tx, notify.SessionReleased(request.RequestingSupervisorID, releaser, session))
}

// rederiveRelease explains a release that kept losing storage races using a fresh read
func (c *Coordinator) rederiveRelease(ctx context.Context, sessionID, actingSupervisorID string, actingRole model.Role) error {
	session, err := c.store.GetSession(ctx, sessionID)
	if err != nil {
		return loadErr("session", sessionID, err)
	}
	if err := checkRelease(session, actingSupervisorID, actingRole); err != nil {
		return err
	}
	return fmt.Errorf("session %s coverage is changing concurrently: %w", sessionID, ErrAlreadyCovered)
}
