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

// Claim makes actingSupervisorID the covering supervisor of a session.
//
// The session is re-read inside the transaction and every check is made
// against that read, so of two concurrent claims exactly one wins and the
// other sees ErrAlreadyCovered. The requester is told about the claim, and
// told again when it was the claim that left no session of the request open.
func (c *Coordinator) Claim(ctx context.Context, sessionID, actingSupervisorID string) (*model.ClinicSession, error) {
	if actingSupervisorID == "" {
		return nil, fmt.Errorf("acting supervisor is required: %w", ErrInvalidRequest)
	}

	c.logger.Debug("Claiming session",
		zap.String("session_id", sessionID),
		zap.String("supervisor_id", actingSupervisorID))

	var claimed *model.ClinicSession
	var requestCovered bool

	err := c.runTx(ctx, "claim", func(tx db.Tx) error {
		claimed, requestCovered = nil, false

		// Step 1: Lock and re-read the session
		session, err := tx.GetSessionForUpdate(ctx, sessionID)
		if err != nil {
			return loadErr("session", sessionID, err)
		}

		request, err := tx.GetRequest(ctx, session.RequestID)
		if err != nil {
			return loadErr("request", session.RequestID, err)
		}

		// Step 2: Business rules against the locked snapshot
		if request.RequestingSupervisorID == actingSupervisorID {
			return fmt.Errorf("session %s: %w", sessionID, ErrSelfCoverage)
		}
		if session.IsCovered() {
			return fmt.Errorf("session %s: %w", sessionID, ErrAlreadyCovered)
		}

		// Step 3: Conditional write and audit record
		updated, err := tx.SetCoverage(ctx, sessionID, "", actingSupervisorID)
		if err != nil {
			return fmt.Errorf("failed to set coverage: %w", err)
		}

		if err := tx.AppendCoverageEvent(ctx, &model.CoverageEvent{
			ID:                 uuid.New().String(),
			SessionID:          sessionID,
			ActingSupervisorID: actingSupervisorID,
			Action:             model.ActionClaimed,
			Timestamp:          c.timestamp(),
		}); err != nil {
			return fmt.Errorf("failed to append coverage event: %w", err)
		}

		// Step 4: Notifications
		claimer, err := actor(ctx, tx, actingSupervisorID)
		if err != nil {
			return fmt.Errorf("failed to load claiming supervisor: %w", err)
		}
		if err := c.dispatcher.Enqueue(ctx, tx, notify.SessionClaimed(request.RequestingSupervisorID, claimer, updated)); err != nil {
			return err
		}

		sessions, err := tx.ListSessionsByRequest(ctx, request.ID)
		if err != nil {
			return fmt.Errorf("failed to list request sessions: %w", err)
		}
		// The claimed session was open before this write, so full coverage here is a transition
		if ComputeStatus(sessions).Status == model.StatusFullyCovered {
			requestCovered = true
			if err := c.dispatcher.Enqueue(ctx, tx, notify.RequestCovered(request.RequestingSupervisorID, request.ID)); err != nil {
				return err
			}
		}

		claimed = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, c.rederiveClaim(ctx, sessionID, actingSupervisorID)
		}
		c.logger.Debug("Claim rejected",
			zap.String("session_id", sessionID),
			zap.String("supervisor_id", actingSupervisorID),
			zap.Error(err))
		return nil, err
	}

	c.logger.Info("Session claimed",
		zap.String("session_id", sessionID),
		zap.String("supervisor_id", actingSupervisorID),
		zap.Bool("request_covered", requestCovered))

	return claimed, nil
}

// rederiveClaim explains a claim that kept losing storage races using a fresh read
func (c *Coordinator) rederiveClaim(ctx context.Context, sessionID, actingSupervisorID string) error {
	session, err := c.store.GetSession(ctx, sessionID)
	if err != nil {
		return loadErr("session", sessionID, err)
	}

	request, err := c.store.GetRequest(ctx, session.RequestID)
	if err != nil {
		return loadErr("request", session.RequestID, err)
	}

	if request.RequestingSupervisorID == actingSupervisorID {
		return fmt.Errorf("session %s: %w", sessionID, ErrSelfCoverage)
	}
	if session.IsCovered() {
		return fmt.Errorf("session %s: %w", sessionID, ErrAlreadyCovered)
	}
	return fmt.Errorf("session %s is being claimed concurrently: %w", sessionID, ErrAlreadyCovered)
}
