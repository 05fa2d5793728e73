package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

// pgTx implements db.Tx on a SERIALIZABLE transaction
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) GetSupervisor(ctx context.Context, id string) (*model.Supervisor, error) {
	return getSupervisor(ctx, t.tx, id)
}

func (t *pgTx) ListSupervisors(ctx context.Context, activeOnly bool) ([]model.Supervisor, error) {
	return listSupervisors(ctx, t.tx, activeOnly)
}

func (t *pgTx) GetRequest(ctx context.Context, id string) (*model.TimeOffRequest, error) {
	return getRequest(ctx, t.tx, id)
}

func (t *pgTx) InsertRequest(ctx context.Context, request *model.TimeOffRequest) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO time_off_request (id, requesting_supervisor_id, start_date, end_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, request.ID, request.RequestingSupervisorID, request.StartDate, request.EndDate, string(request.Status), request.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}

	// Batch the session inserts into one round trip
	batch := &pgx.Batch{}
	for _, s := range request.Sessions {
		batch.Queue(`
			INSERT INTO clinic_session (id, request_id, clinic_name, session_date, start_time, end_time, notes, covering_supervisor_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, s.ID, request.ID, s.ClinicName, s.Date, s.StartTime.UTC(), s.EndTime.UTC(), s.Notes, nullable(s.CoveringSupervisorID))
	}

	results := t.tx.SendBatch(ctx, batch)
	for range request.Sessions {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert session: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to insert sessions: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateRequestDates(ctx context.Context, id string, start, end time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE time_off_request SET start_date = $2, end_date = $3 WHERE id = $1`, id, start, end)
	if err != nil {
		return fmt.Errorf("failed to update request dates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("request %s: %w", id, db.ErrNotFound)
	}
	return nil
}

func (t *pgTx) DeleteRequest(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM time_off_request WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("request %s: %w", id, db.ErrNotFound)
	}
	return nil
}

func (t *pgTx) GetSessionForUpdate(ctx context.Context, id string) (*model.ClinicSession, error) {
	return getSession(ctx, t.tx, id, true)
}

func (t *pgTx) ListSessionsByRequest(ctx context.Context, requestID string) ([]model.ClinicSession, error) {
	return sessionsByRequest(ctx, t.tx, []string{requestID})
}

// SetCoverage writes the new holder only if the stored holder still matches expectedHolder
func (t *pgTx) SetCoverage(ctx context.Context, sessionID, expectedHolder, newHolder string) (*model.ClinicSession, error) {
	row := t.tx.QueryRow(ctx, `
		UPDATE clinic_session s SET covering_supervisor_id = $3
		WHERE s.id = $1 AND s.covering_supervisor_id IS NOT DISTINCT FROM $2
		RETURNING `+sessionColumns,
		sessionID, nullable(expectedHolder), nullable(newHolder))

	s, err := scanSession(row)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to set coverage: %w", err)
	}

	// Nothing matched: either the session is gone or its holder moved on
	if _, err := getSession(ctx, t.tx, sessionID, false); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("session %s holder changed: %w", sessionID, db.ErrConflict)
}

func (t *pgTx) AppendCoverageEvent(ctx context.Context, event *model.CoverageEvent) error {
	return appendCoverageEvent(ctx, t.tx, event)
}

func (t *pgTx) InsertNotification(ctx context.Context, notification *model.Notification) error {
	return insertNotification(ctx, t.tx, notification)
}
