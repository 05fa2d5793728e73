package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

// sqliteTx implements db.Tx on an immediate transaction
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) GetSupervisor(ctx context.Context, id string) (*model.Supervisor, error) {
	return getSupervisor(ctx, t.tx, id)
}

func (t *sqliteTx) ListSupervisors(ctx context.Context, activeOnly bool) ([]model.Supervisor, error) {
	return listSupervisors(ctx, t.tx, activeOnly)
}

func (t *sqliteTx) GetRequest(ctx context.Context, id string) (*model.TimeOffRequest, error) {
	return getRequest(ctx, t.tx, id)
}

func (t *sqliteTx) InsertRequest(ctx context.Context, request *model.TimeOffRequest) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO time_off_request (id, requesting_supervisor_id, start_date, end_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, request.ID, request.RequestingSupervisorID, request.StartDate.UTC(), request.EndDate.UTC(), string(request.Status), request.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}

	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO clinic_session (id, request_id, clinic_name, session_date, start_time, end_time, notes, covering_supervisor_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare session insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range request.Sessions {
		_, err := stmt.ExecContext(ctx, s.ID, request.ID, s.ClinicName, s.Date.UTC(), s.StartTime.UTC(), s.EndTime.UTC(), s.Notes, nullString(s.CoveringSupervisorID))
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
	}
	return nil
}

func (t *sqliteTx) UpdateRequestDates(ctx context.Context, id string, start, end time.Time) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE time_off_request SET start_date = ?, end_date = ? WHERE id = ?`, start.UTC(), end.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update request dates: %w", err)
	}
	return requireRow(res, "request", id)
}

func (t *sqliteTx) DeleteRequest(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM time_off_request WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return requireRow(res, "request", id)
}

func (t *sqliteTx) GetSessionForUpdate(ctx context.Context, id string) (*model.ClinicSession, error) {
	return getSession(ctx, t.tx, id)
}

func (t *sqliteTx) ListSessionsByRequest(ctx context.Context, requestID string) ([]model.ClinicSession, error) {
	return sessionsByRequest(ctx, t.tx, []string{requestID})
}

// SetCoverage writes the new holder only if the stored holder still matches expectedHolder
func (t *sqliteTx) SetCoverage(ctx context.Context, sessionID, expectedHolder, newHolder string) (*model.ClinicSession, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE clinic_session SET covering_supervisor_id = ?
		WHERE id = ? AND covering_supervisor_id IS ?
	`, nullString(newHolder), sessionID, nullString(expectedHolder))
	if err != nil {
		return nil, fmt.Errorf("failed to set coverage: %w", err)
	}

	n, err := rowsAffected(res)
	if err != nil {
		return nil, err
	}

	// Either way the current row decides: missing means not found, present but unmatched means conflict
	session, err := getSession(ctx, t.tx, sessionID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("session %s holder changed: %w", sessionID, db.ErrConflict)
	}
	return session, nil
}

func (t *sqliteTx) AppendCoverageEvent(ctx context.Context, event *model.CoverageEvent) error {
	return appendCoverageEvent(ctx, t.tx, event)
}

func (t *sqliteTx) InsertNotification(ctx context.Context, notification *model.Notification) error {
	return insertNotification(ctx, t.tx, notification)
}

func rowsAffected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

// requireRow reports db.ErrNotFound when a statement touched nothing
func requireRow(res sql.Result, kind, id string) error {
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, db.ErrNotFound)
	}
	return nil
}
