package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

const sessionColumns = `s.id, s.request_id, s.clinic_name, s.session_date, s.start_time, s.end_time, s.notes, s.covering_supervisor_id`

const sessionOrder = ` ORDER BY s.session_date, s.start_time, s.id`

// GetSession retrieves a session by ID
func (d *DB) GetSession(ctx context.Context, id string) (*model.ClinicSession, error) {
	return getSession(ctx, d.db, id)
}

// ListSessions returns sessions matching the filter ordered by date and start time
func (d *DB) ListSessions(ctx context.Context, filter db.SessionFilter) ([]model.ClinicSession, error) {
	c := sessionConditions(filter)
	query := `SELECT ` + sessionColumns + ` FROM clinic_session s JOIN time_off_request r ON r.id = s.request_id` +
		c.where() + sessionOrder
	query += c.limit(filter.Limit, 0)

	rows, err := d.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	return collectSessions(rows)
}

// CountSessions counts sessions matching the filter (Limit is ignored)
func (d *DB) CountSessions(ctx context.Context, filter db.SessionFilter) (int, error) {
	c := sessionConditions(filter)
	query := `SELECT COUNT(*) FROM clinic_session s JOIN time_off_request r ON r.id = s.request_id` + c.where()

	var count int
	if err := d.db.QueryRowContext(ctx, query, c.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// ClinicNames returns distinct clinic names containing the search text
func (d *DB) ClinicNames(ctx context.Context, contains string, limit int) ([]string, error) {
	c := &conditions{}
	c.add(`instr(lower(clinic_name), lower(?)) > 0`, contains)
	query := `SELECT DISTINCT clinic_name FROM clinic_session` + c.where() + ` ORDER BY clinic_name`
	query += c.limit(limit, 0)

	rows, err := d.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clinic names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan clinic name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clinic names: %w", err)
	}

	return names, nil
}

func sessionConditions(filter db.SessionFilter) *conditions {
	c := &conditions{}
	if !filter.From.IsZero() {
		c.add(`s.session_date >= ?`, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		c.add(`s.session_date <= ?`, filter.To.UTC())
	}
	switch filter.Coverage {
	case db.CoverageCovered:
		c.add(`s.covering_supervisor_id IS NOT NULL`)
	case db.CoverageUncovered:
		c.add(`s.covering_supervisor_id IS NULL`)
	}
	if filter.ClinicContains != "" {
		c.add(`instr(lower(s.clinic_name), lower(?)) > 0`, filter.ClinicContains)
	}
	if filter.CoveringSupervisorID != "" {
		c.add(`s.covering_supervisor_id = ?`, filter.CoveringSupervisorID)
	}
	if filter.InvolvingSupervisorID != "" {
		c.add(`(s.covering_supervisor_id = ? OR r.requesting_supervisor_id = ?)`, filter.InvolvingSupervisorID, filter.InvolvingSupervisorID)
	}
	return c
}

// getSession needs no row lock: an immediate transaction already holds the database write lock
func getSession(ctx context.Context, q querier, id string) (*model.ClinicSession, error) {
	s, err := scanSession(q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM clinic_session s WHERE s.id = ?`, id))
	if err != nil {
		return nil, notFound(err, "session", id)
	}
	return &s, nil
}

func sessionsByRequest(ctx context.Context, q querier, requestIDs []string) ([]model.ClinicSession, error) {
	in, args := placeholders(requestIDs)
	rows, err := q.QueryContext(ctx, `SELECT `+sessionColumns+` FROM clinic_session s WHERE s.request_id IN (`+in+`)`+sessionOrder, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query request sessions: %w", err)
	}
	return collectSessions(rows)
}

func collectSessions(rows *sql.Rows) ([]model.ClinicSession, error) {
	defer rows.Close()

	var sessions []model.ClinicSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

func scanSession(row rowScanner) (model.ClinicSession, error) {
	var s model.ClinicSession
	var holder sql.NullString
	if err := row.Scan(&s.ID, &s.RequestID, &s.ClinicName, &s.Date, &s.StartTime, &s.EndTime, &s.Notes, &holder); err != nil {
		return s, err
	}
	s.CoveringSupervisorID = holder.String
	s.Date = s.Date.UTC()
	s.StartTime = s.StartTime.UTC()
	s.EndTime = s.EndTime.UTC()
	return s, nil
}
