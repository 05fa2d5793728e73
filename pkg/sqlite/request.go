package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

const requestColumns = `id, requesting_supervisor_id, start_date, end_date, status, created_at`

// GetRequest retrieves a request with its sessions
func (d *DB) GetRequest(ctx context.Context, id string) (*model.TimeOffRequest, error) {
	return getRequest(ctx, d.db, id)
}

// ListRequests returns requests (with sessions) matching the filter
func (d *DB) ListRequests(ctx context.Context, filter db.RequestFilter) ([]model.TimeOffRequest, error) {
	c := &conditions{}
	if filter.SupervisorID != "" {
		c.add(`requesting_supervisor_id = ?`, filter.SupervisorID)
	}
	if !filter.StartFrom.IsZero() {
		c.add(`start_date >= ?`, filter.StartFrom.UTC())
	}
	if !filter.StartTo.IsZero() {
		c.add(`start_date <= ?`, filter.StartTo.UTC())
	}
	if !filter.EndBy.IsZero() {
		c.add(`end_date <= ?`, filter.EndBy.UTC())
	}

	query := `SELECT ` + requestColumns + ` FROM time_off_request` + c.where()
	if filter.NewestFirst {
		query += ` ORDER BY created_at DESC, id DESC`
	} else {
		query += ` ORDER BY start_date, id`
	}
	query += c.limit(filter.Limit, 0)

	rows, err := d.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []model.TimeOffRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}
	rows.Close()

	if err := attachSessions(ctx, d.db, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// CountRequests counts all requests, or only those of one supervisor
func (d *DB) CountRequests(ctx context.Context, supervisorID string) (int, error) {
	c := &conditions{}
	if supervisorID != "" {
		c.add(`requesting_supervisor_id = ?`, supervisorID)
	}

	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM time_off_request`+c.where(), c.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return count, nil
}

func getRequest(ctx context.Context, q querier, id string) (*model.TimeOffRequest, error) {
	r, err := scanRequest(q.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM time_off_request WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "request", id)
	}

	r.Sessions, err = sessionsByRequest(ctx, q, []string{id})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// attachSessions loads the sessions of every request with one query
func attachSessions(ctx context.Context, q querier, requests []model.TimeOffRequest) error {
	if len(requests) == 0 {
		return nil
	}

	ids := make([]string, len(requests))
	index := make(map[string]int, len(requests))
	for i, r := range requests {
		ids[i] = r.ID
		index[r.ID] = i
	}

	sessions, err := sessionsByRequest(ctx, q, ids)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		i := index[s.RequestID]
		requests[i].Sessions = append(requests[i].Sessions, s)
	}
	return nil
}

// placeholders returns "?, ?, ..." for an IN list along with its arguments
func placeholders(values []string) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", "), args
}

func scanRequest(row rowScanner) (model.TimeOffRequest, error) {
	var r model.TimeOffRequest
	var status string
	if err := row.Scan(&r.ID, &r.RequestingSupervisorID, &r.StartDate, &r.EndDate, &status, &r.CreatedAt); err != nil {
		return r, err
	}
	r.Status = model.RequestStatus(status)
	r.StartDate = r.StartDate.UTC()
	r.EndDate = r.EndDate.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}
