package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

// ListCoverageEvents returns coverage events newest first
func (d *DB) ListCoverageEvents(ctx context.Context, filter db.EventFilter) ([]model.CoverageEvent, error) {
	c := &conditions{}
	if filter.SessionID != "" {
		c.add(`session_id = %[1]s`, filter.SessionID)
	}
	query := `SELECT id, session_id, acting_supervisor_id, action, occurred_at FROM coverage_event` +
		c.where() + ` ORDER BY seq DESC`
	query += c.limit(filter.Limit, 0)

	rows, err := d.pool.Query(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query coverage events: %w", err)
	}
	defer rows.Close()

	var events []model.CoverageEvent
	for rows.Next() {
		var e model.CoverageEvent
		var action string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.ActingSupervisorID, &action, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan coverage event: %w", err)
		}
		e.Action = model.CoverageAction(action)
		e.Timestamp = e.Timestamp.UTC()
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coverage events: %w", err)
	}

	return events, nil
}

func appendCoverageEvent(ctx context.Context, q querier, e *model.CoverageEvent) error {
	_, err := q.Exec(ctx, `
		INSERT INTO coverage_event (id, session_id, acting_supervisor_id, action, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.SessionID, e.ActingSupervisorID, string(e.Action), e.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert coverage event: %w", err)
	}
	return nil
}
