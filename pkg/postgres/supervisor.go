package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
)

const supervisorColumns = `id, display_name, email, role, active, created_at`

// GetSupervisor retrieves a supervisor by ID
func (d *DB) GetSupervisor(ctx context.Context, id string) (*model.Supervisor, error) {
	return getSupervisor(ctx, d.pool, id)
}

// ListSupervisors returns supervisors ordered by display name
func (d *DB) ListSupervisors(ctx context.Context, activeOnly bool) ([]model.Supervisor, error) {
	return listSupervisors(ctx, d.pool, activeOnly)
}

// InsertSupervisor inserts a new supervisor record
func (d *DB) InsertSupervisor(ctx context.Context, supervisor *model.Supervisor) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO supervisor (id, display_name, email, role, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, supervisor.ID, supervisor.DisplayName, supervisor.Email, string(supervisor.Role), supervisor.Active, supervisor.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert supervisor: %w", err)
	}
	return nil
}

func getSupervisor(ctx context.Context, q querier, id string) (*model.Supervisor, error) {
	row := q.QueryRow(ctx, `SELECT `+supervisorColumns+` FROM supervisor WHERE id = $1`, id)

	var s model.Supervisor
	var role string
	if err := row.Scan(&s.ID, &s.DisplayName, &s.Email, &role, &s.Active, &s.CreatedAt); err != nil {
		return nil, notFound(err, "supervisor", id)
	}
	s.Role = model.Role(role)
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}

func listSupervisors(ctx context.Context, q querier, activeOnly bool) ([]model.Supervisor, error) {
	query := `SELECT ` + supervisorColumns + ` FROM supervisor`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY display_name, id`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query supervisors: %w", err)
	}
	defer rows.Close()

	var supervisors []model.Supervisor
	for rows.Next() {
		var s model.Supervisor
		var role string
		if err := rows.Scan(&s.ID, &s.DisplayName, &s.Email, &role, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supervisor: %w", err)
		}
		s.Role = model.Role(role)
		s.CreatedAt = s.CreatedAt.UTC()
		supervisors = append(supervisors, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating supervisors: %w", err)
	}

	return supervisors, nil
}
