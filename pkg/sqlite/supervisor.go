package sqlite

import (
	"context"
	"fmt"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
)

const supervisorColumns = `id, display_name, email, role, active, created_at`

// GetSupervisor retrieves a supervisor by ID
func (d *DB) GetSupervisor(ctx context.Context, id string) (*model.Supervisor, error) {
	return getSupervisor(ctx, d.db, id)
}

// ListSupervisors returns supervisors ordered by display name
func (d *DB) ListSupervisors(ctx context.Context, activeOnly bool) ([]model.Supervisor, error) {
	return listSupervisors(ctx, d.db, activeOnly)
}

// InsertSupervisor inserts a new supervisor record
func (d *DB) InsertSupervisor(ctx context.Context, supervisor *model.Supervisor) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO supervisor (id, display_name, email, role, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, supervisor.ID, supervisor.DisplayName, supervisor.Email, string(supervisor.Role), supervisor.Active, supervisor.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert supervisor: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func getSupervisor(ctx context.Context, q querier, id string) (*model.Supervisor, error) {
	s, err := scanSupervisor(q.QueryRowContext(ctx, `SELECT `+supervisorColumns+` FROM supervisor WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "supervisor", id)
	}
	return &s, nil
}

func listSupervisors(ctx context.Context, q querier, activeOnly bool) ([]model.Supervisor, error) {
	query := `SELECT ` + supervisorColumns + ` FROM supervisor`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY display_name, id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query supervisors: %w", err)
	}
	defer rows.Close()

	var supervisors []model.Supervisor
	for rows.Next() {
		s, err := scanSupervisor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supervisor: %w", err)
		}
		supervisors = append(supervisors, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating supervisors: %w", err)
	}

	return supervisors, nil
}

func scanSupervisor(row rowScanner) (model.Supervisor, error) {
	var s model.Supervisor
	var role string
	if err := row.Scan(&s.ID, &s.DisplayName, &s.Email, &role, &s.Active, &s.CreatedAt); err != nil {
		return s, err
	}
	s.Role = model.Role(role)
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}
