package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

// ListNotifications returns a supervisor's notifications newest first
func (d *DB) ListNotifications(ctx context.Context, filter db.NotificationFilter) ([]model.Notification, error) {
	c := notificationConditions(filter)
	query := `SELECT id, supervisor_id, type, title, message, data, read, created_at FROM notification` +
		c.where() + ` ORDER BY created_at DESC, seq DESC`
	query += c.limit(filter.Limit, filter.Offset)

	rows, err := d.pool.Query(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.SupervisorID, &typ, &n.Title, &n.Message, &n.Data, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if n.Type, err = model.ParseNotificationType(typ); err != nil {
			return nil, fmt.Errorf("notification %s: %w", n.ID, err)
		}
		n.CreatedAt = n.CreatedAt.UTC()
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// CountNotifications counts notifications matching the filter (paging is ignored)
func (d *DB) CountNotifications(ctx context.Context, filter db.NotificationFilter) (int, error) {
	c := notificationConditions(filter)

	var count int
	if err := d.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notification`+c.where(), c.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationsRead marks notifications read and returns how many changed
func (d *DB) MarkNotificationsRead(ctx context.Context, supervisorID string, ids []string) (int, error) {
	c := notificationConditions(db.NotificationFilter{SupervisorID: supervisorID, UnreadOnly: true})
	if len(ids) > 0 {
		c.add(`id = ANY(%[1]s)`, ids)
	}

	tag, err := d.pool.Exec(ctx, `UPDATE notification SET read = TRUE`+c.where(), c.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteNotification deletes one of the supervisor's notifications
func (d *DB) DeleteNotification(ctx context.Context, supervisorID, id string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM notification WHERE id = $1 AND supervisor_id = $2`, id, supervisorID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", id, db.ErrNotFound)
	}
	return nil
}

// DeleteNotifications deletes all (or only read) notifications of a supervisor
func (d *DB) DeleteNotifications(ctx context.Context, supervisorID string, onlyRead bool) (int, error) {
	query := `DELETE FROM notification WHERE supervisor_id = $1`
	if onlyRead {
		query += ` AND read`
	}

	tag, err := d.pool.Exec(ctx, query, supervisorID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func notificationConditions(filter db.NotificationFilter) *conditions {
	c := &conditions{}
	c.add(`supervisor_id = %[1]s`, filter.SupervisorID)
	if filter.UnreadOnly {
		c.clauses = append(c.clauses, `NOT read`)
	}
	return c
}

func insertNotification(ctx context.Context, q querier, n *model.Notification) error {
	_, err := q.Exec(ctx, `
		INSERT INTO notification (id, supervisor_id, type, title, message, data, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, n.ID, n.SupervisorID, n.Type.String(), n.Title, n.Message, n.Data, n.Read, n.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}
