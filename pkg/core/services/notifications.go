package services

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

const (
	unreadNotificationLimit  = 20
	defaultNotificationLimit = 50
	maxNotificationPageLimit = 100
)

// NotificationPage is one page of a supervisor's inbox
type NotificationPage struct {
	Notifications []model.Notification
	// NextCursor is empty on the last page
	NextCursor string
}

// ListUnreadNotifications returns the 20 newest unread notifications
func ListUnreadNotifications(ctx context.Context, store db.NotificationStore, logger *zap.Logger, supervisorID string) ([]model.Notification, error) {
	logger.Debug("Listing unread notifications", zap.String("supervisor_id", supervisorID))

	notifications, err := store.ListNotifications(ctx, db.NotificationFilter{
		SupervisorID: supervisorID,
		UnreadOnly:   true,
		Limit:        unreadNotificationLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// ListNotifications returns one page of the inbox, newest first.
// The cursor is opaque to callers; pass back NextCursor to continue.
func ListNotifications(ctx context.Context, store db.NotificationStore, logger *zap.Logger, supervisorID string, limit int, cursor string) (*NotificationPage, error) {
	limit, err := resolveLimit(limit, defaultNotificationLimit, maxNotificationPageLimit)
	if err != nil {
		return nil, err
	}

	offset := 0
	if cursor != "" {
		offset, err = strconv.Atoi(cursor)
		if err != nil || offset < 0 {
			return nil, fmt.Errorf("invalid cursor %q: %w", cursor, coverage.ErrInvalidRequest)
		}
	}

	logger.Debug("Listing notifications",
		zap.String("supervisor_id", supervisorID),
		zap.Int("offset", offset),
		zap.Int("limit", limit))

	// One extra row tells us whether another page exists
	notifications, err := store.ListNotifications(ctx, db.NotificationFilter{
		SupervisorID: supervisorID,
		Offset:       offset,
		Limit:        limit + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	page := &NotificationPage{Notifications: notifications}
	if len(notifications) > limit {
		page.Notifications = notifications[:limit]
		page.NextCursor = strconv.Itoa(offset + limit)
	}
	return page, nil
}

// MarkNotificationsRead marks the given notifications read, or all unread ones when ids is empty
func MarkNotificationsRead(ctx context.Context, store db.NotificationStore, logger *zap.Logger, supervisorID string, ids []string) (int, error) {
	count, err := store.MarkNotificationsRead(ctx, supervisorID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	logger.Debug("Notifications marked read",
		zap.String("supervisor_id", supervisorID),
		zap.Bool("all", len(ids) == 0),
		zap.Int("count", count))

	return count, nil
}

// UnreadNotificationCount counts the supervisor's unread notifications
func UnreadNotificationCount(ctx context.Context, store db.NotificationStore, supervisorID string) (int, error) {
	count, err := store.CountNotifications(ctx, db.NotificationFilter{SupervisorID: supervisorID, UnreadOnly: true})
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// DeleteNotification deletes one of the supervisor's own notifications
func DeleteNotification(ctx context.Context, store db.NotificationStore, logger *zap.Logger, supervisorID, id string) error {
	if err := store.DeleteNotification(ctx, supervisorID, id); err != nil {
		return translateLoadErr("notification", id, err)
	}
	logger.Debug("Notification deleted", zap.String("id", id))
	return nil
}

// DeleteNotifications clears the supervisor's inbox, or only its read notifications
func DeleteNotifications(ctx context.Context, store db.NotificationStore, logger *zap.Logger, supervisorID string, onlyRead bool) (int, error) {
	count, err := store.DeleteNotifications(ctx, supervisorID, onlyRead)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}

	logger.Info("Notifications deleted",
		zap.String("supervisor_id", supervisorID),
		zap.Bool("only_read", onlyRead),
		zap.Int("count", count))

	return count, nil
}
