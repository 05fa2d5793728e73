package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

// Dispatcher accepts notification requests on behalf of the coordinators.
// Enqueue runs inside the caller's transaction: an error aborts the caller's whole unit of work.
type Dispatcher interface {
	Enqueue(ctx context.Context, tx db.Tx, req model.NotificationRequest) error
}

// Outbox is the default Dispatcher. It stores each request as an unread
// notification row in the same transaction as the triggering change;
// delivery to the supervisor is left to whoever reads the inbox.
type Outbox struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewOutbox creates an Outbox dispatcher
func NewOutbox(logger *zap.Logger) *Outbox {
	return &Outbox{logger: logger, now: time.Now}
}

// Enqueue validates the request and writes it as a notification
func (o *Outbox) Enqueue(ctx context.Context, tx db.Tx, req model.NotificationRequest) error {
	if req.Recipient == "" {
		return fmt.Errorf("notification has no recipient")
	}
	if !req.Type.IsValid() {
		return fmt.Errorf("invalid notification type %d", int(req.Type))
	}

	notification := &model.Notification{
		ID:           uuid.New().String(),
		SupervisorID: req.Recipient,
		Type:         req.Type,
		Title:        req.Title,
		Message:      req.Message,
		Data:         req.Data,
		CreatedAt:    o.now().UTC(),
	}

	if err := tx.InsertNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to enqueue %s notification: %w", req.Type, err)
	}

	o.logger.Debug("Notification enqueued",
		zap.String("id", notification.ID),
		zap.String("type", req.Type.String()),
		zap.String("recipient", req.Recipient))

	return nil
}
