package coverage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
	"github.com/jakechorley/clinic-cover/pkg/notify"
)

// DefaultMaxConflictRetries is used when Options.MaxConflictRetries is not set
const DefaultMaxConflictRetries = 3

// Store defines the database operations the coordinator needs
type Store interface {
	WithTx(ctx context.Context, fn func(tx db.Tx) error) error
	GetSession(ctx context.Context, id string) (*model.ClinicSession, error)
	GetRequest(ctx context.Context, id string) (*model.TimeOffRequest, error)
}

// Options tunes coordinator behaviour
type Options struct {
	// MaxConflictRetries is how many times a transaction that lost a storage-level
	// race is re-run before the outcome is re-derived from a fresh read
	MaxConflictRetries int

	// NotifyOnRelease sends SESSION_RELEASED to the requester when cover is released
	NotifyOnRelease bool
}

// Coordinator runs the claim, release and request deletion protocols.
// Each call is one store transaction: the checks, the conditional write, the
// coverage event and the notifications commit together or not at all.
type Coordinator struct {
	store      Store
	dispatcher notify.Dispatcher
	logger     *zap.Logger
	opts       Options
	now        func() time.Time
}

// NewCoordinator creates a Coordinator
func NewCoordinator(store Store, dispatcher notify.Dispatcher, logger *zap.Logger, opts Options) *Coordinator {
	if opts.MaxConflictRetries <= 0 {
		opts.MaxConflictRetries = DefaultMaxConflictRetries
	}
	return &Coordinator{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// runTx runs fn in a transaction, re-running it while the store reports a conflict.
// A conflict that outlives the retry budget is returned so the caller can re-derive it.
func (c *Coordinator) runTx(ctx context.Context, op string, fn func(tx db.Tx) error) error {
	for attempt := 0; ; attempt++ {
		err := c.store.WithTx(ctx, fn)
		if err == nil || !errors.Is(err, db.ErrConflict) {
			return err
		}
		if attempt >= c.opts.MaxConflictRetries {
			c.logger.Warn("Giving up after repeated store conflicts",
				zap.String("op", op),
				zap.Int("attempts", attempt+1))
			return err
		}
		c.logger.Debug("Store conflict, retrying transaction",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
}

// actor loads the acting supervisor for message text. The identity is trusted,
// so a missing record only degrades the message.
func actor(ctx context.Context, tx db.Tx, id string) (*model.Supervisor, error) {
	s, err := tx.GetSupervisor(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return &model.Supervisor{ID: id}, nil
	}
	return s, err
}

func (c *Coordinator) timestamp() time.Time {
	return c.now().UTC()
}
