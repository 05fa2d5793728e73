package db

import (
	"context"
	"errors"
	"time"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
)

var (
	// ErrNotFound is returned when the referenced record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a transaction lost a race at the storage layer:
	// a serialization failure, a busy database or a conditional write whose
	// expected value no longer matched. Callers may retry the whole transaction.
	ErrConflict = errors.New("transaction conflict")
)

// CoverageFilter restricts session listings by coverage state
type CoverageFilter int

const (
	CoverageAny CoverageFilter = iota
	CoverageCovered
	CoverageUncovered
)

// SessionFilter narrows session listings. Zero values mean "no restriction".
// Results are ordered by date then start time.
type SessionFilter struct {
	From           time.Time
	To             time.Time
	Coverage       CoverageFilter
	ClinicContains string

	// CoveringSupervisorID matches sessions held by this supervisor
	CoveringSupervisorID string

	// InvolvingSupervisorID matches sessions requested by or covered by this supervisor
	InvolvingSupervisorID string

	Limit int
}

// RequestFilter narrows request listings. Zero values mean "no restriction".
type RequestFilter struct {
	SupervisorID string
	StartFrom    time.Time
	StartTo      time.Time
	EndBy        time.Time

	// NewestFirst orders by creation time descending instead of start date ascending
	NewestFirst bool
	Limit       int
}

// EventFilter narrows coverage event listings (newest first)
type EventFilter struct {
	SessionID string
	Limit     int
}

// NotificationFilter narrows notification listings (newest first)
type NotificationFilter struct {
	SupervisorID string
	UnreadOnly   bool
	Offset       int
	Limit        int
}

// Tx is the transactional view of the store. Everything done through a Tx
// commits together or not at all.
type Tx interface {
	GetSupervisor(ctx context.Context, id string) (*model.Supervisor, error)
	ListSupervisors(ctx context.Context, activeOnly bool) ([]model.Supervisor, error)

	// GetRequest returns the request with its sessions
	GetRequest(ctx context.Context, id string) (*model.TimeOffRequest, error)
	InsertRequest(ctx context.Context, request *model.TimeOffRequest) error
	UpdateRequestDates(ctx context.Context, id string, start, end time.Time) error
	DeleteRequest(ctx context.Context, id string) error

	// GetSessionForUpdate reads a session and holds it against concurrent writers
	// until the transaction ends
	GetSessionForUpdate(ctx context.Context, id string) (*model.ClinicSession, error)
	ListSessionsByRequest(ctx context.Context, requestID string) ([]model.ClinicSession, error)

	// SetCoverage changes the covering supervisor only if it still equals expectedHolder
	// (empty string meaning uncovered). Returns ErrConflict when it does not.
	SetCoverage(ctx context.Context, sessionID, expectedHolder, newHolder string) (*model.ClinicSession, error)

	AppendCoverageEvent(ctx context.Context, event *model.CoverageEvent) error
	InsertNotification(ctx context.Context, notification *model.Notification) error
}

// SupervisorStore defines supervisor read and seed operations
type SupervisorStore interface {
	GetSupervisor(ctx context.Context, id string) (*model.Supervisor, error)
	ListSupervisors(ctx context.Context, activeOnly bool) ([]model.Supervisor, error)
	InsertSupervisor(ctx context.Context, supervisor *model.Supervisor) error
}

// NotificationStore defines notification inbox operations
type NotificationStore interface {
	ListNotifications(ctx context.Context, filter NotificationFilter) ([]model.Notification, error)
	CountNotifications(ctx context.Context, filter NotificationFilter) (int, error)

	// MarkNotificationsRead marks the given notifications read, or every unread one when ids is empty
	MarkNotificationsRead(ctx context.Context, supervisorID string, ids []string) (int, error)
	DeleteNotification(ctx context.Context, supervisorID, id string) error
	DeleteNotifications(ctx context.Context, supervisorID string, onlyRead bool) (int, error)
}

// Store defines all database operations.
// postgres.DB, sqlite.DB and the in-memory db.MemoryDB implement this interface.
type Store interface {
	SupervisorStore
	NotificationStore

	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetRequest(ctx context.Context, id string) (*model.TimeOffRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]model.TimeOffRequest, error)
	CountRequests(ctx context.Context, supervisorID string) (int, error)

	GetSession(ctx context.Context, id string) (*model.ClinicSession, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]model.ClinicSession, error)
	CountSessions(ctx context.Context, filter SessionFilter) (int, error)
	ClinicNames(ctx context.Context, contains string, limit int) ([]string, error)

	ListCoverageEvents(ctx context.Context, filter EventFilter) ([]model.CoverageEvent, error)

	Close()
}
