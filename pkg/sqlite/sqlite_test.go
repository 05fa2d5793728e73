package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
	"github.com/jakechorley/clinic-cover/pkg/notify"
)

var (
	_ db.Store = (*DB)(nil)
	_ db.Tx    = (*sqliteTx)(nil)
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func at(d, hour int) time.Time {
	return time.Date(2025, 3, d, hour, 0, 0, 0, time.UTC)
}

// setupTestDB opens a migrated database at path and closes it when the test ends
func setupTestDB(t *testing.T, path string) *DB {
	t.Helper()
	ctx := context.Background()

	store, err := NewDB(ctx, path)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.RunMigrations(ctx))
	return store
}

// seedTestDB adds supervisors alice, bob and carol plus alice's request req-1 with sessions s-1..s-3
func seedTestDB(t *testing.T, store *DB) {
	t.Helper()
	ctx := context.Background()

	for _, s := range []model.Supervisor{
		{ID: "alice", DisplayName: "Alice Smith", Email: "alice@example.com", Role: model.RoleUser, Active: true, CreatedAt: day(1)},
		{ID: "bob", DisplayName: "Bob Jones", Email: "bob@example.com", Role: model.RoleUser, Active: true, CreatedAt: day(1)},
		{ID: "carol", DisplayName: "Carol White", Email: "carol@example.com", Role: model.RoleUser, Active: false, CreatedAt: day(1)},
	} {
		s := s
		require.NoError(t, store.InsertSupervisor(ctx, &s))
	}

	err := store.WithTx(ctx, func(tx db.Tx) error {
		return tx.InsertRequest(ctx, &model.TimeOffRequest{
			ID:                     "req-1",
			RequestingSupervisorID: "alice",
			StartDate:              day(10),
			EndDate:                day(12),
			Status:                 model.StatusPending,
			CreatedAt:              at(1, 9),
			Sessions: []model.ClinicSession{
				{ID: "s-3", ClinicName: "Northgate Clinic", Date: day(12), StartTime: at(12, 14), EndTime: at(12, 18)},
				{ID: "s-1", ClinicName: "Eastside Clinic", Date: day(10), StartTime: at(10, 9), EndTime: at(10, 13), Notes: "bring keys"},
				{ID: "s-2", ClinicName: "Eastside Clinic", Date: day(11), StartTime: at(11, 9), EndTime: at(11, 13)},
			},
		})
	})
	require.NoError(t, err)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	store := setupTestDB(t, ":memory:")
	require.NoError(t, store.RunMigrations(context.Background()))

	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	files, err := migrationFiles()
	require.NoError(t, err)
	assert.Equal(t, len(files), count)
}

func TestDB_GetRequestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t, ":memory:")
	seedTestDB(t, store)

	request, err := store.GetRequest(ctx, "req-1")
	require.NoError(t, err)

	assert.Equal(t, "alice", request.RequestingSupervisorID)
	assert.True(t, request.StartDate.Equal(day(10)))
	assert.True(t, request.EndDate.Equal(day(12)))
	assert.True(t, request.CreatedAt.Equal(at(1, 9)))
	require.Len(t, request.Sessions, 3)

	// Sessions come back in date order regardless of insert order
	assert.Equal(t, "s-1", request.Sessions[0].ID)
	assert.Equal(t, "s-2", request.Sessions[1].ID)
	assert.Equal(t, "s-3", request.Sessions[2].ID)
	assert.Equal(t, "bring keys", request.Sessions[0].Notes)
	assert.True(t, request.Sessions[0].StartTime.Equal(at(10, 9)))
	assert.False(t, request.Sessions[0].IsCovered())
}

func TestDB_GetMissing(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t, ":memory:")

	_, err := store.GetRequest(ctx, "nope")
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = store.GetSession(ctx, "nope")
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = store.GetSupervisor(ctx, "nope")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDB_ListSupervisors(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t, ":memory:")
	seedTestDB(t, store)

	all, err := store.ListSupervisors(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := store.ListSupervisors(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Alice Smith", active[0].DisplayName)
	assert.Equal(t, model.RoleUser, active[0].Role)
}

func TestDB_WithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t, ":memory:")
	seedTestDB(t, store)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx db.Tx) error {
		if _, err := tx.SetCoverage(ctx, "s-1", "", "bob"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	session, err := store.GetSession(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, session.CoveringSupervisorID)
}

func TestDB_SetCoverageConditional(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t, ":memory:")
	seedTestDB(t, store)

	err := store.WithTx(ctx, func(tx db.Tx) error {
		session, err := tx.SetCoverage(ctx, "s-1", "", "bob")
		require.NoError(t, err)
		assert.Equal(t, "bob", session.CoveringSupervisorID)

		_, err = tx.SetCoverage(ctx, "s-1", "", "alice")
		assert.ErrorIs(t, err, db.ErrConflict)

		_, err = tx.SetCoverage(ctx, "missing", "", "bob")
		assert.ErrorIs(t, err, db.ErrNotFound)

		session, err = tx.SetCoverage(ctx, "s-1", "bob", "")
		require.NoError(t, err)
		assert.False(t, session.IsCovered())
		return nil
	})
	require.NoError(t, err)
}

func TestDB_ListSessionsFilters(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t, ":memory:")
	seedTestDB(t, store)

	require.NoError(t, store.WithTx(ctx, func(tx db.Tx) error {
		_, err := tx.SetCoverage(ctx, "s-2", "", "bob")
		return err
	}))

	tests := []struct {
		name   string
		filter db.SessionFilter
		want   []string
	}{
		{name: "all", filter: db.SessionFilter{}, want: []string{"s-1", "s-2", "s-3"}},
		{name: "from", filter: db.SessionFilter{From: day(11)}, want: []string{"s-2", "s-3"}},
		{name: "to", filter: db.SessionFilter{To: day(11)}, want: []string{"s-1", "s-2"}},
		{name: "uncovered", filter: db.SessionFilter{Coverage: db.CoverageUncovered}, want: []string{"s-1", "s-3"}},
		{name: "covered", filter: db.SessionFilter{Coverage: db.CoverageCovered}, want: []string{"s-2"}},
		{name: "clinic search ignores case", filter: db.SessionFilter{ClinicContains: "NORTH"}, want: []string{"s-3"}},
		{name: "covering", filter: db.SessionFilter{CoveringSupervisorID: "bob"}, want: []string{"s-2"}},
		{name: "involving requester", filter: db.SessionFilter{InvolvingSupervisorID: "alice"}, want: []string{"s-1", "s-2", "s-3"}},
		{name: "involving coverer", filter: db.SessionFilter{InvolvingSupervisorID: "bob"}, want: []string{"s-2"}},
		{name: "limit", filter: db.SessionFilter{Limit: 1}, want: []string{"s-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions, err := store.ListSessions(ctx, tt.filter)
			require.NoError(t, err)

			var ids []string
			for _, s := range sessions {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.want, ids)

			count, err := store.CountSessions(ctx, db.SessionFilter{
				From:                  tt.filter.From,
				To:                    tt.filter.To,
				Coverage:              tt.filter.Coverage,
				ClinicContains:        tt.filter.ClinicContains,
				CoveringSupervisorID:  tt.filter.CoveringSupervisorID,
				InvolvingSupervisorID: tt.filter.InvolvingSupervisorID,
			})
			require.NoError(t, err)
			if tt.filter.Limit == 0 {
				assert.Equal(t, len(tt.want), count)
			}
		})
	}
}

func TestDB_ListRequests(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t, ":memory:")
	seedTestDB(t, store)

	require.NoError(t, store.WithTx(ctx, func(tx db.Tx) error {
		return tx.InsertRequest(ctx, &model.TimeOffRequest{
			ID:                     "req-2",
			RequestingSupervisorID: "bob",
			StartDate:              day(20),
			EndDate:                day(20),
			Status:                 model.StatusPending,
			CreatedAt:              at(2, 9),
			Sessions: []model.ClinicSession{
				{ID: "s-9", ClinicName: "Eastside Clinic", Date: day(20), StartTime: at(20, 9), EndTime: at(20, 13)},
			},
		})
	}))

	byStart, err := store.ListRequests(ctx, db.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, byStart, 2)
	assert.Equal(t, "req-1", byStart[0].ID)
	assert.Len(t, byStart[0].Sessions, 3)
	assert.Len(t, byStart[1].Sessions, 1)

	newest, err := store.ListRequests(ctx, db.RequestFilter{NewestFirst: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, newest, 1)
	assert.Equal(t, "req-2", newest[0].ID)

	mine, err := store.ListRequests(ctx, db.RequestFilter{SupervisorID: "alice", StartFrom: day(1), StartTo: day(15)})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "req-1", mine[0].ID)

	count, err := store.CountRequests(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.CountRequests(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDB_UpdateAndDeleteRequest(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t, ":memory:")
	seedTestDB(t, store)

	require.NoError(t, store.WithTx(ctx, func(tx db.Tx) error {
		if err := tx.UpdateRequestDates(ctx, "req-1", day(9), day(13)); err != nil {
			return err
		}
		return tx.AppendCoverageEvent(ctx, &model.CoverageEvent{
			ID: "e-1", SessionID: "s-1", ActingSupervisorID: "bob", Action: model.ActionClaimed, Timestamp: at(5, 10),
		})
	}))

	request, err := store.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, request.StartDate.Equal(day(9)))
	assert.True(t, request.EndDate.Equal(day(13)))

	require.NoError(t, store.WithTx(ctx, func(tx db.Tx) error {
		return tx.DeleteRequest(ctx, "req-1")
	}))

	_, err = store.GetSession(ctx, "s-1")
	assert.ErrorIs(t, err, db.ErrNotFound)

	// The audit trail outlives the request
	events, err := store.ListCoverageEvents(ctx, db.EventFilter{SessionID: "s-1"})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	err = store.WithTx(ctx, func(tx db.Tx) error {
		return tx.DeleteRequest(ctx, "req-1")
	})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDB_Notifications(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t, ":memory:")
	seedTestDB(t, store)

	require.NoError(t, store.WithTx(ctx, func(tx db.Tx) error {
		for i := 1; i <= 3; i++ {
			err := tx.InsertNotification(ctx, &model.Notification{
				ID:           fmt.Sprintf("n-%d", i),
				SupervisorID: "alice",
				Type:         model.NotificationSessionClaimed,
				Title:        "Session Covered",
				Message:      "covered",
				Data:         model.NotificationData{RequestID: "req-1", SessionID: "s-1"},
				CreatedAt:    at(i, 9),
			})
			if err != nil {
				return err
			}
		}
		return nil
	}))

	page, err := store.ListNotifications(ctx, db.NotificationFilter{SupervisorID: "alice", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "n-3", page[0].ID)
	assert.Equal(t, model.NotificationSessionClaimed, page[0].Type)
	assert.Equal(t, "s-1", page[0].Data.SessionID)

	rest, err := store.ListNotifications(ctx, db.NotificationFilter{SupervisorID: "alice", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "n-1", rest[0].ID)

	marked, err := store.MarkNotificationsRead(ctx, "alice", []string{"n-1", "n-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	unread, err := store.CountNotifications(ctx, db.NotificationFilter{SupervisorID: "alice", UnreadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	// Only another supervisor's id: nothing changes
	marked, err = store.MarkNotificationsRead(ctx, "bob", []string{"n-3"})
	require.NoError(t, err)
	assert.Zero(t, marked)

	deleted, err := store.DeleteNotifications(ctx, "alice", true)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	assert.ErrorIs(t, store.DeleteNotification(ctx, "bob", "n-3"), db.ErrNotFound)
	require.NoError(t, store.DeleteNotification(ctx, "alice", "n-3"))
}

func TestDB_ClinicNames(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t, ":memory:")
	seedTestDB(t, store)

	names, err := store.ClinicNames(ctx, "clinic", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Eastside Clinic", "Northgate Clinic"}, names)

	names, err = store.ClinicNames(ctx, "east", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Eastside Clinic"}, names)
}

func TestCoordinator_ConcurrentClaimsOnFile(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t, filepath.Join(t.TempDir(), "cover.db"))
	seedTestDB(t, store)

	claimers := []string{"c-1", "c-2", "c-3", "c-4", "c-5"}
	for _, id := range claimers {
		require.NoError(t, store.InsertSupervisor(ctx, &model.Supervisor{
			ID: id, DisplayName: id, Email: id + "@example.com", Role: model.RoleUser, Active: true, CreatedAt: day(1),
		}))
	}

	logger := zap.NewNop()
	c := coverage.NewCoordinator(store, notify.NewOutbox(logger), logger, coverage.Options{})

	var wg sync.WaitGroup
	errs := make([]error, len(claimers))
	for i, id := range claimers {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = c.Claim(ctx, "s-1", id)
		}(i, id)
	}
	wg.Wait()

	var winners int
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, coverage.ErrAlreadyCovered)
	}
	assert.Equal(t, 1, winners)

	events, err := store.ListCoverageEvents(ctx, db.EventFilter{SessionID: "s-1"})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	claimed, err := store.CountNotifications(ctx, db.NotificationFilter{SupervisorID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 1, claimed)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantConflict bool
	}{
		{name: "busy", err: sqlite3.Error{Code: sqlite3.ErrBusy}, wantConflict: true},
		{name: "locked", err: sqlite3.Error{Code: sqlite3.ErrLocked}, wantConflict: true},
		{name: "wrapped busy", err: fmt.Errorf("failed to set coverage: %w", sqlite3.Error{Code: sqlite3.ErrBusy}), wantConflict: true},
		{name: "constraint", err: sqlite3.Error{Code: sqlite3.ErrConstraint}, wantConflict: false},
		{name: "plain error", err: errors.New("boom"), wantConflict: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapError(tt.err)
			assert.Equal(t, tt.wantConflict, errors.Is(mapped, db.ErrConflict))
		})
	}
}

func TestBuildDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on", buildDSN(":memory:"))
	assert.Equal(t, "file:x.db?mode=rwc&_txlock=immediate&_busy_timeout=5000&_foreign_keys=on", buildDSN("file:x.db?mode=rwc"))
	assert.True(t, isMemory(":memory:"))
	assert.True(t, isMemory("file:test?mode=memory"))
	assert.False(t, isMemory("/var/lib/cover.db"))
}

func TestConditions(t *testing.T) {
	c := &conditions{}
	assert.Empty(t, c.where())

	c.add(`a = ?`, 1)
	c.add(`(b = ? OR c = ?)`, "x", "x")
	c.add(`d IS NULL`)
	suffix := c.limit(0, 20)

	assert.Equal(t, " WHERE a = ? AND (b = ? OR c = ?) AND d IS NULL", c.where())
	assert.Equal(t, " LIMIT ? OFFSET ?", suffix)
	assert.Equal(t, []any{1, "x", "x", -1, 20}, c.args)
}
