package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

func sessionIDs(sessions []model.ClinicSession) []string {
	var ids []string
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return ids
}

// seedSessions gives alice a request with sessions yesterday, today, in three days
// and in ten days, and bob one with a session tomorrow
func seedSessions(t *testing.T) *db.MemoryDB {
	t.Helper()
	store := newSeededStore(t)
	insertRequest(t, store, "req-a", "alice", testNow,
		testSession("past", -1, "Eastside Clinic", ""),
		testSession("today", 0, "Eastside Clinic", "bob"),
		testSession("soon", 3, "Northgate Clinic", ""),
		testSession("later", 10, "Westside Clinic", "carol"))
	insertRequest(t, store, "req-b", "bob", testNow,
		testSession("bob-1", 1, "North End Clinic", "carol"))
	return store
}

func TestListUncoveredSessions(t *testing.T) {
	ctx := context.Background()
	store := seedSessions(t)
	logger := zap.NewNop()

	sessions, err := ListUncoveredSessions(ctx, store, logger, UncoveredQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"past", "soon"}, sessionIDs(sessions))

	sessions, err = ListUncoveredSessions(ctx, store, logger, UncoveredQuery{From: dayOffset(0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"soon"}, sessionIDs(sessions))

	sessions, err = ListUncoveredSessions(ctx, store, logger, UncoveredQuery{ClinicName: "eastside"})
	require.NoError(t, err)
	assert.Equal(t, []string{"past"}, sessionIDs(sessions))

	sessions, err = ListUncoveredSessions(ctx, store, logger, UncoveredQuery{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"past"}, sessionIDs(sessions))
}

func TestListUncoveredSessions_LimitBounds(t *testing.T) {
	for _, limit := range []int{-1, 101} {
		t.Run(fmt.Sprintf("limit %d", limit), func(t *testing.T) {
			_, err := ListUncoveredSessions(context.Background(), seedSessions(t), zap.NewNop(), UncoveredQuery{Limit: limit})
			assert.ErrorIs(t, err, coverage.ErrInvalidRequest)
		})
	}
}

func TestListSessionsInRange(t *testing.T) {
	ctx := context.Background()
	store := seedSessions(t)
	logger := zap.NewNop()

	tests := []struct {
		name   string
		filter db.CoverageFilter
		want   []string
	}{
		{name: "all", filter: db.CoverageAny, want: []string{"today", "bob-1", "soon"}},
		{name: "covered", filter: db.CoverageCovered, want: []string{"today", "bob-1"}},
		{name: "uncovered", filter: db.CoverageUncovered, want: []string{"soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions, err := ListSessionsInRange(ctx, store, logger, dayOffset(0), dayOffset(7), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sessionIDs(sessions))
		})
	}

	_, err := ListSessionsInRange(ctx, store, logger, dayOffset(7), dayOffset(0), db.CoverageAny)
	assert.ErrorIs(t, err, coverage.ErrInvalidRequest)
}

func TestListUpcomingSessions(t *testing.T) {
	ctx := context.Background()
	store := seedSessions(t)
	logger := zap.NewNop()

	sessions, err := ListUpcomingSessions(ctx, store, logger, testNow, 0, "carol", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"today", "bob-1", "soon"}, sessionIDs(sessions))

	sessions, err = ListUpcomingSessions(ctx, store, logger, testNow, 30, "carol", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob-1", "later"}, sessionIDs(sessions))

	// Requested by bob or covered by bob
	sessions, err = ListUpcomingSessions(ctx, store, logger, testNow, 7, "bob", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"today", "bob-1"}, sessionIDs(sessions))

	_, err = ListUpcomingSessions(ctx, store, logger, testNow, 31, "bob", false)
	assert.ErrorIs(t, err, coverage.ErrInvalidRequest)
}

func TestListMyCoverage(t *testing.T) {
	ctx := context.Background()
	store := seedSessions(t)

	sessions, err := ListMyCoverage(ctx, store, zap.NewNop(), testNow, "carol")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob-1", "later"}, sessionIDs(sessions))

	sessions, err = ListMyCoverage(ctx, store, zap.NewNop(), testNow, "dana")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestClinicNameSuggestions(t *testing.T) {
	ctx := context.Background()
	store := seedSessions(t)

	names, err := ClinicNameSuggestions(ctx, store, zap.NewNop(), "north")
	require.NoError(t, err)
	assert.Equal(t, []string{"North End Clinic", "Northgate Clinic"}, names)

	names, err = ClinicNameSuggestions(ctx, store, zap.NewNop(), "clinic")
	require.NoError(t, err)
	assert.Len(t, names, 4)

	_, err = ClinicNameSuggestions(ctx, store, zap.NewNop(), "  ")
	assert.ErrorIs(t, err, coverage.ErrInvalidRequest)
}

func TestClinicNameSuggestions_CapsAtTen(t *testing.T) {
	store := newSeededStore(t)
	var sessions []model.ClinicSession
	for i := 0; i < 15; i++ {
		sessions = append(sessions, testSession(fmt.Sprintf("s-%02d", i), i, fmt.Sprintf("Clinic %02d", i), ""))
	}
	insertRequest(t, store, "req-many", "alice", testNow, sessions...)

	names, err := ClinicNameSuggestions(context.Background(), store, zap.NewNop(), "clinic")
	require.NoError(t, err)
	assert.Len(t, names, 10)
	assert.Equal(t, "Clinic 00", names[0])
}
