package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

// failingCountStore fails session counts and delegates everything else
type failingCountStore struct {
	*db.MemoryDB
}

func (s failingCountStore) CountSessions(ctx context.Context, filter db.SessionFilter) (int, error) {
	return 0, errors.New("connection reset")
}

func seedDashboard(t *testing.T) *db.MemoryDB {
	t.Helper()
	store := newSeededStore(t)
	// Next week: four sessions, three covered
	insertRequest(t, store, "req-a", "alice", testNow,
		testSession("a-1", 0, "Eastside Clinic", ""),
		testSession("a-2", 1, "Eastside Clinic", "bob"),
		testSession("a-3", 2, "Eastside Clinic", "bob"))
	insertRequest(t, store, "req-b", "bob", testNow,
		testSession("b-1", 3, "Northgate Clinic", "alice"),
		testSession("b-2", 20, "Northgate Clinic", ""),
		testSession("b-3", 40, "Northgate Clinic", ""))
	insertRequest(t, store, "req-old", "alice", testNow.Add(-240*time.Hour),
		testSession("old-1", -10, "Eastside Clinic", ""))
	return store
}

func TestGetDashboardStats(t *testing.T) {
	stats, err := GetDashboardStats(context.Background(), seedDashboard(t), zap.NewNop(), testNow, "alice")
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalRequests)
	assert.Equal(t, 2, stats.MyRequests)
	assert.Equal(t, 1, stats.MyCoveredSessions)
	assert.Equal(t, 1, stats.UncoveredNextWeek)
	assert.Equal(t, 2, stats.UncoveredNextMonth)
	assert.Equal(t, 75, stats.CoverageRate)
}

func TestGetDashboardStats_NoSessionsIsFullCoverage(t *testing.T) {
	stats, err := GetDashboardStats(context.Background(), newSeededStore(t), zap.NewNop(), testNow, "alice")
	require.NoError(t, err)
	assert.Equal(t, 100, stats.CoverageRate)
	assert.Zero(t, stats.TotalRequests)
}

func TestGetDashboardStats_StoreError(t *testing.T) {
	store := failingCountStore{MemoryDB: seedDashboard(t)}

	_, err := GetDashboardStats(context.Background(), store, zap.NewNop(), testNow, "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGetUrgentSessions(t *testing.T) {
	store := newSeededStore(t)
	insertRequest(t, store, "req-u", "alice", testNow,
		testSession("today", 0, "Eastside Clinic", ""),
		testSession("tomorrow", 1, "Eastside Clinic", ""),
		testSession("covered", 1, "Eastside Clinic", "bob"),
		testSession("day-3", 3, "Eastside Clinic", ""),
		testSession("day-9", 9, "Eastside Clinic", ""))

	urgent, err := GetUrgentSessions(context.Background(), store, zap.NewNop(), testNow, 7)
	require.NoError(t, err)

	assert.Equal(t, 3, urgent.Total)
	assert.Equal(t, []string{"today", "tomorrow"}, sessionIDs(urgent.Critical))
	assert.Equal(t, []string{"day-3"}, sessionIDs(urgent.Urgent))

	urgent, err = GetUrgentSessions(context.Background(), store, zap.NewNop(), testNow, 14)
	require.NoError(t, err)
	assert.Equal(t, 4, urgent.Total)
}

func TestGetUrgentSessions_CapsAtTen(t *testing.T) {
	store := newSeededStore(t)
	var sessions []model.ClinicSession
	for i := 0; i < 12; i++ {
		s := testSession(string(rune('a'+i)), 2, "Eastside Clinic", "")
		s.StartTime = s.StartTime.Add(time.Duration(i) * time.Minute)
		sessions = append(sessions, s)
	}
	insertRequest(t, store, "req-many", "alice", testNow, sessions...)

	urgent, err := GetUrgentSessions(context.Background(), store, zap.NewNop(), testNow, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, urgent.Total)
	assert.Len(t, urgent.Urgent, 10)
}

func TestGetRecentActivity(t *testing.T) {
	store := seedDashboard(t)
	appendEvent(t, store, model.CoverageEvent{ID: "e-1", SessionID: "a-2", ActingSupervisorID: "bob", Action: model.ActionClaimed, Timestamp: testNow})
	appendEvent(t, store, model.CoverageEvent{ID: "e-2", SessionID: "deleted-session", ActingSupervisorID: "carol", Action: model.ActionClaimed, Timestamp: testNow.Add(time.Minute)})
	appendEvent(t, store, model.CoverageEvent{ID: "e-3", SessionID: "b-1", ActingSupervisorID: "ghost", Action: model.ActionClaimed, Timestamp: testNow.Add(2 * time.Minute)})

	entries, err := GetRecentActivity(context.Background(), store, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "e-3", entries[0].Event.ID)
	assert.Equal(t, "ghost", entries[0].Actor.ID)
	require.NotNil(t, entries[0].Session)
	assert.Equal(t, "Northgate Clinic", entries[0].Session.ClinicName)

	assert.Equal(t, "Carol White", entries[1].Actor.DisplayName)
	assert.Nil(t, entries[1].Session)

	assert.Equal(t, "Bob Jones", entries[2].Actor.DisplayName)
	assert.Equal(t, "a-2", entries[2].Session.ID)
}

func TestGetUpcomingDeadlines(t *testing.T) {
	store := seedDashboard(t)

	deadlines, err := GetUpcomingDeadlines(context.Background(), store, zap.NewNop(), testNow)
	require.NoError(t, err)
	require.Len(t, deadlines, 2)

	assert.Equal(t, "req-a", deadlines[0].Request.ID)
	assert.Equal(t, 67, deadlines[0].Percentage)
	assert.Equal(t, model.StatusPartialCovered, deadlines[0].Request.Status)

	assert.Equal(t, "req-b", deadlines[1].Request.ID)
	assert.Equal(t, 33, deadlines[1].Percentage)
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		covered, total, want int
	}{
		{0, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13},
		{3, 3, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, percentage(tt.covered, tt.total), "%d/%d", tt.covered, tt.total)
	}
}
