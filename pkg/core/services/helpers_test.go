package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

// testNow is a Monday morning
var testNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

// dayOffset returns midnight n days after testNow
func dayOffset(n int) time.Time {
	return startOfDay(testNow).AddDate(0, 0, n)
}

func testSession(id string, days int, clinic, holder string) model.ClinicSession {
	date := dayOffset(days)
	return model.ClinicSession{
		ID:                   id,
		ClinicName:           clinic,
		Date:                 date,
		StartTime:            date.Add(9 * time.Hour),
		EndTime:              date.Add(13 * time.Hour),
		CoveringSupervisorID: holder,
	}
}

// newSeededStore returns a store with five supervisors: alice, bob and carol
// are users, dana is an admin and eve is inactive
func newSeededStore(t *testing.T) *db.MemoryDB {
	t.Helper()
	store := db.NewMemoryDB()
	for _, s := range []model.Supervisor{
		{ID: "alice", DisplayName: "Alice Smith", Email: "alice@example.com", Role: model.RoleUser, Active: true},
		{ID: "bob", DisplayName: "Bob Jones", Email: "bob@example.com", Role: model.RoleUser, Active: true},
		{ID: "carol", DisplayName: "Carol White", Email: "carol@example.com", Role: model.RoleUser, Active: true},
		{ID: "dana", DisplayName: "Dana Admin", Email: "dana@example.com", Role: model.RoleAdmin, Active: true},
		{ID: "eve", DisplayName: "Eve Gone", Email: "eve@example.com", Role: model.RoleUser, Active: false},
	} {
		s := s
		require.NoError(t, store.InsertSupervisor(context.Background(), &s))
	}
	return store
}

func insertRequest(t *testing.T, store *db.MemoryDB, id, owner string, created time.Time, sessions ...model.ClinicSession) {
	t.Helper()
	start, end := sessions[0].Date, sessions[0].Date
	for _, s := range sessions {
		if s.Date.Before(start) {
			start = s.Date
		}
		if s.Date.After(end) {
			end = s.Date
		}
	}

	err := store.WithTx(context.Background(), func(tx db.Tx) error {
		return tx.InsertRequest(context.Background(), &model.TimeOffRequest{
			ID:                     id,
			RequestingSupervisorID: owner,
			StartDate:              start,
			EndDate:                end,
			CreatedAt:              created,
			Status:                 model.StatusPending,
			Sessions:               sessions,
		})
	})
	require.NoError(t, err)
}

func appendEvent(t *testing.T, store *db.MemoryDB, event model.CoverageEvent) {
	t.Helper()
	err := store.WithTx(context.Background(), func(tx db.Tx) error {
		return tx.AppendCoverageEvent(context.Background(), &event)
	})
	require.NoError(t, err)
}

func insertNotification(t *testing.T, store *db.MemoryDB, n model.Notification) {
	t.Helper()
	err := store.WithTx(context.Background(), func(tx db.Tx) error {
		return tx.InsertNotification(context.Background(), &n)
	})
	require.NoError(t, err)
}
