package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
	"github.com/jakechorley/clinic-cover/pkg/notify"
)

// rejectingDispatcher fails every enqueue
type rejectingDispatcher struct{}

func (rejectingDispatcher) Enqueue(ctx context.Context, tx db.Tx, req model.NotificationRequest) error {
	return errors.New("outbox full")
}

func validCreateInput() CreateRequestInput {
	return CreateRequestInput{
		RequestingSupervisorID: "alice",
		StartDate:              dayOffset(3),
		EndDate:                dayOffset(4),
		Sessions: []SessionInput{
			{ClinicName: "Eastside Clinic", Date: dayOffset(3), StartTime: dayOffset(3).Add(9 * time.Hour), EndTime: dayOffset(3).Add(13 * time.Hour)},
			{ClinicName: "Northgate Clinic", Date: dayOffset(4), StartTime: dayOffset(4).Add(14 * time.Hour), EndTime: dayOffset(4).Add(18 * time.Hour), Notes: "Bring badge"},
		},
	}
}

func TestCreateRequest_Success(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t)
	logger := zap.NewNop()

	request, err := CreateRequest(ctx, store, notify.NewOutbox(logger), logger, validCreateInput())
	require.NoError(t, err)
	require.NotEmpty(t, request.ID)
	assert.Equal(t, model.StatusPending, request.Status)
	assert.Equal(t, model.CoverageProgress{Total: 2, Covered: 0}, request.Progress)

	stored, err := store.GetRequest(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, stored.Sessions, 2)
	assert.Equal(t, "Eastside Clinic", stored.Sessions[0].ClinicName)
	assert.Equal(t, "Bring badge", stored.Sessions[1].Notes)
	for _, s := range stored.Sessions {
		assert.Equal(t, request.ID, s.RequestID)
		assert.False(t, s.IsCovered())
	}

	// Every other active supervisor is told, the requester and inactive eve are not
	for _, id := range []string{"bob", "carol", "dana"} {
		inbox, err := store.ListNotifications(ctx, db.NotificationFilter{SupervisorID: id})
		require.NoError(t, err)
		require.Len(t, inbox, 1, id)
		assert.Equal(t, model.NotificationNewRequest, inbox[0].Type)
		assert.Equal(t, "Alice Smith has requested coverage for 2 session(s)", inbox[0].Message)
		assert.Equal(t, request.ID, inbox[0].Data.RequestID)
	}
	for _, id := range []string{"alice", "eve"} {
		count, err := store.CountNotifications(ctx, db.NotificationFilter{SupervisorID: id})
		require.NoError(t, err)
		assert.Zero(t, count, id)
	}
}

func TestCreateRequest_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *CreateRequestInput)
	}{
		{
			name:   "no sessions",
			mutate: func(in *CreateRequestInput) { in.Sessions = nil },
		},
		{
			name:   "start after end",
			mutate: func(in *CreateRequestInput) { in.StartDate = dayOffset(5) },
		},
		{
			name:   "missing requester",
			mutate: func(in *CreateRequestInput) { in.RequestingSupervisorID = "" },
		},
		{
			name:   "session without clinic name",
			mutate: func(in *CreateRequestInput) { in.Sessions[0].ClinicName = "" },
		},
		{
			name: "session ends before it starts",
			mutate: func(in *CreateRequestInput) {
				in.Sessions[1].EndTime = in.Sessions[1].StartTime.Add(-time.Hour)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newSeededStore(t)
			logger := zap.NewNop()
			input := validCreateInput()
			tt.mutate(&input)

			_, err := CreateRequest(context.Background(), store, notify.NewOutbox(logger), logger, input)
			assert.ErrorIs(t, err, coverage.ErrInvalidRequest)

			count, err := store.CountRequests(context.Background(), "")
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestCreateRequest_UnknownRequester(t *testing.T) {
	store := newSeededStore(t)
	logger := zap.NewNop()
	input := validCreateInput()
	input.RequestingSupervisorID = "zed"

	_, err := CreateRequest(context.Background(), store, notify.NewOutbox(logger), logger, input)
	assert.ErrorIs(t, err, coverage.ErrNotFound)
}

func TestCreateRequest_DispatchFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t)

	_, err := CreateRequest(ctx, store, rejectingDispatcher{}, zap.NewNop(), validCreateInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outbox full")

	count, err := store.CountRequests(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, count)

	sessions, err := store.ListSessions(ctx, db.SessionFilter{})
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
