package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

func TestTranslateLoadErr(t *testing.T) {
	err := translateLoadErr("session", "s-1", db.ErrNotFound)
	assert.ErrorIs(t, err, coverage.ErrNotFound)
	assert.Contains(t, err.Error(), "session s-1")

	boom := errors.New("connection reset")
	err = translateLoadErr("session", "s-1", boom)
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, coverage.ErrNotFound))
}

func TestResolveLimit(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		want    int
		wantErr bool
	}{
		{name: "unset uses default", limit: 0, want: 50},
		{name: "lower bound", limit: 1, want: 1},
		{name: "upper bound", limit: 100, want: 100},
		{name: "negative", limit: -1, wantErr: true},
		{name: "too large", limit: 101, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveLimit(tt.limit, 50, 100)
			if tt.wantErr {
				assert.ErrorIs(t, err, coverage.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortEventsNewestFirst(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	events := []model.CoverageEvent{
		{ID: "e-1", Timestamp: base},
		{ID: "e-3", Timestamp: base.Add(2 * time.Hour)},
		{ID: "e-2", Timestamp: base.Add(time.Hour)},
	}

	sortEventsNewestFirst(events)

	assert.Equal(t, "e-3", events[0].ID)
	assert.Equal(t, "e-2", events[1].ID)
	assert.Equal(t, "e-1", events[2].ID)
}
