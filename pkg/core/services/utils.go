package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

// translateLoadErr maps a store miss onto coverage.ErrNotFound so callers have one taxonomy
func translateLoadErr(kind, id string, err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, coverage.ErrNotFound)
	}
	return fmt.Errorf("failed to fetch %s %s: %w", kind, id, err)
}

// resolveLimit applies a default to an unset limit and rejects values outside [1, max]
func resolveLimit(limit, def, max int) (int, error) {
	if limit == 0 {
		return def, nil
	}
	if limit < 1 || limit > max {
		return 0, fmt.Errorf("limit must be between 1 and %d, got %d: %w", max, limit, coverage.ErrInvalidRequest)
	}
	return limit, nil
}

func sortEventsNewestFirst(events []model.CoverageEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
}

// percentage rounds covered/total to the nearest whole percent
func percentage(covered, total int) int {
	if total == 0 {
		return 0
	}
	return (covered*200 + total) / (total * 2)
}
