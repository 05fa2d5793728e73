package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

const (
	defaultSessionLimit   = 50
	maxSessionLimit       = 100
	defaultUpcomingDays   = 7
	maxUpcomingDays       = 30
	maxClinicSuggestions  = 10
	maxClinicSearchLength = 50
)

// SessionStore defines the database operations needed for session views
type SessionStore interface {
	ListSessions(ctx context.Context, filter db.SessionFilter) ([]model.ClinicSession, error)
	ClinicNames(ctx context.Context, contains string, limit int) ([]string, error)
}

// UncoveredQuery filters ListUncoveredSessions
type UncoveredQuery struct {
	From       time.Time
	To         time.Time
	ClinicName string
	// Limit defaults to 50 and may not exceed 100
	Limit int
}

// ListUncoveredSessions returns sessions nobody has claimed yet, soonest first
func ListUncoveredSessions(ctx context.Context, store SessionStore, logger *zap.Logger, query UncoveredQuery) ([]model.ClinicSession, error) {
	limit, err := resolveLimit(query.Limit, defaultSessionLimit, maxSessionLimit)
	if err != nil {
		return nil, err
	}

	logger.Debug("Listing uncovered sessions",
		zap.Time("from", query.From),
		zap.Time("to", query.To),
		zap.String("clinic", query.ClinicName),
		zap.Int("limit", limit))

	sessions, err := store.ListSessions(ctx, db.SessionFilter{
		From:           query.From,
		To:             query.To,
		Coverage:       db.CoverageUncovered,
		ClinicContains: query.ClinicName,
		Limit:          limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list uncovered sessions: %w", err)
	}
	return sessions, nil
}

// ListSessionsInRange returns every session between from and to, optionally only covered or only uncovered ones
func ListSessionsInRange(ctx context.Context, store SessionStore, logger *zap.Logger, from, to time.Time, filter db.CoverageFilter) ([]model.ClinicSession, error) {
	if from.IsZero() || to.IsZero() {
		return nil, fmt.Errorf("both ends of the date range are required: %w", coverage.ErrInvalidRequest)
	}
	if from.After(to) {
		return nil, fmt.Errorf("start date must be before end date: %w", coverage.ErrInvalidRequest)
	}

	logger.Debug("Listing sessions in range", zap.Time("from", from), zap.Time("to", to))

	sessions, err := store.ListSessions(ctx, db.SessionFilter{From: from, To: to, Coverage: filter})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// ListUpcomingSessions returns sessions in the next days (default 7, at most 30).
// With onlyMine set it keeps the sessions the supervisor requested or is covering.
func ListUpcomingSessions(
	ctx context.Context,
	store SessionStore,
	logger *zap.Logger,
	now time.Time,
	days int,
	supervisorID string,
	onlyMine bool,
) ([]model.ClinicSession, error) {
	if days == 0 {
		days = defaultUpcomingDays
	}
	if days < 1 || days > maxUpcomingDays {
		return nil, fmt.Errorf("days must be between 1 and %d, got %d: %w", maxUpcomingDays, days, coverage.ErrInvalidRequest)
	}

	filter := db.SessionFilter{
		From: startOfDay(now),
		To:   startOfDay(now).AddDate(0, 0, days),
	}
	if onlyMine {
		filter.InvolvingSupervisorID = supervisorID
	}

	logger.Debug("Listing upcoming sessions",
		zap.Int("days", days),
		zap.Bool("only_mine", onlyMine))

	sessions, err := store.ListSessions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming sessions: %w", err)
	}
	return sessions, nil
}

// ListMyCoverage returns the sessions from today onward the supervisor is covering
func ListMyCoverage(ctx context.Context, store SessionStore, logger *zap.Logger, now time.Time, supervisorID string) ([]model.ClinicSession, error) {
	logger.Debug("Listing own coverage", zap.String("supervisor_id", supervisorID))

	sessions, err := store.ListSessions(ctx, db.SessionFilter{
		From:                 startOfDay(now),
		CoveringSupervisorID: supervisorID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list covered sessions: %w", err)
	}
	return sessions, nil
}

// ClinicNameSuggestions returns up to 10 distinct clinic names containing search
func ClinicNameSuggestions(ctx context.Context, store SessionStore, logger *zap.Logger, search string) ([]string, error) {
	search = strings.TrimSpace(search)
	if search == "" || len(search) > maxClinicSearchLength {
		return nil, fmt.Errorf("search must be 1 to %d characters: %w", maxClinicSearchLength, coverage.ErrInvalidRequest)
	}

	names, err := store.ClinicNames(ctx, search, maxClinicSuggestions)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clinic names: %w", err)
	}

	logger.Debug("Clinic name suggestions", zap.String("search", search), zap.Int("count", len(names)))
	return names, nil
}
