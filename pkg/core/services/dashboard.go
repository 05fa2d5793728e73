package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

const (
	urgentSessionLimit      = 10
	recentActivityLimit     = 20
	upcomingDeadlineLimit   = 10
	deadlineWindowDays      = 7
	maxConcurrentLookups    = 5
	defaultUrgentWindowDays = 7
)

// DashboardStore defines the database operations needed for the dashboard
type DashboardStore interface {
	GetSupervisor(ctx context.Context, id string) (*model.Supervisor, error)
	GetSession(ctx context.Context, id string) (*model.ClinicSession, error)
	ListRequests(ctx context.Context, filter db.RequestFilter) ([]model.TimeOffRequest, error)
	CountRequests(ctx context.Context, supervisorID string) (int, error)
	ListSessions(ctx context.Context, filter db.SessionFilter) ([]model.ClinicSession, error)
	CountSessions(ctx context.Context, filter db.SessionFilter) (int, error)
	ListCoverageEvents(ctx context.Context, filter db.EventFilter) ([]model.CoverageEvent, error)
}

// DashboardStats summarises coverage for one supervisor
type DashboardStats struct {
	TotalRequests      int
	MyRequests         int
	MyCoveredSessions  int
	UncoveredNextWeek  int
	UncoveredNextMonth int
	// CoverageRate is the rounded percentage of next week's sessions that are covered, 100 when there are none
	CoverageRate int
}

// UrgentSessions are uncovered sessions inside the urgent window
type UrgentSessions struct {
	// Critical sessions are today or tomorrow
	Critical []model.ClinicSession
	Urgent   []model.ClinicSession
	Total    int
}

// ActivityEntry is a coverage event with the records it refers to.
// Session is nil once the request it belonged to has been deleted.
type ActivityEntry struct {
	Event   model.CoverageEvent
	Actor   *model.Supervisor
	Session *model.ClinicSession
}

// RequestDeadline is a request starting soon with its coverage progress
type RequestDeadline struct {
	Request    model.TimeOffRequest
	Percentage int
}

// GetDashboardStats gathers the dashboard counters concurrently
func GetDashboardStats(ctx context.Context, store DashboardStore, logger *zap.Logger, now time.Time, supervisorID string) (*DashboardStats, error) {
	logger.Debug("Fetching dashboard stats", zap.String("supervisor_id", supervisorID))

	today := startOfDay(now)
	nextWeek := today.AddDate(0, 0, 7)
	nextMonth := today.AddDate(0, 0, 30)

	var stats DashboardStats
	var allNextWeek int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := store.CountRequests(gctx, "")
		stats.TotalRequests = n
		return wrapCount("requests", err)
	})
	g.Go(func() error {
		n, err := store.CountRequests(gctx, supervisorID)
		stats.MyRequests = n
		return wrapCount("own requests", err)
	})
	g.Go(func() error {
		n, err := store.CountSessions(gctx, db.SessionFilter{From: today, CoveringSupervisorID: supervisorID})
		stats.MyCoveredSessions = n
		return wrapCount("covered sessions", err)
	})
	g.Go(func() error {
		n, err := store.CountSessions(gctx, db.SessionFilter{From: today, To: nextWeek, Coverage: db.CoverageUncovered})
		stats.UncoveredNextWeek = n
		return wrapCount("uncovered sessions this week", err)
	})
	g.Go(func() error {
		n, err := store.CountSessions(gctx, db.SessionFilter{From: today, To: nextMonth, Coverage: db.CoverageUncovered})
		stats.UncoveredNextMonth = n
		return wrapCount("uncovered sessions this month", err)
	})
	g.Go(func() error {
		n, err := store.CountSessions(gctx, db.SessionFilter{From: today, To: nextWeek})
		allNextWeek = n
		return wrapCount("sessions this week", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.CoverageRate = 100
	if allNextWeek > 0 {
		stats.CoverageRate = percentage(allNextWeek-stats.UncoveredNextWeek, allNextWeek)
	}

	return &stats, nil
}

// GetUrgentSessions returns up to 10 uncovered sessions within windowDays of today
func GetUrgentSessions(ctx context.Context, store DashboardStore, logger *zap.Logger, now time.Time, windowDays int) (*UrgentSessions, error) {
	if windowDays <= 0 {
		windowDays = defaultUrgentWindowDays
	}

	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)

	sessions, err := store.ListSessions(ctx, db.SessionFilter{
		From:     today,
		To:       today.AddDate(0, 0, windowDays),
		Coverage: db.CoverageUncovered,
		Limit:    urgentSessionLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list urgent sessions: %w", err)
	}

	result := &UrgentSessions{Total: len(sessions)}
	for _, s := range sessions {
		if s.Date.After(tomorrow) {
			result.Urgent = append(result.Urgent, s)
		} else {
			result.Critical = append(result.Critical, s)
		}
	}

	logger.Debug("Urgent sessions",
		zap.Int("critical", len(result.Critical)),
		zap.Int("urgent", len(result.Urgent)))

	return result, nil
}

// GetRecentActivity returns the 20 newest coverage events with their actor and session
func GetRecentActivity(ctx context.Context, store DashboardStore, logger *zap.Logger) ([]ActivityEntry, error) {
	events, err := store.ListCoverageEvents(ctx, db.EventFilter{Limit: recentActivityLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list coverage events: %w", err)
	}

	entries := make([]ActivityEntry, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)

	for i, event := range events {
		i, event := i, event
		entries[i].Event = event
		g.Go(func() error {
			actor, err := store.GetSupervisor(gctx, event.ActingSupervisorID)
			switch {
			case errors.Is(err, db.ErrNotFound):
				actor = &model.Supervisor{ID: event.ActingSupervisorID}
			case err != nil:
				return fmt.Errorf("failed to fetch supervisor %s: %w", event.ActingSupervisorID, err)
			}
			entries[i].Actor = actor

			session, err := store.GetSession(gctx, event.SessionID)
			switch {
			case errors.Is(err, db.ErrNotFound):
				session = nil
			case err != nil:
				return fmt.Errorf("failed to fetch session %s: %w", event.SessionID, err)
			}
			entries[i].Session = session
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Recent activity", zap.Int("count", len(entries)))
	return entries, nil
}

// GetUpcomingDeadlines returns up to 10 requests starting in the next 7 days
func GetUpcomingDeadlines(ctx context.Context, store DashboardStore, logger *zap.Logger, now time.Time) ([]RequestDeadline, error) {
	today := startOfDay(now)

	requests, err := store.ListRequests(ctx, db.RequestFilter{
		StartFrom: today,
		StartTo:   today.AddDate(0, 0, deadlineWindowDays),
		Limit:     upcomingDeadlineLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming requests: %w", err)
	}

	deadlines := make([]RequestDeadline, len(requests))
	for i := range requests {
		coverage.ApplyStatus(&requests[i])
		deadlines[i] = RequestDeadline{
			Request:    requests[i],
			Percentage: percentage(requests[i].Progress.Covered, requests[i].Progress.Total),
		}
	}

	logger.Debug("Upcoming deadlines", zap.Int("count", len(deadlines)))
	return deadlines, nil
}

func wrapCount(what string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to count %s: %w", what, err)
	}
	return nil
}
