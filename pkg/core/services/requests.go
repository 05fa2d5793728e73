package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

// RequestStore defines the database operations needed for request views
type RequestStore interface {
	GetRequest(ctx context.Context, id string) (*model.TimeOffRequest, error)
	ListRequests(ctx context.Context, filter db.RequestFilter) ([]model.TimeOffRequest, error)
	ListCoverageEvents(ctx context.Context, filter db.EventFilter) ([]model.CoverageEvent, error)
}

// RequestDetail is a request with the coverage history of its sessions
type RequestDetail struct {
	Request *model.TimeOffRequest
	// History is newest first
	History []model.CoverageEvent
}

// RequestQuery filters ListRequests. Zero values mean no restriction.
type RequestQuery struct {
	SupervisorID string
	StartFrom    time.Time
	StartTo      time.Time
	Status       model.RequestStatus
}

// GetRequest returns a request with its sessions, projected status and coverage history
func GetRequest(ctx context.Context, store RequestStore, logger *zap.Logger, id string) (*RequestDetail, error) {
	logger.Debug("Fetching request", zap.String("request_id", id))

	request, err := store.GetRequest(ctx, id)
	if err != nil {
		return nil, translateLoadErr("request", id, err)
	}
	coverage.ApplyStatus(request)

	var history []model.CoverageEvent
	for _, s := range request.Sessions {
		events, err := store.ListCoverageEvents(ctx, db.EventFilter{SessionID: s.ID})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch coverage history: %w", err)
		}
		history = append(history, events...)
	}
	sortEventsNewestFirst(history)

	return &RequestDetail{Request: request, History: history}, nil
}

// ListRequests returns requests ordered by start date with their status projected at read time
func ListRequests(ctx context.Context, store RequestStore, logger *zap.Logger, query RequestQuery) ([]model.TimeOffRequest, error) {
	if query.Status != "" && !query.Status.IsValid() {
		return nil, fmt.Errorf("unknown status %q: %w", query.Status, coverage.ErrInvalidRequest)
	}

	logger.Debug("Listing requests",
		zap.String("supervisor_id", query.SupervisorID),
		zap.String("status", string(query.Status)))

	requests, err := store.ListRequests(ctx, db.RequestFilter{
		SupervisorID: query.SupervisorID,
		StartFrom:    query.StartFrom,
		StartTo:      query.StartTo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	coverage.ApplyStatuses(requests)

	if query.Status == "" {
		return requests, nil
	}

	// Filter on the projected status; the stored one may be stale
	filtered := requests[:0]
	for _, r := range requests {
		if r.Status == query.Status {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// ListMyRequests returns the supervisor's requests newest first
func ListMyRequests(ctx context.Context, store RequestStore, logger *zap.Logger, supervisorID string) ([]model.TimeOffRequest, error) {
	logger.Debug("Listing own requests", zap.String("supervisor_id", supervisorID))

	requests, err := store.ListRequests(ctx, db.RequestFilter{SupervisorID: supervisorID, NewestFirst: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return coverage.ApplyStatuses(requests), nil
}
