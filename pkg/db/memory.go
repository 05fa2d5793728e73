package db

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
)

type memoryState struct {
	supervisors   map[string]model.Supervisor
	requests      map[string]model.TimeOffRequest
	sessions      map[string]model.ClinicSession
	events        []model.CoverageEvent
	notifications []model.Notification
}

func newMemoryState() memoryState {
	return memoryState{
		supervisors: map[string]model.Supervisor{},
		requests:    map[string]model.TimeOffRequest{},
		sessions:    map[string]model.ClinicSession{},
	}
}

func (s memoryState) clone() memoryState {
	c := memoryState{
		supervisors:   make(map[string]model.Supervisor, len(s.supervisors)),
		requests:      make(map[string]model.TimeOffRequest, len(s.requests)),
		sessions:      make(map[string]model.ClinicSession, len(s.sessions)),
		events:        make([]model.CoverageEvent, len(s.events)),
		notifications: make([]model.Notification, len(s.notifications)),
	}
	for k, v := range s.supervisors {
		c.supervisors[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	copy(c.events, s.events)
	copy(c.notifications, s.notifications)
	return c
}

// MemoryDB is an in-process Store. Transactions are serialised by a single
// writer lock and run against a private copy of the state which replaces the
// live state only when the transaction function succeeds.
type MemoryDB struct {
	mu    sync.RWMutex
	state memoryState
}

// NewMemoryDB creates an empty in-memory database
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{state: newMemoryState()}
}

// Close is a no-op for the in-memory database
func (m *MemoryDB) Close() {}

// WithTx runs fn inside a serialised transaction
func (m *MemoryDB) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	working := m.state.clone()
	if err := fn(&memoryTx{state: &working}); err != nil {
		return err
	}
	m.state = working
	return nil
}

// InsertSupervisor adds a supervisor record
func (m *MemoryDB) InsertSupervisor(ctx context.Context, supervisor *model.Supervisor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.state.supervisors[supervisor.ID]; exists {
		return fmt.Errorf("supervisor %s already exists", supervisor.ID)
	}
	m.state.supervisors[supervisor.ID] = *supervisor
	return nil
}

// GetSupervisor retrieves a supervisor by ID
func (m *MemoryDB) GetSupervisor(ctx context.Context, id string) (*model.Supervisor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return getSupervisor(&m.state, id)
}

// ListSupervisors returns supervisors ordered by display name
func (m *MemoryDB) ListSupervisors(ctx context.Context, activeOnly bool) ([]model.Supervisor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return listSupervisors(&m.state, activeOnly), nil
}

// GetRequest retrieves a request with its sessions
func (m *MemoryDB) GetRequest(ctx context.Context, id string) (*model.TimeOffRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return getRequest(&m.state, id)
}

// ListRequests returns requests (with sessions) matching the filter
func (m *MemoryDB) ListRequests(ctx context.Context, filter RequestFilter) ([]model.TimeOffRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var requests []model.TimeOffRequest
	for _, r := range m.state.requests {
		if filter.SupervisorID != "" && r.RequestingSupervisorID != filter.SupervisorID {
			continue
		}
		if !filter.StartFrom.IsZero() && r.StartDate.Before(filter.StartFrom) {
			continue
		}
		if !filter.StartTo.IsZero() && r.StartDate.After(filter.StartTo) {
			continue
		}
		if !filter.EndBy.IsZero() && r.EndDate.After(filter.EndBy) {
			continue
		}
		r.Sessions = sessionsForRequest(&m.state, r.ID)
		requests = append(requests, r)
	}

	sort.SliceStable(requests, func(i, j int) bool {
		if filter.NewestFirst {
			if !requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
				return requests[i].CreatedAt.After(requests[j].CreatedAt)
			}
			return requests[i].ID > requests[j].ID
		}
		if !requests[i].StartDate.Equal(requests[j].StartDate) {
			return requests[i].StartDate.Before(requests[j].StartDate)
		}
		return requests[i].ID < requests[j].ID
	})

	if filter.Limit > 0 && len(requests) > filter.Limit {
		requests = requests[:filter.Limit]
	}
	return requests, nil
}

// CountRequests counts all requests, or only those of one supervisor
func (m *MemoryDB) CountRequests(ctx context.Context, supervisorID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, r := range m.state.requests {
		if supervisorID == "" || r.RequestingSupervisorID == supervisorID {
			count++
		}
	}
	return count, nil
}

// GetSession retrieves a session by ID
func (m *MemoryDB) GetSession(ctx context.Context, id string) (*model.ClinicSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return getSession(&m.state, id)
}

// ListSessions returns sessions matching the filter ordered by date and start time
func (m *MemoryDB) ListSessions(ctx context.Context, filter SessionFilter) ([]model.ClinicSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := filterSessions(&m.state, filter)
	if filter.Limit > 0 && len(sessions) > filter.Limit {
		sessions = sessions[:filter.Limit]
	}
	return sessions, nil
}

// CountSessions counts sessions matching the filter (Limit is ignored)
func (m *MemoryDB) CountSessions(ctx context.Context, filter SessionFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(filterSessions(&m.state, filter)), nil
}

// ClinicNames returns distinct clinic names containing the search text
func (m *MemoryDB) ClinicNames(ctx context.Context, contains string, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for _, s := range m.state.sessions {
		if seen[s.ClinicName] || !strings.Contains(strings.ToLower(s.ClinicName), strings.ToLower(contains)) {
			continue
		}
		seen[s.ClinicName] = true
		names = append(names, s.ClinicName)
	}
	sort.Strings(names)

	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

// ListCoverageEvents returns coverage events newest first
func (m *MemoryDB) ListCoverageEvents(ctx context.Context, filter EventFilter) ([]model.CoverageEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []model.CoverageEvent
	for i := len(m.state.events) - 1; i >= 0; i-- {
		e := m.state.events[i]
		if filter.SessionID != "" && e.SessionID != filter.SessionID {
			continue
		}
		events = append(events, e)
		if filter.Limit > 0 && len(events) == filter.Limit {
			break
		}
	}
	return events, nil
}

// ListNotifications returns a supervisor's notifications newest first
func (m *MemoryDB) ListNotifications(ctx context.Context, filter NotificationFilter) ([]model.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := filterNotifications(&m.state, filter)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// CountNotifications counts notifications matching the filter (paging is ignored)
func (m *MemoryDB) CountNotifications(ctx context.Context, filter NotificationFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(filterNotifications(&m.state, filter)), nil
}

// MarkNotificationsRead marks notifications read and returns how many changed
func (m *MemoryDB) MarkNotificationsRead(ctx context.Context, supervisorID string, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	count := 0
	for i, n := range m.state.notifications {
		if n.SupervisorID != supervisorID || n.Read {
			continue
		}
		if len(ids) > 0 && !wanted[n.ID] {
			continue
		}
		m.state.notifications[i].Read = true
		count++
	}
	return count, nil
}

// DeleteNotification deletes one of the supervisor's notifications
func (m *MemoryDB) DeleteNotification(ctx context.Context, supervisorID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, n := range m.state.notifications {
		if n.ID == id && n.SupervisorID == supervisorID {
			m.state.notifications = append(m.state.notifications[:i], m.state.notifications[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, ErrNotFound)
}

// DeleteNotifications deletes all (or only read) notifications of a supervisor
func (m *MemoryDB) DeleteNotifications(ctx context.Context, supervisorID string, onlyRead bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.state.notifications[:0]
	count := 0
	for _, n := range m.state.notifications {
		if n.SupervisorID == supervisorID && (!onlyRead || n.Read) {
			count++
			continue
		}
		kept = append(kept, n)
	}
	m.state.notifications = kept
	return count, nil
}

// memoryTx operates on the private copy owned by a running transaction
type memoryTx struct {
	state *memoryState
}

func (t *memoryTx) GetSupervisor(ctx context.Context, id string) (*model.Supervisor, error) {
	return getSupervisor(t.state, id)
}

func (t *memoryTx) ListSupervisors(ctx context.Context, activeOnly bool) ([]model.Supervisor, error) {
	return listSupervisors(t.state, activeOnly), nil
}

func (t *memoryTx) GetRequest(ctx context.Context, id string) (*model.TimeOffRequest, error) {
	return getRequest(t.state, id)
}

func (t *memoryTx) InsertRequest(ctx context.Context, request *model.TimeOffRequest) error {
	if _, exists := t.state.requests[request.ID]; exists {
		return fmt.Errorf("request %s already exists", request.ID)
	}
	stored := *request
	stored.Sessions = nil
	t.state.requests[request.ID] = stored

	for _, s := range request.Sessions {
		if _, exists := t.state.sessions[s.ID]; exists {
			return fmt.Errorf("session %s already exists", s.ID)
		}
		s.RequestID = request.ID
		t.state.sessions[s.ID] = s
	}
	return nil
}

func (t *memoryTx) UpdateRequestDates(ctx context.Context, id string, start, end time.Time) error {
	r, ok := t.state.requests[id]
	if !ok {
		return fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	r.StartDate = start
	r.EndDate = end
	t.state.requests[id] = r
	return nil
}

func (t *memoryTx) DeleteRequest(ctx context.Context, id string) error {
	if _, ok := t.state.requests[id]; !ok {
		return fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	delete(t.state.requests, id)
	for sid, s := range t.state.sessions {
		if s.RequestID == id {
			delete(t.state.sessions, sid)
		}
	}
	return nil
}

func (t *memoryTx) GetSessionForUpdate(ctx context.Context, id string) (*model.ClinicSession, error) {
	// The whole transaction already holds the writer lock
	return getSession(t.state, id)
}

func (t *memoryTx) ListSessionsByRequest(ctx context.Context, requestID string) ([]model.ClinicSession, error) {
	return sessionsForRequest(t.state, requestID), nil
}

func (t *memoryTx) SetCoverage(ctx context.Context, sessionID, expectedHolder, newHolder string) (*model.ClinicSession, error) {
	s, ok := t.state.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if s.CoveringSupervisorID != expectedHolder {
		return nil, fmt.Errorf("session %s holder changed: %w", sessionID, ErrConflict)
	}
	s.CoveringSupervisorID = newHolder
	t.state.sessions[sessionID] = s
	return &s, nil
}

func (t *memoryTx) AppendCoverageEvent(ctx context.Context, event *model.CoverageEvent) error {
	t.state.events = append(t.state.events, *event)
	return nil
}

func (t *memoryTx) InsertNotification(ctx context.Context, notification *model.Notification) error {
	t.state.notifications = append(t.state.notifications, *notification)
	return nil
}

func getSupervisor(state *memoryState, id string) (*model.Supervisor, error) {
	s, ok := state.supervisors[id]
	if !ok {
		return nil, fmt.Errorf("supervisor %s: %w", id, ErrNotFound)
	}
	return &s, nil
}

func listSupervisors(state *memoryState, activeOnly bool) []model.Supervisor {
	var supervisors []model.Supervisor
	for _, s := range state.supervisors {
		if activeOnly && !s.Active {
			continue
		}
		supervisors = append(supervisors, s)
	}
	sort.Slice(supervisors, func(i, j int) bool {
		if supervisors[i].DisplayName != supervisors[j].DisplayName {
			return supervisors[i].DisplayName < supervisors[j].DisplayName
		}
		return supervisors[i].ID < supervisors[j].ID
	})
	return supervisors
}

func getRequest(state *memoryState, id string) (*model.TimeOffRequest, error) {
	r, ok := state.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	r.Sessions = sessionsForRequest(state, id)
	return &r, nil
}

func getSession(state *memoryState, id string) (*model.ClinicSession, error) {
	s, ok := state.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return &s, nil
}

func sessionsForRequest(state *memoryState, requestID string) []model.ClinicSession {
	var sessions []model.ClinicSession
	for _, s := range state.sessions {
		if s.RequestID == requestID {
			sessions = append(sessions, s)
		}
	}
	sortSessions(sessions)
	return sessions
}

func filterSessions(state *memoryState, filter SessionFilter) []model.ClinicSession {
	var sessions []model.ClinicSession
	for _, s := range state.sessions {
		if !filter.From.IsZero() && s.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && s.Date.After(filter.To) {
			continue
		}
		switch filter.Coverage {
		case CoverageCovered:
			if !s.IsCovered() {
				continue
			}
		case CoverageUncovered:
			if s.IsCovered() {
				continue
			}
		}
		if filter.ClinicContains != "" &&
			!strings.Contains(strings.ToLower(s.ClinicName), strings.ToLower(filter.ClinicContains)) {
			continue
		}
		if filter.CoveringSupervisorID != "" && s.CoveringSupervisorID != filter.CoveringSupervisorID {
			continue
		}
		if filter.InvolvingSupervisorID != "" {
			owner := state.requests[s.RequestID].RequestingSupervisorID
			if owner != filter.InvolvingSupervisorID && s.CoveringSupervisorID != filter.InvolvingSupervisorID {
				continue
			}
		}
		sessions = append(sessions, s)
	}
	sortSessions(sessions)
	return sessions
}

func filterNotifications(state *memoryState, filter NotificationFilter) []model.Notification {
	var matched []model.Notification
	// Walk backwards so equal timestamps keep newest-inserted first
	for i := len(state.notifications) - 1; i >= 0; i-- {
		n := state.notifications[i]
		if n.SupervisorID != filter.SupervisorID {
			continue
		}
		if filter.UnreadOnly && n.Read {
			continue
		}
		matched = append(matched, n)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}

func sortSessions(sessions []model.ClinicSession) {
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		return a.ID < b.ID
	})
}
