package dto

import (
	"fmt"
	"time"

	"github.com/jakechorley/clinic-cover/internal/config"
	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/core/services"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date as UTC midnight
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", value, coverage.ErrInvalidRequest)
	}
	return t, nil
}

// ParseOptionalDate is ParseDate that maps "" to the zero time
func ParseOptionalDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return ParseDate(value)
}

// ── Requests ──

// SessionRequest is one session in a create request body
type SessionRequest struct {
	ClinicName string `json:"clinicName" binding:"required"`
	Date       string `json:"date"       binding:"required"`
	StartTime  string `json:"startTime"  binding:"required"`
	EndTime    string `json:"endTime"    binding:"required"`
	Notes      string `json:"notes"`
}

// ToInput combines the date and HH:MM clock values into session times
func (r SessionRequest) ToInput() (services.SessionInput, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return services.SessionInput{}, err
	}
	start, err := config.ParseClock(r.StartTime)
	if err != nil {
		return services.SessionInput{}, fmt.Errorf("session start time: %w: %w", err, coverage.ErrInvalidRequest)
	}
	end, err := config.ParseClock(r.EndTime)
	if err != nil {
		return services.SessionInput{}, fmt.Errorf("session end time: %w: %w", err, coverage.ErrInvalidRequest)
	}
	return services.SessionInput{
		ClinicName: r.ClinicName,
		Date:       date,
		StartTime:  date.Add(start),
		EndTime:    date.Add(end),
		Notes:      r.Notes,
	}, nil
}

// CreateRequestRequest creates a time off request. Sessions are either listed
// explicitly or expanded from the named configured clinics.
type CreateRequestRequest struct {
	StartDate string           `json:"startDate" binding:"required"`
	EndDate   string           `json:"endDate"   binding:"required"`
	Sessions  []SessionRequest `json:"sessions"  binding:"omitempty,dive"`
	Clinics   []string         `json:"clinics"`
}

// UpdateRequestDatesRequest moves a request's date range
type UpdateRequestDatesRequest struct {
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate"   binding:"required"`
}

// MarkReadRequest marks the listed notifications read, or all when empty
type MarkReadRequest struct {
	IDs []string `json:"ids"`
}

// AddSupervisorRequest registers a supervisor
type AddSupervisorRequest struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName" binding:"required"`
	Email       string `json:"email"       binding:"required"`
	Role        string `json:"role"`
}

// ── Query parameters ──

type UncoveredSessionsQuery struct {
	From   string `form:"from"`
	To     string `form:"to"`
	Clinic string `form:"clinic"`
	Limit  int    `form:"limit"`
}

type SessionRangeQuery struct {
	From     string `form:"from"     binding:"required"`
	To       string `form:"to"       binding:"required"`
	Coverage string `form:"coverage" binding:"omitempty,oneof=any covered uncovered"`
}

// CoverageFilter maps the coverage query value onto the store filter
func (q SessionRangeQuery) CoverageFilter() db.CoverageFilter {
	switch q.Coverage {
	case "covered":
		return db.CoverageCovered
	case "uncovered":
		return db.CoverageUncovered
	default:
		return db.CoverageAny
	}
}

type UpcomingSessionsQuery struct {
	Days int  `form:"days"`
	Mine bool `form:"mine"`
}

type RequestListQuery struct {
	SupervisorID string `form:"supervisorId"`
	StartFrom    string `form:"startFrom"`
	StartTo      string `form:"startTo"`
	Status       string `form:"status"`
}

type NotificationListQuery struct {
	Limit  int    `form:"limit"`
	Cursor string `form:"cursor"`
}

// ── Responses ──

type SupervisorResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Active      bool   `json:"active"`
}

type SessionResponse struct {
	ID                   string `json:"id"`
	RequestID            string `json:"requestId"`
	ClinicName           string `json:"clinicName"`
	Date                 string `json:"date"`
	StartTime            string `json:"startTime"`
	EndTime              string `json:"endTime"`
	Notes                string `json:"notes,omitempty"`
	CoveringSupervisorID string `json:"coveringSupervisorId,omitempty"`
	Covered              bool   `json:"covered"`
}

type RequestResponse struct {
	ID                     string                 `json:"id"`
	RequestingSupervisorID string                 `json:"requestingSupervisorId"`
	StartDate              string                 `json:"startDate"`
	EndDate                string                 `json:"endDate"`
	Status                 string                 `json:"status"`
	Progress               model.CoverageProgress `json:"progress"`
	CreatedAt              string                 `json:"createdAt"`
	Sessions               []SessionResponse      `json:"sessions"`
}

type EventResponse struct {
	ID                 string `json:"id"`
	SessionID          string `json:"sessionId"`
	ActingSupervisorID string `json:"actingSupervisorId"`
	Action             string `json:"action"`
	Timestamp          string `json:"timestamp"`
}

type RequestDetailResponse struct {
	Request RequestResponse `json:"request"`
	History []EventResponse `json:"history"`
}

type NotificationResponse struct {
	ID        string                 `json:"id"`
	Type      model.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      model.NotificationData `json:"data"`
	Read      bool                   `json:"read"`
	CreatedAt string                 `json:"createdAt"`
}

type NotificationPageResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	NextCursor    string                 `json:"nextCursor,omitempty"`
}

type DashboardStatsResponse struct {
	TotalRequests      int `json:"totalRequests"`
	MyRequests         int `json:"myRequests"`
	MyCoveredSessions  int `json:"myCoveredSessions"`
	UncoveredNextWeek  int `json:"uncoveredNextWeek"`
	UncoveredNextMonth int `json:"uncoveredNextMonth"`
	CoverageRate       int `json:"coverageRate"`
}

type UrgentSessionsResponse struct {
	Critical []SessionResponse `json:"critical"`
	Urgent   []SessionResponse `json:"urgent"`
	Total    int               `json:"total"`
}

type ActivityResponse struct {
	Event   EventResponse      `json:"event"`
	Actor   SupervisorResponse `json:"actor"`
	Session *SessionResponse   `json:"session,omitempty"`
}

type DeadlineResponse struct {
	Request    RequestResponse `json:"request"`
	Percentage int             `json:"percentage"`
}

type ProfileResponse struct {
	Supervisor          SupervisorResponse `json:"supervisor"`
	Requests            int                `json:"requests"`
	CoveredSessions     int                `json:"coveredSessions"`
	UnreadNotifications int                `json:"unreadNotifications"`
}

// ── Converters ──

func NewSupervisorResponse(s *model.Supervisor) SupervisorResponse {
	return SupervisorResponse{
		ID:          s.ID,
		DisplayName: s.DisplayName,
		Email:       s.Email,
		Role:        string(s.Role),
		Active:      s.Active,
	}
}

func NewSupervisorResponses(supervisors []model.Supervisor) []SupervisorResponse {
	out := make([]SupervisorResponse, len(supervisors))
	for i := range supervisors {
		out[i] = NewSupervisorResponse(&supervisors[i])
	}
	return out
}

func NewSessionResponse(s *model.ClinicSession) SessionResponse {
	return SessionResponse{
		ID:                   s.ID,
		RequestID:            s.RequestID,
		ClinicName:           s.ClinicName,
		Date:                 s.Date.Format(DateLayout),
		StartTime:            s.StartTime.Format(time.RFC3339),
		EndTime:              s.EndTime.Format(time.RFC3339),
		Notes:                s.Notes,
		CoveringSupervisorID: s.CoveringSupervisorID,
		Covered:              s.IsCovered(),
	}
}

func NewSessionResponses(sessions []model.ClinicSession) []SessionResponse {
	out := make([]SessionResponse, len(sessions))
	for i := range sessions {
		out[i] = NewSessionResponse(&sessions[i])
	}
	return out
}

// NewRequestResponse expects the status projection to have been applied
func NewRequestResponse(r *model.TimeOffRequest) RequestResponse {
	return RequestResponse{
		ID:                     r.ID,
		RequestingSupervisorID: r.RequestingSupervisorID,
		StartDate:              r.StartDate.Format(DateLayout),
		EndDate:                r.EndDate.Format(DateLayout),
		Status:                 string(r.Status),
		Progress:               r.Progress,
		CreatedAt:              r.CreatedAt.Format(time.RFC3339),
		Sessions:               NewSessionResponses(r.Sessions),
	}
}

func NewRequestResponses(requests []model.TimeOffRequest) []RequestResponse {
	out := make([]RequestResponse, len(requests))
	for i := range requests {
		out[i] = NewRequestResponse(&requests[i])
	}
	return out
}

func NewEventResponse(e *model.CoverageEvent) EventResponse {
	return EventResponse{
		ID:                 e.ID,
		SessionID:          e.SessionID,
		ActingSupervisorID: e.ActingSupervisorID,
		Action:             string(e.Action),
		Timestamp:          e.Timestamp.Format(time.RFC3339),
	}
}

func NewRequestDetailResponse(d *services.RequestDetail) RequestDetailResponse {
	history := make([]EventResponse, len(d.History))
	for i := range d.History {
		history[i] = NewEventResponse(&d.History[i])
	}
	return RequestDetailResponse{Request: NewRequestResponse(d.Request), History: history}
}

func NewNotificationResponses(notifications []model.Notification) []NotificationResponse {
	out := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		out[i] = NotificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Data:      n.Data,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
	}
	return out
}

func NewDashboardStatsResponse(s *services.DashboardStats) DashboardStatsResponse {
	return DashboardStatsResponse{
		TotalRequests:      s.TotalRequests,
		MyRequests:         s.MyRequests,
		MyCoveredSessions:  s.MyCoveredSessions,
		UncoveredNextWeek:  s.UncoveredNextWeek,
		UncoveredNextMonth: s.UncoveredNextMonth,
		CoverageRate:       s.CoverageRate,
	}
}

func NewUrgentSessionsResponse(u *services.UrgentSessions) UrgentSessionsResponse {
	return UrgentSessionsResponse{
		Critical: NewSessionResponses(u.Critical),
		Urgent:   NewSessionResponses(u.Urgent),
		Total:    u.Total,
	}
}

func NewActivityResponses(entries []services.ActivityEntry) []ActivityResponse {
	out := make([]ActivityResponse, len(entries))
	for i, e := range entries {
		out[i] = ActivityResponse{
			Event: NewEventResponse(&e.Event),
			Actor: NewSupervisorResponse(e.Actor),
		}
		if e.Session != nil {
			session := NewSessionResponse(e.Session)
			out[i].Session = &session
		}
	}
	return out
}

func NewDeadlineResponses(deadlines []services.RequestDeadline) []DeadlineResponse {
	out := make([]DeadlineResponse, len(deadlines))
	for i := range deadlines {
		out[i] = DeadlineResponse{
			Request:    NewRequestResponse(&deadlines[i].Request),
			Percentage: deadlines[i].Percentage,
		}
	}
	return out
}

func NewProfileResponse(p *services.SupervisorProfile) ProfileResponse {
	return ProfileResponse{
		Supervisor:          NewSupervisorResponse(p.Supervisor),
		Requests:            p.Requests,
		CoveredSessions:     p.CoveredSessions,
		UnreadNotifications: p.UnreadNotifications,
	}
}
