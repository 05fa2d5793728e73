package model

import "time"

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Supervisor represents a clinic supervisor who can request and provide cover
type Supervisor struct {
	ID          string
	DisplayName string
	Email       string
	Role        Role
	Active      bool
	CreatedAt   time.Time
}

// RequestStatus is the aggregate coverage status of a time off request
type RequestStatus string

const (
	StatusPending        RequestStatus = "PENDING"
	StatusPartialCovered RequestStatus = "PARTIAL_COVERED"
	StatusFullyCovered   RequestStatus = "FULLY_COVERED"
)

func (s RequestStatus) IsValid() bool {
	return s == StatusPending || s == StatusPartialCovered || s == StatusFullyCovered
}

// CoverageProgress counts the covered sessions of a request
type CoverageProgress struct {
	Total   int `json:"total"`
	Covered int `json:"covered"`
}

// TimeOffRequest is a batch of sessions a supervisor needs covered
type TimeOffRequest struct {
	ID                     string
	RequestingSupervisorID string
	StartDate              time.Time
	EndDate                time.Time
	CreatedAt              time.Time

	// Status is only a creation-time hint until the status projection has been applied
	Status   RequestStatus
	Progress CoverageProgress

	// Sessions ordered by date then start time
	Sessions []ClinicSession
}

// ClinicSession is a single clinic shift needing cover
type ClinicSession struct {
	ID         string
	RequestID  string
	ClinicName string
	Date       time.Time
	StartTime  time.Time
	EndTime    time.Time
	Notes      string

	// CoveringSupervisorID is empty while the session is uncovered
	CoveringSupervisorID string
}

// IsCovered reports whether a supervisor currently holds the session
func (s ClinicSession) IsCovered() bool {
	return s.CoveringSupervisorID != ""
}

type CoverageAction string

const (
	ActionClaimed  CoverageAction = "CLAIMED"
	ActionReleased CoverageAction = "RELEASED"
)

func (a CoverageAction) IsValid() bool {
	return a == ActionClaimed || a == ActionReleased
}

// CoverageEvent is an immutable audit record of a claim or release
type CoverageEvent struct {
	ID                 string
	SessionID          string
	ActingSupervisorID string
	Action             CoverageAction
	Timestamp          time.Time
}
