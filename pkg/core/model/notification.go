package model

import (
	"fmt"
	"time"
)

// NotificationType is the closed set of notifications the system raises
type NotificationType int

const (
	NotificationNewRequest NotificationType = iota + 1
	NotificationSessionClaimed
	NotificationRequestCovered
	NotificationSessionReleased
)

var notificationTypeNames = map[NotificationType]string{
	NotificationNewRequest:      "NEW_REQUEST",
	NotificationSessionClaimed:  "SESSION_CLAIMED",
	NotificationRequestCovered:  "REQUEST_COVERED",
	NotificationSessionReleased: "SESSION_RELEASED",
}

func (t NotificationType) String() string {
	if name, ok := notificationTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("NotificationType(%d)", int(t))
}

func (t NotificationType) IsValid() bool {
	_, ok := notificationTypeNames[t]
	return ok
}

// ParseNotificationType converts a stored name back into a NotificationType
func ParseNotificationType(name string) (NotificationType, error) {
	for t, n := range notificationTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown notification type %q", name)
}

func (t NotificationType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid notification type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *NotificationType) UnmarshalText(text []byte) error {
	parsed, err := ParseNotificationType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// NotificationData references the request and session a notification is about
type NotificationData struct {
	RequestID string `json:"requestId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Notification is a message addressed to a single supervisor
type Notification struct {
	ID           string
	SupervisorID string
	Type         NotificationType
	Title        string
	Message      string
	Data         NotificationData
	Read         bool
	CreatedAt    time.Time
}

// NotificationRequest is what the coordinators hand to a dispatcher
type NotificationRequest struct {
	Recipient string
	Type      NotificationType
	Title     string
	Message   string
	Data      NotificationData
}
