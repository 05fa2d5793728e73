package notify

import (
	"fmt"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
)

const sessionDateLayout = "Mon Jan 02 2006"

// NewRequest builds the notification sent to every other supervisor when a request is posted
func NewRequest(recipient string, requester *model.Supervisor, request *model.TimeOffRequest) model.NotificationRequest {
	return model.NotificationRequest{
		Recipient: recipient,
		Type:      model.NotificationNewRequest,
		Title:     "New Coverage Request",
		Message:   fmt.Sprintf("%s has requested coverage for %d session(s)", displayName(requester), len(request.Sessions)),
		Data:      model.NotificationData{RequestID: request.ID},
	}
}

// SessionClaimed builds the notification sent to the requester when one of their sessions is claimed
func SessionClaimed(requesterID string, claimer *model.Supervisor, session *model.ClinicSession) model.NotificationRequest {
	return model.NotificationRequest{
		Recipient: requesterID,
		Type:      model.NotificationSessionClaimed,
		Title:     "Session Covered",
		Message: fmt.Sprintf("%s has covered your %s session on %s",
			displayName(claimer), session.ClinicName, session.Date.Format(sessionDateLayout)),
		Data: model.NotificationData{RequestID: session.RequestID, SessionID: session.ID},
	}
}

// RequestCovered builds the notification sent when the last open session of a request is claimed
func RequestCovered(requesterID, requestID string) model.NotificationRequest {
	return model.NotificationRequest{
		Recipient: requesterID,
		Type:      model.NotificationRequestCovered,
		Title:     "All Sessions Covered",
		Message:   "All sessions for your time off request have been covered!",
		Data:      model.NotificationData{RequestID: requestID},
	}
}

// SessionReleased builds the notification sent to the requester when cover for a session is withdrawn
func SessionReleased(requesterID string, releaser *model.Supervisor, session *model.ClinicSession) model.NotificationRequest {
	return model.NotificationRequest{
		Recipient: requesterID,
		Type:      model.NotificationSessionReleased,
		Title:     "Session Needs Cover Again",
		Message: fmt.Sprintf("%s has released your %s session on %s",
			displayName(releaser), session.ClinicName, session.Date.Format(sessionDateLayout)),
		Data: model.NotificationData{RequestID: session.RequestID, SessionID: session.ID},
	}
}

func displayName(s *model.Supervisor) string {
	if s == nil {
		return "A supervisor"
	}
	if s.DisplayName != "" {
		return s.DisplayName
	}
	if s.Email != "" {
		return s.Email
	}
	return s.ID
}
