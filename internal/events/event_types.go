package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/semprecheio/auth-api/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded       EventType = "login_succeeded"
	EventLoginFailed          EventType = "login_failed"
	EventLogout               EventType = "logout"
	EventPasswordChanged      EventType = "password_changed"
	EventAccountCreated       EventType = "account_created"
	EventAccountStatusChanged EventType = "account_status_changed"
)

// Event represents an auth event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AccountID string      `json:"account_id,omitempty"`
	Email     string      `json:"email,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with an id and the current time.
func NewEvent(eventType EventType, accountID, email string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		AccountID: accountID,
		Email:     email,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	Role       domain.Role `json:"role"`
	RememberMe bool        `json:"remember_me"`
	Encrypted  bool        `json:"encrypted"`
}

// LoginFailedPayload payload. Reason is internal only and never shown to the caller.
type LoginFailedPayload struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// AccountStatusChangedPayload payload.
type AccountStatusChangedPayload struct {
	Active  bool   `json:"active"`
	ActorID string `json:"actor_id"`
}

// AccountCreatedPayload payload.
type AccountCreatedPayload struct {
	Role    domain.Role `json:"role"`
	ActorID string      `json:"actor_id"`
}
