package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEmployeeRegistered  EventType = "employee.registered"
	EventLoginCompleted      EventType = "login.completed"
	EventLoginFailed         EventType = "login.failed"
	EventOrganisationCreated EventType = "organisation.created"
	EventOrganisationUpdated EventType = "organisation.updated"
	EventOrganisationDeleted EventType = "organisation.deleted"
)

// AllEventTypes lists every event the service publishes.
var AllEventTypes = []EventType{
	EventEmployeeRegistered,
	EventLoginCompleted,
	EventLoginFailed,
	EventOrganisationCreated,
	EventOrganisationUpdated,
	EventOrganisationDeleted,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Actor     string    `json:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, actor string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// EmployeeRegisteredPayload is published on an employee's first login.
type EmployeeRegisteredPayload struct {
	EmployeeID int64  `json:"employee_id"`
	Email      string `json:"email"`
}

// LoginCompletedPayload is published when a credential was issued.
type LoginCompletedPayload struct {
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginFailedPayload is published when a login round-trip did not yield a credential.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// OrganisationPayload identifies the organisation an outreach change touched.
type OrganisationPayload struct {
	OrganisationID int64  `json:"organisation_id"`
	Name           string `json:"name,omitempty"`
}
