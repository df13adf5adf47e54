package events

import (
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTriageCompleted     EventType = "triage_completed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id,omitempty"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	DepartmentID *string `json:"department_id,omitempty"`
	Title        string  `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketAssignedPayload payload. OldAssigneeID is nil when the ticket was
// previously unassigned.
type TicketAssignedPayload struct {
	OldAssigneeID *string `json:"old_assignee_id,omitempty"`
	NewAssigneeID string  `json:"new_assignee_id"`
	DepartmentID  string  `json:"department_id"`
	Automatic     bool    `json:"automatic"`
}

// TriageCompletedPayload summarizes one redistribution cycle.
type TriageCompletedPayload struct {
	Departments int `json:"departments"`
	Tickets     int `json:"tickets"`
	Reassigned  int `json:"reassigned"`
}
