package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates urgency levels chosen at triage time.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID           string
	RequesterID  string
	DepartmentID *string
	AssigneeID   *string
	Title        string
	Description  string
	Status       TicketStatus
	Priority     *TicketPriority
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
}

// IsOpen reports whether the ticket is freshly opened and therefore
// subject to automatic redistribution.
func (t *Ticket) IsOpen() bool {
	return t.Status == TicketStatusOpen
}

// Close marks the ticket closed at the given instant.
func (t *Ticket) Close(now time.Time) {
	t.Status = TicketStatusClosed
	t.ClosedAt = &now
}

// Reopen reverts a closed ticket to the given status. Only closed tickets
// carry a close timestamp, so ClosedAt is cleared.
func (t *Ticket) Reopen(status TicketStatus) {
	t.Status = status
	t.ClosedAt = nil
}
