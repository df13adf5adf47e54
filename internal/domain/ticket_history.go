package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus   TicketChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee TicketChangeType = "ASSIGNEE_CHANGE"
	ChangeTypePriority TicketChangeType = "PRIORITY_CHANGE"
)

// TicketHistory is an immutable audit trail entry. ActorID is a real agent
// or the reserved system identity when the change was automatic.
type TicketHistory struct {
	ID         string
	TicketID   string
	ActorID    string
	ChangeType TicketChangeType
	Action     string
	CreatedAt  time.Time
}
