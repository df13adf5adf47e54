package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// TicketSummary is one listing row; Situation is derived at read time.
type TicketSummary struct {
	ID           string                 `json:"id"`
	DepartmentID *string                `json:"department_id"`
	AssigneeID   *string                `json:"assignee_id"`
	Title        string                 `json:"title"`
	Status       domain.TicketStatus    `json:"status"`
	Priority     *domain.TicketPriority `json:"priority,omitempty"`
	Situation    domain.Situation       `json:"situation"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID           string                 `json:"id"`
	RequesterID  string                 `json:"requester_id"`
	DepartmentID *string                `json:"department_id"`
	AssigneeID   *string                `json:"assignee_id"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Status       domain.TicketStatus    `json:"status"`
	Priority     *domain.TicketPriority `json:"priority,omitempty"`
	Situation    domain.Situation       `json:"situation"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	ClosedAt     *time.Time             `json:"closed_at"`
	History      []HistoryEntryResponse `json:"history"`
}

// HistoryEntryResponse represents one audit trail entry.
type HistoryEntryResponse struct {
	ID         string                  `json:"id"`
	ActorID    string                  `json:"actor_id"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	Action     string                  `json:"action"`
	CreatedAt  time.Time               `json:"created_at"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Comment string              `json:"comment"`
}

// DashboardResponse aggregates counts for the dashboard.
type DashboardResponse struct {
	BySituation map[domain.Situation]int    `json:"by_situation"`
	ByStatus    map[domain.TicketStatus]int `json:"by_status"`
	Total       int                         `json:"total"`
}

// TriageRunResponse reports one on-demand redistribution run.
type TriageRunResponse struct {
	StartedAt   time.Time               `json:"started_at"`
	DurationMS  int64                   `json:"duration_ms"`
	Reassigned  int                     `json:"reassigned"`
	Departments []TriageDepartmentStats `json:"departments"`
}

// TriageDepartmentStats is one department's run outcome.
type TriageDepartmentStats struct {
	DepartmentID string `json:"department_id"`
	Agents       int    `json:"agents"`
	Tickets      int    `json:"tickets"`
	Reassigned   int    `json:"reassigned"`
}

// DepartmentResponse is one department row.
type DepartmentResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
