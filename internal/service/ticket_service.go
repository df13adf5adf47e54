package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util"
)

// TicketView is a ticket projected with its derived situation tag. The tag
// is computed at read time by the one canonical classifier; it is the same
// value on every surface that renders the ticket.
type TicketView struct {
	domain.Ticket
	Situation domain.Situation
}

// TicketListFilter describes staff listing filters. Situation filtering
// happens after the fetch because the tag is derived, never stored.
type TicketListFilter struct {
	DepartmentID *string
	AssigneeID   *string
	Statuses     []domain.TicketStatus
	Situation    *domain.Situation
	SearchTerm   *string
	Limit        int
	Offset       int
}

// DashboardSummary holds ticket counts per situation and per status.
type DashboardSummary struct {
	BySituation map[domain.Situation]int
	ByStatus    map[domain.TicketStatus]int
	Total       int
}

// TicketService coordinates ticket reads and status workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(tickets repository.TicketRepository, history repository.TicketHistoryRepository, dispatcher events.Dispatcher, logger *zap.Logger) *TicketService {
	return &TicketService{
		tickets:    tickets,
		history:    history,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *TicketService) WithClock(now func() time.Time) *TicketService {
	s.now = now
	return s
}

// ListTickets returns tickets with their situation tags, optionally
// filtered by situation.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]TicketView, error) {
	repoFilter := repository.TicketFilter{
		DepartmentID: filter.DepartmentID,
		AssigneeID:   filter.AssigneeID,
		Statuses:     filter.Statuses,
		SearchTerm:   filter.SearchTerm,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	views := make([]TicketView, 0, len(tickets))
	for _, ticket := range tickets {
		view := TicketView{Ticket: ticket, Situation: ticket.Situation(now)}
		if filter.Situation != nil && view.Situation != *filter.Situation {
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

// GetTicket fetches a single ticket with its situation and audit trail.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*TicketView, []domain.TicketHistory, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	view := &TicketView{Ticket: *ticket, Situation: ticket.Situation(s.now())}
	return view, entries, nil
}

// UpdateStatus transitions a ticket's status for the acting agent. Closing
// stamps ClosedAt; leaving closed clears it.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.Agent, ticketID string, newStatus domain.TicketStatus, comment string) (*TicketView, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("agent required")
	}
	if !isValidStatus(newStatus) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	oldStatus := ticket.Status
	if newStatus == oldStatus {
		return nil, apperrors.NewConflict("ticket already in status", map[string]any{"status": newStatus})
	}
	if newStatus == domain.TicketStatusClosed {
		ticket.Close(now)
	} else {
		ticket.Reopen(newStatus)
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	entry := &domain.TicketHistory{
		TicketID:   ticket.ID,
		ActorID:    actor.ID,
		ChangeType: domain.ChangeTypeStatus,
		Action:     statusChangeAction(oldStatus, newStatus, comment),
		CreatedAt:  now,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketStatusChanged,
			TicketID:  ticket.ID,
			ActorID:   actor.ID,
			Timestamp: now,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: newStatus,
				Comment:   comment,
			},
		})
	}

	return &TicketView{Ticket: *ticket, Situation: ticket.Situation(now)}, nil
}

// Dashboard aggregates situation and status counts over matching tickets.
func (s *TicketService) Dashboard(ctx context.Context, departmentID *string) (*DashboardSummary, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		DepartmentID: departmentID,
		Limit:        10000,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	summary := &DashboardSummary{
		BySituation: make(map[domain.Situation]int),
		ByStatus:    make(map[domain.TicketStatus]int),
	}
	for _, ticket := range tickets {
		summary.BySituation[ticket.Situation(now)]++
		summary.ByStatus[ticket.Status]++
		summary.Total++
	}
	return summary, nil
}

func isValidStatus(status domain.TicketStatus) bool {
	switch status {
	case domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusClosed:
		return true
	}
	return false
}

func statusChangeAction(oldStatus, newStatus domain.TicketStatus, comment string) string {
	action := "status changed from " + string(oldStatus) + " to " + string(newStatus)
	if comment != "" {
		action += ": " + comment
	}
	return action
}
