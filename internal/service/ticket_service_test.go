package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util"
)

func newTicketService(tickets *fakeTicketRepo, history *fakeHistoryRepo, dispatcher events.Dispatcher) *TicketService {
	return NewTicketService(tickets, history, dispatcher, zap.NewNop())
}

func agedTicket(id string, status domain.TicketStatus, daysOld int, now time.Time) domain.Ticket {
	return domain.Ticket{
		ID:        id,
		Status:    status,
		CreatedAt: now.AddDate(0, 0, -daysOld),
	}
}

func TestListTicketsProjectsSituation(t *testing.T) {
	now := time.Date(2025, time.May, 10, 10, 0, 0, 0, time.UTC)
	tickets := &fakeTicketRepo{all: []domain.Ticket{
		agedTicket("t-1", domain.TicketStatusOpen, 0, now),
		agedTicket("t-2", domain.TicketStatusInProgress, 2, now),
		agedTicket("t-3", domain.TicketStatusOpen, 7, now),
		agedTicket("t-4", domain.TicketStatusClosed, 7, now),
	}}

	svc := newTicketService(tickets, &fakeHistoryRepo{}, nil).
		WithClock(func() time.Time { return now })

	views, err := svc.ListTickets(context.Background(), TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, views, 4)
	assert.Equal(t, domain.SituationOnTime, views[0].Situation)
	assert.Equal(t, domain.SituationAttention, views[1].Situation)
	assert.Equal(t, domain.SituationLate, views[2].Situation)
	assert.Equal(t, domain.SituationFinished, views[3].Situation)
}

func TestListTicketsFiltersBySituation(t *testing.T) {
	now := time.Date(2025, time.May, 10, 10, 0, 0, 0, time.UTC)
	tickets := &fakeTicketRepo{all: []domain.Ticket{
		agedTicket("t-1", domain.TicketStatusOpen, 0, now),
		agedTicket("t-2", domain.TicketStatusOpen, 5, now),
		agedTicket("t-3", domain.TicketStatusOpen, 8, now),
	}}

	svc := newTicketService(tickets, &fakeHistoryRepo{}, nil).
		WithClock(func() time.Time { return now })

	late := domain.SituationLate
	views, err := svc.ListTickets(context.Background(), TicketListFilter{Situation: &late})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "t-2", views[0].ID)
	assert.Equal(t, "t-3", views[1].ID)
}

func TestGetTicketNotFound(t *testing.T) {
	svc := newTicketService(&fakeTicketRepo{}, &fakeHistoryRepo{}, nil)

	_, _, err := svc.GetTicket(context.Background(), "missing")
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestUpdateStatusCloseStampsClosedAt(t *testing.T) {
	now := time.Date(2025, time.May, 10, 10, 0, 0, 0, time.UTC)
	ticket := agedTicket("t-1", domain.TicketStatusInProgress, 1, now)
	tickets := &fakeTicketRepo{byID: map[string]*domain.Ticket{"t-1": &ticket}}
	history := &fakeHistoryRepo{}
	dispatcher := &capturingDispatcher{}

	actor := makeAgent("a-1", "dept-1", domain.AgentRoleAgent)
	svc := newTicketService(tickets, history, dispatcher).
		WithClock(func() time.Time { return now })

	view, err := svc.UpdateStatus(context.Background(), &actor, "t-1", domain.TicketStatusClosed, "resolved by phone")
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusClosed, view.Status)
	assert.Equal(t, domain.SituationFinished, view.Situation)
	require.NotNil(t, view.ClosedAt)
	assert.Equal(t, now, *view.ClosedAt)

	require.Len(t, tickets.updated, 1)
	require.Len(t, history.entries, 1)
	assert.Equal(t, "a-1", history.entries[0].ActorID)
	assert.Equal(t, domain.ChangeTypeStatus, history.entries[0].ChangeType)
	assert.Equal(t, "status changed from IN_PROGRESS to CLOSED: resolved by phone", history.entries[0].Action)

	require.Len(t, dispatcher.published, 1)
	assert.Equal(t, events.EventTicketStatusChanged, dispatcher.published[0].Type)
}

func TestUpdateStatusReopenClearsClosedAt(t *testing.T) {
	now := time.Date(2025, time.May, 10, 10, 0, 0, 0, time.UTC)
	closedAt := now.AddDate(0, 0, -1)
	ticket := agedTicket("t-1", domain.TicketStatusClosed, 3, now)
	ticket.ClosedAt = &closedAt
	tickets := &fakeTicketRepo{byID: map[string]*domain.Ticket{"t-1": &ticket}}

	actor := makeAgent("a-1", "dept-1", domain.AgentRoleAgent)
	svc := newTicketService(tickets, &fakeHistoryRepo{}, nil).
		WithClock(func() time.Time { return now })

	view, err := svc.UpdateStatus(context.Background(), &actor, "t-1", domain.TicketStatusOpen, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, view.Status)
	assert.Nil(t, view.ClosedAt)
	assert.Equal(t, domain.SituationAttention, view.Situation)
}

func TestUpdateStatusRejectsSameStatus(t *testing.T) {
	now := time.Now()
	ticket := agedTicket("t-1", domain.TicketStatusOpen, 0, now)
	tickets := &fakeTicketRepo{byID: map[string]*domain.Ticket{"t-1": &ticket}}
	history := &fakeHistoryRepo{}

	actor := makeAgent("a-1", "dept-1", domain.AgentRoleAgent)
	svc := newTicketService(tickets, history, nil)

	_, err := svc.UpdateStatus(context.Background(), &actor, "t-1", domain.TicketStatusOpen, "")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	assert.Empty(t, tickets.updated)
	assert.Empty(t, history.entries)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	actor := makeAgent("a-1", "dept-1", domain.AgentRoleAgent)
	svc := newTicketService(&fakeTicketRepo{}, &fakeHistoryRepo{}, nil)

	_, err := svc.UpdateStatus(context.Background(), &actor, "t-1", domain.TicketStatus("ARCHIVED"), "")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestDashboardCounts(t *testing.T) {
	now := time.Date(2025, time.May, 10, 10, 0, 0, 0, time.UTC)
	tickets := &fakeTicketRepo{all: []domain.Ticket{
		agedTicket("t-1", domain.TicketStatusOpen, 0, now),
		agedTicket("t-2", domain.TicketStatusOpen, 2, now),
		agedTicket("t-3", domain.TicketStatusInProgress, 5, now),
		agedTicket("t-4", domain.TicketStatusClosed, 9, now),
	}}

	svc := newTicketService(tickets, &fakeHistoryRepo{}, nil).
		WithClock(func() time.Time { return now })

	summary, err := svc.Dashboard(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.BySituation[domain.SituationOnTime])
	assert.Equal(t, 1, summary.BySituation[domain.SituationAttention])
	assert.Equal(t, 1, summary.BySituation[domain.SituationLate])
	assert.Equal(t, 1, summary.BySituation[domain.SituationFinished])
	assert.Equal(t, 2, summary.ByStatus[domain.TicketStatusOpen])
}
