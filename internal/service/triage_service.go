package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/config"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/observability"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
)

// UnassignedLabel is the sentinel used in audit text for tickets that had
// no assignee before redistribution.
const UnassignedLabel = "unassigned"

// TriageService rebalances open tickets across eligible agents per
// department and records every effective reassignment for audit.
type TriageService struct {
	tickets    repository.TicketRepository
	agents     repository.AgentRepository
	history    repository.TicketHistoryRepository
	tx         repository.TxManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.TriageConfig
	now        func() time.Time
}

// TriageDependencies bundles collaborators for the service.
type TriageDependencies struct {
	TicketRepo  repository.TicketRepository
	AgentRepo   repository.AgentRepository
	HistoryRepo repository.TicketHistoryRepository
	TxManager   repository.TxManager
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// NewTriageService creates the service.
func NewTriageService(cfg config.TriageConfig, deps TriageDependencies) *TriageService {
	return &TriageService{
		tickets:    deps.TicketRepo,
		agents:     deps.AgentRepo,
		history:    deps.HistoryRepo,
		tx:         deps.TxManager,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *TriageService) WithClock(now func() time.Time) *TriageService {
	s.now = now
	return s
}

// Reassignment is one planned assignee change.
type Reassignment struct {
	TicketID        string
	DepartmentID    string
	OldAssigneeID   *string
	OldAssigneeName string
	NewAssigneeID   string
	NewAssigneeName string
}

// ActionText renders the audit description for the change.
func (r Reassignment) ActionText() string {
	old := r.OldAssigneeName
	if old == "" {
		old = UnassignedLabel
	}
	return fmt.Sprintf("automatic triage: assignee changed from %s to %s", old, r.NewAssigneeName)
}

// DepartmentSummary reports per-department counts for one run.
type DepartmentSummary struct {
	DepartmentID string
	Agents       int
	Tickets      int
	Reassigned   int
}

// Plan is the computed outcome of one redistribution cycle before any write.
type Plan struct {
	Changes     []Reassignment
	Departments []DepartmentSummary
}

// RunSummary describes one completed run.
type RunSummary struct {
	StartedAt   time.Time
	Duration    time.Duration
	Departments []DepartmentSummary
	Reassigned  int
}

// PlanRedistribution computes the full reassignment for the given snapshot
// of open tickets and agents. Pure: no I/O, deterministic for a given input.
//
// Agents are grouped by department; an agent is eligible when active, not
// holding an excluded role, not the reserved system identity, and attached
// to a department. Departments with no eligible agents are skipped and
// their tickets left untouched. A department's candidate tickets are the
// open tickets with no assignee or whose current assignee belongs to it
// (whether or not that assignee is still eligible). Departments, agents and
// tickets are enumerated in ascending ID order and tickets dealt to agents
// by cyclic round-robin, so an unchanged snapshot always replans to the
// identical assignment. Each ticket is claimed by at most one department
// per run; unassigned tickets go to the first department in order that
// considers them.
//
// The rebalance is a stateless full recompute: current load is ignored and
// already-assigned tickets may move purely because enumeration positions
// shifted since the last run.
func PlanRedistribution(agents []domain.Agent, tickets []domain.Ticket, excludedRoles []domain.AgentRole, systemUserID string) Plan {
	excluded := make(map[domain.AgentRole]struct{}, len(excludedRoles))
	for _, role := range excludedRoles {
		excluded[role] = struct{}{}
	}

	nameByID := make(map[string]string, len(agents))
	deptByAgent := make(map[string]string, len(agents))
	groups := make(map[string][]domain.Agent)
	for _, agent := range agents {
		nameByID[agent.ID] = agent.Name
		if agent.DepartmentID == nil {
			continue
		}
		deptByAgent[agent.ID] = *agent.DepartmentID
		if !agent.Active || agent.ID == systemUserID {
			continue
		}
		if _, ok := excluded[agent.Role]; ok {
			continue
		}
		groups[*agent.DepartmentID] = append(groups[*agent.DepartmentID], agent)
	}

	deptIDs := make([]string, 0, len(groups))
	for deptID := range groups {
		deptIDs = append(deptIDs, deptID)
	}
	sort.Strings(deptIDs)

	ordered := make([]domain.Ticket, len(tickets))
	copy(ordered, tickets)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	plan := Plan{}
	claimed := make(map[string]bool, len(ordered))

	for _, deptID := range deptIDs {
		group := groups[deptID]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })

		var candidates []domain.Ticket
		for _, ticket := range ordered {
			if claimed[ticket.ID] {
				continue
			}
			if ticket.AssigneeID == nil || deptByAgent[*ticket.AssigneeID] == deptID {
				candidates = append(candidates, ticket)
			}
		}

		summary := DepartmentSummary{
			DepartmentID: deptID,
			Agents:       len(group),
			Tickets:      len(candidates),
		}

		for i, ticket := range candidates {
			claimed[ticket.ID] = true
			target := group[i%len(group)]
			if ticket.AssigneeID != nil && *ticket.AssigneeID == target.ID {
				continue
			}
			change := Reassignment{
				TicketID:        ticket.ID,
				DepartmentID:    deptID,
				OldAssigneeID:   ticket.AssigneeID,
				NewAssigneeID:   target.ID,
				NewAssigneeName: target.Name,
			}
			if ticket.AssigneeID != nil {
				change.OldAssigneeName = nameByID[*ticket.AssigneeID]
			}
			plan.Changes = append(plan.Changes, change)
			summary.Reassigned++
		}

		plan.Departments = append(plan.Departments, summary)
	}

	return plan
}

// Run executes one redistribution cycle: read a snapshot, plan, persist all
// changed assignments plus their audit entries in a single transaction.
// Errors abort the whole run; nothing planned is retried until the next
// cycle starts from scratch.
func (s *TriageService) Run(ctx context.Context) (*RunSummary, error) {
	startedAt := s.now()

	tickets, err := s.tickets.ListOpen(ctx)
	if err != nil {
		s.metrics.RecordTriageRun(0, true)
		return nil, fmt.Errorf("list open tickets: %w", err)
	}
	agents, err := s.agents.List(ctx, repository.AgentFilter{Limit: 10000})
	if err != nil {
		s.metrics.RecordTriageRun(0, true)
		return nil, fmt.Errorf("list agents: %w", err)
	}

	plan := PlanRedistribution(agents, tickets, s.cfg.ExcludedRoles, s.cfg.SystemUserID)

	if len(plan.Changes) > 0 {
		err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
			for _, change := range plan.Changes {
				assignee := change.NewAssigneeID
				if err := s.tickets.UpdateAssigneeTx(ctx, tx, change.TicketID, &assignee); err != nil {
					return fmt.Errorf("update ticket %s: %w", change.TicketID, err)
				}
				entry := &domain.TicketHistory{
					TicketID:   change.TicketID,
					ActorID:    s.cfg.SystemUserID,
					ChangeType: domain.ChangeTypeAssignee,
					Action:     change.ActionText(),
					CreatedAt:  startedAt,
				}
				if err := s.history.CreateTx(ctx, tx, entry); err != nil {
					return fmt.Errorf("append history for ticket %s: %w", change.TicketID, err)
				}
			}
			return nil
		})
		if err != nil {
			s.metrics.RecordTriageRun(0, true)
			return nil, fmt.Errorf("persist redistribution: %w", err)
		}
	}

	s.publishChanges(ctx, plan, startedAt)

	for _, dept := range plan.Departments {
		s.logger.Info("department rebalanced",
			zap.String("department_id", dept.DepartmentID),
			zap.Int("agents", dept.Agents),
			zap.Int("tickets", dept.Tickets),
			zap.Int("reassigned", dept.Reassigned),
		)
	}
	s.metrics.RecordTriageRun(len(plan.Changes), false)

	return &RunSummary{
		StartedAt:   startedAt,
		Duration:    s.now().Sub(startedAt),
		Departments: plan.Departments,
		Reassigned:  len(plan.Changes),
	}, nil
}

func (s *TriageService) publishChanges(ctx context.Context, plan Plan, now time.Time) {
	if s.dispatcher == nil {
		return
	}
	for _, change := range plan.Changes {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketAssigned,
			TicketID:  change.TicketID,
			ActorID:   s.cfg.SystemUserID,
			Timestamp: now,
			Payload: events.TicketAssignedPayload{
				OldAssigneeID: change.OldAssigneeID,
				NewAssigneeID: change.NewAssigneeID,
				DepartmentID:  change.DepartmentID,
				Automatic:     true,
			},
		})
	}
	tickets := 0
	for _, dept := range plan.Departments {
		tickets += dept.Tickets
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTriageCompleted,
		ActorID:   s.cfg.SystemUserID,
		Timestamp: now,
		Payload: events.TriageCompletedPayload{
			Departments: len(plan.Departments),
			Tickets:     tickets,
			Reassigned:  len(plan.Changes),
		},
	})
}
