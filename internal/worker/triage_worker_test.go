package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/config"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	"github.com/spec-kit/helpdesk-triage/internal/service"
)

type stubTicketRepo struct {
	listCalls atomic.Int64
	block     chan struct{}
	panicMsg  string
}

func (s *stubTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error { return nil }
func (s *stubTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error { return nil }
func (s *stubTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return nil, nil
}
func (s *stubTicketRepo) ListOpen(ctx context.Context) ([]domain.Ticket, error) {
	s.listCalls.Add(1)
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.block != nil {
		<-s.block
	}
	return nil, nil
}
func (s *stubTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return nil, nil
}
func (s *stubTicketRepo) UpdateAssigneeTx(ctx context.Context, tx pgx.Tx, ticketID string, assigneeID *string) error {
	return nil
}

type stubAgentRepo struct{}

func (stubAgentRepo) Create(ctx context.Context, agent *domain.Agent) error { return nil }
func (stubAgentRepo) Update(ctx context.Context, agent *domain.Agent) error { return nil }
func (stubAgentRepo) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	return nil, nil
}
func (stubAgentRepo) GetByEmail(ctx context.Context, email string) (*domain.Agent, error) {
	return nil, nil
}
func (stubAgentRepo) List(ctx context.Context, filter repository.AgentFilter) ([]domain.Agent, error) {
	return nil, nil
}

type stubHistoryRepo struct{}

func (stubHistoryRepo) Create(ctx context.Context, history *domain.TicketHistory) error { return nil }
func (stubHistoryRepo) CreateTx(ctx context.Context, tx pgx.Tx, history *domain.TicketHistory) error {
	return nil
}
func (stubHistoryRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	return nil, nil
}

type stubTxManager struct{}

func (stubTxManager) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error { return fn(nil) }

type stubLocker struct {
	acquired bool
	err      error
	releases atomic.Int64
}

func (s *stubLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.acquired, s.err
}
func (s *stubLocker) Release(ctx context.Context, key string) error {
	s.releases.Add(1)
	return nil
}

func newTestTriage(tickets *stubTicketRepo) *service.TriageService {
	return service.NewTriageService(config.TriageConfig{IntervalMinutes: 30}, service.TriageDependencies{
		TicketRepo:  tickets,
		AgentRepo:   stubAgentRepo{},
		HistoryRepo: stubHistoryRepo{},
		TxManager:   stubTxManager{},
		Logger:      zap.NewNop(),
	})
}

func TestRunOnceReturnsSummary(t *testing.T) {
	tickets := &stubTicketRepo{}
	w := NewTriageWorker(newTestTriage(tickets), time.Minute, time.Minute, nil, zap.NewNop())

	summary := w.RunOnce(context.Background())
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.Reassigned)
	assert.Equal(t, int64(1), tickets.listCalls.Load())
}

func TestRunOnceSkipsWhileRunInFlight(t *testing.T) {
	tickets := &stubTicketRepo{block: make(chan struct{})}
	w := NewTriageWorker(newTestTriage(tickets), time.Minute, time.Minute, nil, zap.NewNop())

	done := make(chan struct{})
	go func() {
		w.RunOnce(context.Background())
		close(done)
	}()

	// Wait until the first run is inside the repository call.
	require.Eventually(t, func() bool { return tickets.listCalls.Load() == 1 },
		time.Second, time.Millisecond)

	assert.Nil(t, w.RunOnce(context.Background()))
	assert.Equal(t, int64(1), tickets.listCalls.Load())

	close(tickets.block)
	<-done
}

func TestRunOnceSkipsWhenLeaseHeldElsewhere(t *testing.T) {
	tickets := &stubTicketRepo{}
	locker := &stubLocker{acquired: false}
	w := NewTriageWorker(newTestTriage(tickets), time.Minute, time.Minute, locker, zap.NewNop())

	assert.Nil(t, w.RunOnce(context.Background()))
	assert.Equal(t, int64(0), tickets.listCalls.Load())
	assert.Equal(t, int64(0), locker.releases.Load())
}

func TestRunOnceReleasesLease(t *testing.T) {
	tickets := &stubTicketRepo{}
	locker := &stubLocker{acquired: true}
	w := NewTriageWorker(newTestTriage(tickets), time.Minute, time.Minute, locker, zap.NewNop())

	require.NotNil(t, w.RunOnce(context.Background()))
	assert.Equal(t, int64(1), locker.releases.Load())
}

func TestRunOnceLockerError(t *testing.T) {
	tickets := &stubTicketRepo{}
	locker := &stubLocker{err: errors.New("redis down")}
	w := NewTriageWorker(newTestTriage(tickets), time.Minute, time.Minute, locker, zap.NewNop())

	assert.Nil(t, w.RunOnce(context.Background()))
	assert.Equal(t, int64(0), tickets.listCalls.Load())
}

func TestRunOnceRecoversFromPanic(t *testing.T) {
	tickets := &stubTicketRepo{panicMsg: "boom"}
	w := NewTriageWorker(newTestTriage(tickets), time.Minute, time.Minute, nil, zap.NewNop())

	assert.NotPanics(t, func() {
		assert.Nil(t, w.RunOnce(context.Background()))
	})

	// The worker stays usable after a panic.
	tickets.panicMsg = ""
	assert.NotNil(t, w.RunOnce(context.Background()))
}

func TestLoopStopsOnContextCancel(t *testing.T) {
	tickets := &stubTicketRepo{}
	w := NewTriageWorker(newTestTriage(tickets), 5*time.Millisecond, time.Minute, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	require.Eventually(t, func() bool { return tickets.listCalls.Load() >= 2 },
		time.Second, time.Millisecond)
	cancel()

	time.Sleep(20 * time.Millisecond)
	settled := tickets.listCalls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, tickets.listCalls.Load())
}
