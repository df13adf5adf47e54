package worker

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/service"
)

const lockKey = "triage:run-lock"

// RunLocker is a distributed lease preventing concurrent runs across
// replicas. Acquire reports false when another holder owns the lease.
type RunLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// TriageWorker drives the redistribution service on a fixed interval. Only
// one run may be in flight at a time: a tick that arrives while a run is
// executing is skipped, and the same guard covers on-demand triggers.
type TriageWorker struct {
	triage   *service.TriageService
	interval time.Duration
	lockTTL  time.Duration
	locker   RunLocker
	logger   *zap.Logger

	mu sync.Mutex
}

// NewTriageWorker builds the worker. locker may be nil, in which case only
// the in-process guard applies.
func NewTriageWorker(triage *service.TriageService, interval, lockTTL time.Duration, locker RunLocker, logger *zap.Logger) *TriageWorker {
	return &TriageWorker{
		triage:   triage,
		interval: interval,
		lockTTL:  lockTTL,
		locker:   locker,
		logger:   logger,
	}
}

// Start launches the timer goroutine. It returns immediately; the loop
// stops when ctx is cancelled.
func (w *TriageWorker) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *TriageWorker) loop(ctx context.Context) {
	w.logger.Info("triage worker started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("triage worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single guarded run. It returns the summary of the run,
// or nil when the run was skipped or failed. Failures are logged, never
// propagated: the next tick retries from scratch.
func (w *TriageWorker) RunOnce(ctx context.Context) *service.RunSummary {
	if !w.mu.TryLock() {
		w.logger.Warn("triage run still in flight, skipping tick")
		return nil
	}
	defer w.mu.Unlock()

	if w.locker != nil {
		acquired, err := w.locker.Acquire(ctx, lockKey, w.lockTTL)
		if err != nil {
			w.logger.Error("triage lock acquire failed", zap.Error(err))
			return nil
		}
		if !acquired {
			w.logger.Info("triage lease held elsewhere, skipping run")
			return nil
		}
		defer func() {
			if err := w.locker.Release(ctx, lockKey); err != nil {
				w.logger.Warn("triage lock release failed", zap.Error(err))
			}
		}()
	}

	return w.run(ctx)
}

func (w *TriageWorker) run(ctx context.Context) (summary *service.RunSummary) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("triage run panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			summary = nil
		}
	}()

	summary, err := w.triage.Run(ctx)
	if err != nil {
		w.logger.Error("triage run failed", zap.Error(err))
		return nil
	}
	w.logger.Info("triage run complete",
		zap.Int("departments", len(summary.Departments)),
		zap.Int("reassigned", summary.Reassigned),
		zap.Duration("duration", summary.Duration),
	)
	return summary
}
