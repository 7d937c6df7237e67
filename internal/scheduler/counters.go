// Package scheduler runs the periodic counter maintenance jobs: the monthly
// reset of the per-month download counters and the nightly reconciliation
// that recomputes all counters from the download ledger.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/booklib/server/internal/config"
)

// CounterMaintainer performs the actual counter maintenance work.
type CounterMaintainer interface {
	ResetMonthlyCounters() error
	Recompute(now time.Time) error
}

// ReconcileEnqueuer hands reconciliation off to the task queue. Optional;
// when absent the scheduler recomputes inline.
type ReconcileEnqueuer interface {
	Dispatch() error
}

// CounterScheduler manages the cron jobs for counter maintenance.
type CounterScheduler struct {
	counters CounterMaintainer
	enqueuer ReconcileEnqueuer
	cfg      config.Counters

	cron       *cron.Cron
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewCounterScheduler creates a new scheduler instance.
func NewCounterScheduler(counters CounterMaintainer, enqueuer ReconcileEnqueuer, cfg config.Counters) *CounterScheduler {
	return &CounterScheduler{
		counters: counters,
		enqueuer: enqueuer,
		cfg:      cfg,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start registers the enabled jobs and begins the cron loop.
func (s *CounterScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	registered := 0
	if s.cfg.MonthlyResetEnabled {
		if _, err := s.cron.AddFunc(s.cfg.MonthlyResetSchedule, s.runMonthlyReset); err != nil {
			return fmt.Errorf("invalid monthly reset schedule %q: %w", s.cfg.MonthlyResetSchedule, err)
		}
		log.Printf("Counter scheduler: monthly reset scheduled at '%s'", s.cfg.MonthlyResetSchedule)
		registered++
	}
	if s.cfg.ReconcileEnabled {
		if _, err := s.cron.AddFunc(s.cfg.ReconcileSchedule, s.runReconcile); err != nil {
			return fmt.Errorf("invalid reconcile schedule %q: %w", s.cfg.ReconcileSchedule, err)
		}
		log.Printf("Counter scheduler: reconciliation scheduled at '%s'", s.cfg.ReconcileSchedule)
		registered++
	}

	if registered == 0 {
		log.Printf("Counter scheduler: no jobs enabled")
		return nil
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *CounterScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Counter scheduler: stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *CounterScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *CounterScheduler) runMonthlyReset() {
	log.Printf("Counter scheduler: resetting monthly counters")
	if err := s.counters.ResetMonthlyCounters(); err != nil {
		log.Printf("Counter scheduler: monthly reset failed: %v", err)
		return
	}
	log.Printf("Counter scheduler: monthly counters reset")
}

func (s *CounterScheduler) runReconcile() {
	if s.enqueuer != nil {
		if err := s.enqueuer.Dispatch(); err != nil {
			log.Printf("Counter scheduler: failed to enqueue reconciliation: %v", err)
		}
		return
	}

	start := time.Now()
	if err := s.counters.Recompute(time.Now()); err != nil {
		log.Printf("Counter scheduler: reconciliation failed: %v", err)
		return
	}
	log.Printf("Counter scheduler: reconciled counters in %v", time.Since(start).Round(time.Millisecond))
}
