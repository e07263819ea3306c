package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/reshetovitsme/patchnotes-feed/internal/modules/pipeline/domain"
)

// CycleRunner runs one ingestion cycle
type CycleRunner interface {
	RunCycle(ctx context.Context) domain.CycleReport
}

// Scheduler runs a cycle at start and then on a fixed interval
type Scheduler struct {
	runner   CycleRunner
	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// NewScheduler creates a new scheduler
func NewScheduler(runner CycleRunner, interval time.Duration) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
	}
}

// Start begins the schedule loop. Cancelling ctx or calling Stop ends it.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(loopCtx)

	slog.Info("Scheduler started", "interval", s.interval)
}

// Stop interrupts any wait in flight and blocks until the loop exits
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()

	slog.Info("Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Initial cycle
	s.runner.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runner.RunCycle(ctx)
		}
	}
}
