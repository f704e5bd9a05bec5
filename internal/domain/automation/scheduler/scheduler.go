package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// AutomationProcessor defines the interface for the trigger body
type AutomationProcessor interface {
	ProcessDueAutomationPaths(ctx context.Context) error
}

// Scheduler is the periodic trigger that fires due automation paths. It is
// the in-process analogue of the platform timer: each tick runs to completion
// before the next fires, and errors are logged only.
type Scheduler struct {
	processor AutomationProcessor
	interval  time.Duration
	logger    *slog.Logger
	stopCh    chan struct{}
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// New creates a new scheduler
func New(processor AutomationProcessor, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		processor: processor,
		interval:  interval,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("automation scheduler started", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("automation scheduler stopped")
}

// run is the main scheduler loop
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.process(ctx)

	for {
		select {
		case <-ticker.C:
			s.process(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// process runs one trigger invocation
func (s *Scheduler) process(ctx context.Context) {
	s.logger.Debug("scanning automation paths")

	if err := s.processor.ProcessDueAutomationPaths(ctx); err != nil {
		s.logger.Error("automation trigger failed", "error", err)
	}
}
