// Package scheduler runs the periodic task families: each enabled family
// gets one worker goroutine firing its strategy list at a fixed rate.
//
// Fixed-rate means the next firing is computed from the scheduled start
// time, not from when the previous run finished, so a slow run does not
// drift the schedule. A run that overruns its period is followed by an
// immediate catch-up firing; that is accepted behavior.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"kirei/internal/logging"
	"kirei/internal/strategy"
)

// DefaultStopGrace bounds how long Stop waits for in-flight executions
// before abandoning them.
const DefaultStopGrace = 30 * time.Second

// Job describes one task family: its timing and the ordered strategies it
// runs on every firing.
type Job struct {
	Family       string
	InitialDelay time.Duration
	Period       time.Duration
	Strategies   []strategy.Scheduled
}

// Scheduler owns one worker goroutine per registered job.
type Scheduler struct {
	logger    *slog.Logger
	stopGrace time.Duration

	mu      sync.Mutex
	jobs    []Job
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures optional Scheduler behavior.
type Option func(*Scheduler)

// WithStopGrace overrides the bounded wait applied during Stop.
func WithStopGrace(grace time.Duration) Option {
	return func(s *Scheduler) {
		if grace > 0 {
			s.stopGrace = grace
		}
	}
}

// New constructs an empty scheduler.
func New(logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:    logging.NewComponentLogger(logger, "scheduler"),
		stopGrace: DefaultStopGrace,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a job. Jobs with a non-positive period or no strategies are
// rejected; disabled families simply are not added by the caller.
func (s *Scheduler) Add(job Job) error {
	if job.Period <= 0 {
		return fmt.Errorf("job %q: period must be positive", job.Family)
	}
	if len(job.Strategies) == 0 {
		return fmt.Errorf("job %q: no strategies", job.Family)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler already running")
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Start launches one worker per registered job and returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler already running")
	}
	if len(s.jobs) == 0 {
		s.logger.Info("no task families enabled, scheduler idle")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(len(s.jobs))
	for _, job := range s.jobs {
		go s.runJob(runCtx, job)
	}
	for _, job := range s.jobs {
		s.logger.Info("task family scheduled",
			logging.String(logging.FieldFamily, job.Family),
			logging.Duration("initial_delay", job.InitialDelay),
			logging.Duration("period", job.Period))
	}
	return nil
}

// Stop requests orderly shutdown and waits up to the stop grace for
// in-flight executions. Past the grace, still-running workers are
// abandoned with their contexts cancelled. Stop is idempotent and safe to
// call even if the scheduler never started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	if !waitTimeout(&s.wg, s.stopGrace) {
		s.logger.Warn("grace period elapsed, abandoning in-flight task executions",
			logging.Duration("grace", s.stopGrace))
		return
	}
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	defer s.wg.Done()

	logger := s.logger.With(logging.String(logging.FieldFamily, job.Family))

	next := time.Now().Add(job.InitialDelay)
	for {
		if !sleepUntil(ctx, next) {
			return
		}
		s.fire(ctx, job, logger)
		// Fixed-rate: advance from the scheduled time. If the run overran
		// the period the loop fires again immediately.
		next = next.Add(job.Period)
	}
}

// fire runs the family's strategies sequentially. Each invocation is
// isolated: an error or panic in one strategy is logged and never prevents
// sibling strategies or future firings.
func (s *Scheduler) fire(ctx context.Context, job Job, logger *slog.Logger) {
	logger.Info("task family firing")
	for _, st := range job.Strategies {
		if ctx.Err() != nil {
			return
		}
		s.runStrategy(ctx, st, logger)
	}
	logger.Info("task family finished")
}

func (s *Scheduler) runStrategy(ctx context.Context, st strategy.Scheduled, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("strategy panicked",
				logging.String(logging.FieldStrategy, st.Name()),
				logging.Any("panic", r))
		}
	}()

	if err := st.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("strategy interrupted by shutdown",
				logging.String(logging.FieldStrategy, st.Name()))
			return
		}
		logger.Error("strategy failed",
			logging.String(logging.FieldStrategy, st.Name()),
			logging.Error(err))
	}
}

// sleepUntil blocks until the deadline or context cancellation; it reports
// false when the scheduler should exit.
func sleepUntil(ctx context.Context, deadline time.Time) bool {
	delay := time.Until(deadline)
	if delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func waitTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
