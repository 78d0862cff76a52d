package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"kirei/internal/logging"
	"kirei/internal/scheduler"
	"kirei/internal/strategy"
)

type countingStrategy struct {
	name  string
	count atomic.Int64
	fail  error
	panic bool
}

func (c *countingStrategy) Name() string { return c.name }

func (c *countingStrategy) Execute(context.Context) error {
	c.count.Add(1)
	if c.panic {
		panic("induced failure")
	}
	return c.fail
}

func waitForCount(t *testing.T, counter *atomic.Int64, want int64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if counter.Load() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("counter stuck at %d, want at least %d", counter.Load(), want)
}

func TestSchedulerFiresRepeatedly(t *testing.T) {
	sched := scheduler.New(logging.NewNop(), scheduler.WithStopGrace(time.Second))
	st := &countingStrategy{name: "counter"}
	if err := sched.Add(scheduler.Job{
		Family:     "test",
		Period:     20 * time.Millisecond,
		Strategies: []strategy.Scheduled{st},
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sched.Stop()

	waitForCount(t, &st.count, 3)
}

func TestSchedulerIsolatesFailures(t *testing.T) {
	sched := scheduler.New(logging.NewNop(), scheduler.WithStopGrace(time.Second))
	panicking := &countingStrategy{name: "panics", panic: true}
	failing := &countingStrategy{name: "fails", fail: errors.New("induced")}
	healthy := &countingStrategy{name: "healthy"}

	if err := sched.Add(scheduler.Job{
		Family:     "test",
		Period:     20 * time.Millisecond,
		Strategies: []strategy.Scheduled{panicking, failing, healthy},
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sched.Stop()

	// The healthy sibling keeps running, and the broken strategies keep
	// being scheduled on later firings.
	waitForCount(t, &healthy.count, 2)
	waitForCount(t, &panicking.count, 2)
	waitForCount(t, &failing.count, 2)
}

func TestSchedulerHonorsInitialDelay(t *testing.T) {
	sched := scheduler.New(logging.NewNop(), scheduler.WithStopGrace(time.Second))
	st := &countingStrategy{name: "delayed"}
	if err := sched.Add(scheduler.Job{
		Family:       "test",
		InitialDelay: 150 * time.Millisecond,
		Period:       time.Hour,
		Strategies:   []strategy.Scheduled{st},
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sched.Stop()

	time.Sleep(50 * time.Millisecond)
	if got := st.count.Load(); got != 0 {
		t.Fatalf("fired %d times before the initial delay elapsed", got)
	}
	waitForCount(t, &st.count, 1)
}

func TestSchedulerRejectsInvalidJobs(t *testing.T) {
	sched := scheduler.New(logging.NewNop())
	if err := sched.Add(scheduler.Job{Family: "bad", Period: 0, Strategies: []strategy.Scheduled{&countingStrategy{name: "x"}}}); err == nil {
		t.Fatal("expected error for zero period")
	}
	if err := sched.Add(scheduler.Job{Family: "bad", Period: time.Second}); err == nil {
		t.Fatal("expected error for empty strategy list")
	}
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	sched := scheduler.New(logging.NewNop(), scheduler.WithStopGrace(time.Second))
	st := &countingStrategy{name: "counter"}
	if err := sched.Add(scheduler.Job{
		Family:     "test",
		Period:     10 * time.Millisecond,
		Strategies: []strategy.Scheduled{st},
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitForCount(t, &st.count, 1)
	sched.Stop()
	sched.Stop()

	settled := st.count.Load()
	time.Sleep(50 * time.Millisecond)
	if st.count.Load() != settled {
		t.Fatal("strategy fired after Stop")
	}
}
