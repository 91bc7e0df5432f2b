package tasks_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/churchroll/internal/app/system/tasks"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingSweeper struct{ calls atomic.Int32 }

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return 3
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestScheduler_RunsJobUntilStopped(t *testing.T) {
	s := tasks.NewScheduler(zap.NewNop())
	sw := &countingSweeper{}
	s.Start(tasks.RateLimitSweepJob(sw, zap.NewNop(), 10*time.Millisecond))

	waitFor(t, func() bool { return sw.calls.Load() >= 2 })
	s.Stop()

	after := sw.calls.Load()
	time.Sleep(40 * time.Millisecond)
	if got := sw.calls.Load(); got != after {
		t.Errorf("job ran after Stop: %d -> %d", after, got)
	}

	// Second Stop and Start after Stop are harmless.
	s.Stop()
	s.Start(tasks.RateLimitSweepJob(sw, zap.NewNop(), time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	if got := sw.calls.Load(); got != after {
		t.Errorf("job started after Stop ran: %d -> %d", after, got)
	}
}

func TestScheduler_LogsFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := tasks.NewScheduler(zap.New(core))
	defer s.Stop()

	s.Start(tasks.Job{
		Name:     "always-fails",
		Interval: 5 * time.Millisecond,
		Run:      func(context.Context) error { return errors.New("boom") },
	})
	waitFor(t, func() bool { return logs.FilterMessage("background job failed").Len() > 0 })
}
