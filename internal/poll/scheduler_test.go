package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
	"txlive/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func counter(n *atomic.Int32) Func {
	return func(context.Context) error {
		n.Add(1)
		return nil
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestUpdate_KeepsTimerPhase(t *testing.T) {
	s := NewScheduler(nil, nil)
	const interval = 100 * time.Millisecond

	var calls [5]atomic.Int32
	start := time.Now()
	task := s.Schedule(context.Background(), "swap", counter(&calls[0]), interval, Options{Enabled: true})
	defer task.Stop()

	for i := 1; i < len(calls)-1; i++ {
		task.Update(counter(&calls[i]))
	}

	// A reset on Update would push the first tick to 170ms.
	time.Sleep(time.Until(start.Add(70 * time.Millisecond)))
	task.Update(counter(&calls[4]))

	time.Sleep(time.Until(start.Add(135 * time.Millisecond)))
	if n := calls[4].Load(); n != 1 {
		t.Errorf("unexpected runs at first tick: %d", n)
	}

	time.Sleep(time.Until(start.Add(250 * time.Millisecond)))
	task.Stop()
	<-task.Done()

	for i := 0; i < len(calls)-1; i++ {
		if n := calls[i].Load(); n != 0 {
			t.Errorf("stale callback %d ran %d times", i, n)
		}
	}
	if n := calls[4].Load(); n != 2 {
		t.Errorf("unexpected tick count: %d", n)
	}
}

func TestSchedule_Disabled(t *testing.T) {
	s := NewScheduler(nil, nil)

	var n atomic.Int32
	task := s.Schedule(context.Background(), "off", counter(&n), time.Millisecond, Options{Enabled: false, Immediate: true})

	select {
	case <-task.Done():
	default:
		t.Error("expected disabled task to be done")
	}
	time.Sleep(10 * time.Millisecond)
	if n.Load() != 0 {
		t.Errorf("unexpected runs: %d", n.Load())
	}
	task.Stop()
}

func TestSchedule_ImmediateRunsBeforeReturn(t *testing.T) {
	s := NewScheduler(nil, nil)

	var n atomic.Int32
	task := s.Schedule(context.Background(), "now", counter(&n), time.Hour, Options{Enabled: true, Immediate: true})
	defer task.Stop()

	if n.Load() != 1 {
		t.Errorf("unexpected runs: %d", n.Load())
	}
}

func TestSchedule_HiddenSkipsTicks(t *testing.T) {
	page := NewPage(false)
	s := NewScheduler(nil, page)

	var n atomic.Int32
	task := s.Schedule(context.Background(), "hidden", counter(&n), 5*time.Millisecond, Options{Enabled: true})
	defer task.Stop()

	time.Sleep(30 * time.Millisecond)
	if n.Load() != 0 {
		t.Errorf("unexpected runs while hidden: %d", n.Load())
	}
	if task.Stats().Skipped == 0 {
		t.Error("expected skipped ticks")
	}

	// Without Immediate, becoming visible waits for the next tick.
	page.SetVisible(true)
	waitFor(t, "tick after visible", func() bool { return n.Load() >= 1 })
}

func TestSchedule_CatchUpOnVisible(t *testing.T) {
	page := NewPage(true)
	s := NewScheduler(nil, page)

	var n atomic.Int32
	task := s.Schedule(context.Background(), "catchup", counter(&n), time.Hour, Options{Enabled: true, Immediate: true})
	defer task.Stop()

	if n.Load() != 1 {
		t.Fatalf("unexpected runs: %d", n.Load())
	}

	page.SetVisible(false)
	time.Sleep(5 * time.Millisecond)
	page.SetVisible(true)

	waitFor(t, "catch-up run", func() bool { return n.Load() == 2 })

	// Repeating the same visibility is not a transition.
	page.SetVisible(true)
	time.Sleep(5 * time.Millisecond)
	if n.Load() != 2 {
		t.Errorf("unexpected runs: %d", n.Load())
	}
}

func TestSchedule_HiddenManyIntervalsThenVisible(t *testing.T) {
	page := NewPage(true)
	s := NewScheduler(nil, page)
	const interval = 100 * time.Millisecond

	var n atomic.Int32
	task := s.Schedule(context.Background(), "dashboard", counter(&n), interval, Options{Enabled: true, Immediate: true})
	defer task.Stop()

	page.SetVisible(false)
	waitFor(t, "five skipped ticks", func() bool { return task.Stats().Skipped >= 5 })
	if n.Load() != 1 {
		t.Fatalf("unexpected runs while hidden: %d", n.Load())
	}

	// Just after a skipped tick, so the next tick is about an interval away.
	page.SetVisible(true)
	waitFor(t, "catch-up run", func() bool { return n.Load() == 2 })

	// Missed ticks are not replayed.
	time.Sleep(20 * time.Millisecond)
	if n.Load() != 2 {
		t.Fatalf("expected a single catch-up run, got %d runs", n.Load())
	}

	waitFor(t, "regular tick", func() bool { return n.Load() == 3 })
	if skipped := task.Stats().Skipped; skipped < 5 {
		t.Errorf("unexpected skipped count: %d", skipped)
	}
}

func TestSchedule_ErrorsAndPanicsSwallowed(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	s := NewScheduler(nil, nil, WithMetrics(metrics))

	var n atomic.Int32
	cb := func(context.Context) error {
		switch n.Add(1) % 3 {
		case 1:
			return errors.New("backend down")
		case 2:
			panic("nil map")
		}
		return nil
	}

	task := s.Schedule(context.Background(), "flaky", cb, 2*time.Millisecond, Options{Enabled: true})
	defer task.Stop()

	waitFor(t, "several runs", func() bool { return n.Load() >= 6 })
	task.Stop()
	<-task.Done()

	stats := task.Stats()
	if stats.Failures == 0 || stats.Runs < 6 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if v := testutil.ToFloat64(metrics.PollRunsTotal.WithLabelValues("flaky", observability.PollPanic)); v < 2 {
		t.Errorf("unexpected panic count: %v", v)
	}
	if v := testutil.ToFloat64(metrics.PollRunsTotal.WithLabelValues("flaky", observability.PollError)); v < 2 {
		t.Errorf("unexpected error count: %v", v)
	}
}

func TestStop_IdempotentAndRemovesWatcher(t *testing.T) {
	page := NewPage(true)
	s := NewScheduler(nil, page)

	var n atomic.Int32
	task := s.Schedule(context.Background(), "stop", counter(&n), time.Millisecond, Options{Enabled: true, Immediate: true})

	task.Stop()
	task.Stop()
	<-task.Done()

	before := n.Load()
	page.SetVisible(false)
	page.SetVisible(true)
	time.Sleep(10 * time.Millisecond)

	if n.Load() != before {
		t.Errorf("runs after stop: %d -> %d", before, n.Load())
	}
	page.mu.Lock()
	watchers := len(page.watchers)
	page.mu.Unlock()
	if watchers != 0 {
		t.Errorf("unexpected watchers: %d", watchers)
	}
}

func TestSchedule_ContextEndsTask(t *testing.T) {
	s := NewScheduler(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var n atomic.Int32
	task := s.Schedule(ctx, "ctx", counter(&n), time.Millisecond, Options{Enabled: true})
	cancel()

	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("task did not stop")
	}
}

func TestSchedulerStats(t *testing.T) {
	s := NewScheduler(nil, nil)
	a := s.Schedule(context.Background(), "a", counter(new(atomic.Int32)), time.Hour, Options{Enabled: true, Immediate: true})
	b := s.Schedule(context.Background(), "b", counter(new(atomic.Int32)), time.Hour, Options{})
	defer s.StopAll()

	stats := s.Stats()
	if len(stats) != 2 || stats[0].Name != "a" || stats[1].Name != "b" {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats[0].Runs != 1 || stats[1].Enabled {
		t.Errorf("unexpected stats: %+v", stats)
	}

	s.StopAll()
	<-a.Done()
	<-b.Done()
}
