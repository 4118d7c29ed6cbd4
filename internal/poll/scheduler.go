// Package poll re-invokes callbacks on a fixed cadence while someone is watching.
package poll

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"txlive/internal/observability"

	"go.uber.org/zap"
)

// Func is a polled callback. Returned errors are logged and otherwise ignored.
type Func func(ctx context.Context) error

type Options struct {
	// Enabled false creates no timer and never runs the callback.
	Enabled bool
	// Immediate runs the callback once at registration and again whenever
	// visibility returns.
	Immediate bool
}

// Scheduler creates tasks that share one visibility signal.
type Scheduler struct {
	logger     *zap.Logger
	visibility Visibility
	metrics    *observability.Metrics

	mu    sync.Mutex
	tasks []*Task
}

type Option func(*Scheduler)

func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = metrics
	}
}

// NewScheduler returns a scheduler gated on vis. A nil vis is AlwaysVisible.
func NewScheduler(logger *zap.Logger, vis Visibility, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if vis == nil {
		vis = AlwaysVisible
	}
	s := &Scheduler{
		logger:     logger,
		visibility: vis,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Task is one scheduled callback with exactly one timer.
type Task struct {
	name     string
	interval time.Duration
	opts     Options
	s        *Scheduler

	cb atomic.Pointer[Func]

	ctx         context.Context
	cancel      context.CancelFunc
	catchUp     chan struct{}
	cancelWatch func()
	stopOnce    sync.Once
	done        chan struct{}

	runs      atomic.Uint64
	skipped   atomic.Uint64
	failures  atomic.Uint64
	lastRunAt atomic.Int64
}

// Schedule registers cb to run every interval until ctx ends or the task is
// stopped. With Immediate set the first run happens before Schedule returns.
func (s *Scheduler) Schedule(ctx context.Context, name string, cb Func, interval time.Duration, opts Options) *Task {
	t := &Task{
		name:     name,
		interval: interval,
		opts:     opts,
		s:        s,
		catchUp:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	t.cb.Store(&cb)

	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()

	if !opts.Enabled || interval <= 0 {
		close(t.done)
		return t
	}

	t.ctx, t.cancel = context.WithCancel(ctx)

	if opts.Immediate {
		t.run()
	}

	t.cancelWatch = s.visibility.Watch(func(visible bool) {
		if !visible || !t.opts.Immediate {
			return
		}
		select {
		case t.catchUp <- struct{}{}:
		default:
		}
	})

	go t.loop()
	return t
}

// Update swaps the callback. The timer keeps its phase.
func (t *Task) Update(cb Func) {
	t.cb.Store(&cb)
}

// Stop clears the timer and the visibility listener. Safe to call repeatedly.
func (t *Task) Stop() {
	t.stopOnce.Do(func() {
		if t.cancel != nil {
			t.cancel()
		}
		if t.cancelWatch != nil {
			t.cancelWatch()
		}
	})
}

// Done is closed once the task has stopped for good.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) loop() {
	defer close(t.done)
	defer t.Stop()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-t.catchUp:
			t.run()
		case <-ticker.C:
			if !t.s.visibility.Visible() {
				t.skipped.Add(1)
				t.s.metrics.RecordPollRun(t.name, observability.PollSkipped)
				continue
			}
			t.run()
		}
	}
}

func (t *Task) run() {
	if t.ctx.Err() != nil {
		return
	}

	cb := *t.cb.Load()
	t.runs.Add(1)
	t.lastRunAt.Store(time.Now().UnixNano())

	err := t.invoke(cb)
	switch {
	case err == nil:
		t.s.metrics.RecordPollRun(t.name, observability.PollOK)
	case isPanic(err):
		t.failures.Add(1)
		t.s.metrics.RecordPollRun(t.name, observability.PollPanic)
		t.s.logger.Warn("poll callback panicked", zap.String("task", t.name), zap.Error(err))
	default:
		t.failures.Add(1)
		t.s.metrics.RecordPollRun(t.name, observability.PollError)
		t.s.logger.Debug("poll callback failed", zap.String("task", t.name), zap.Error(err))
	}
}

type panicError struct {
	value any
}

func (p panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

func isPanic(err error) bool {
	_, ok := err.(panicError)
	return ok
}

func (t *Task) invoke(cb Func) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{value: r}
		}
	}()
	if cb == nil {
		return nil
	}
	return cb(t.ctx)
}

type TaskStats struct {
	Name      string    `json:"name"`
	Interval  string    `json:"interval"`
	Enabled   bool      `json:"enabled"`
	Runs      uint64    `json:"runs"`
	Skipped   uint64    `json:"skipped"`
	Failures  uint64    `json:"failures"`
	LastRunAt time.Time `json:"last_run_at"`
}

func (t *Task) Stats() TaskStats {
	var last time.Time
	if ns := t.lastRunAt.Load(); ns > 0 {
		last = time.Unix(0, ns)
	}
	return TaskStats{
		Name:      t.name,
		Interval:  t.interval.String(),
		Enabled:   t.opts.Enabled,
		Runs:      t.runs.Load(),
		Skipped:   t.skipped.Load(),
		Failures:  t.failures.Load(),
		LastRunAt: last,
	}
}

// Stats reports every task ever scheduled, in registration order.
func (s *Scheduler) Stats() []TaskStats {
	s.mu.Lock()
	tasks := append([]*Task(nil), s.tasks...)
	s.mu.Unlock()

	out := make([]TaskStats, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Stats())
	}
	return out
}

// StopAll stops every task.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	tasks := append([]*Task(nil), s.tasks...)
	s.mu.Unlock()

	for _, t := range tasks {
		t.Stop()
	}
}
