package app

import (
	"sync"
	"sync/atomic"
	"time"
	"txlive/clients/channel"
	"txlive/clients/notifier"
	"txlive/internal/types"

	"go.uber.org/zap"
)

// seenAlertsCap bounds the dedupe set; it is reset when full.
const seenAlertsCap = 1024

// forwardQueueSize is how many alerts may wait for the notifier before new
// ones are dropped.
const forwardQueueSize = 64

// AlertForwarder sends pattern alerts from the event channel to a notifier.
// Handle runs on the channel's dispatch path, so delivery happens on a
// separate worker goroutine.
type AlertForwarder struct {
	logger           *zap.Logger
	notifier         notifier.Notifier
	forwardSynthetic bool

	mu   sync.Mutex
	seen map[string]struct{}

	queue     chan notifier.PatternAlert
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	forwarded atomic.Uint64
	skipped   atomic.Uint64
	dropped   atomic.Uint64
}

func NewAlertForwarder(logger *zap.Logger, n notifier.Notifier, forwardSynthetic bool) *AlertForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &AlertForwarder{
		logger:           logger,
		notifier:         n,
		forwardSynthetic: forwardSynthetic,
		seen:             make(map[string]struct{}),
		queue:            make(chan notifier.PatternAlert, forwardQueueSize),
		stop:             make(chan struct{}),
		done:             make(chan struct{}),
	}
	go f.run()
	return f
}

func (f *AlertForwarder) run() {
	defer close(f.done)
	for {
		select {
		case a := <-f.queue:
			f.notifier.SendPatternAlert(a)
		case <-f.stop:
			// Deliver whatever was accepted before Close.
			for {
				select {
				case a := <-f.queue:
					f.notifier.SendPatternAlert(a)
				default:
					return
				}
			}
		}
	}
}

// Close stops the worker after it has delivered every queued alert. Alerts
// handled after Close are dropped.
func (f *AlertForwarder) Close() {
	f.closeOnce.Do(func() { close(f.stop) })
	<-f.done
}

// Handle is a channel.Handler for the pattern alert category.
func (f *AlertForwarder) Handle(ev channel.Event) {
	if ev.Simulated && !f.forwardSynthetic {
		f.skipped.Add(1)
		return
	}

	var alert types.PatternAlert
	if err := ev.Decode(&alert); err != nil {
		f.logger.Warn("dropping undecodable pattern alert", zap.Error(err))
		return
	}
	if f.duplicate(alert.ID) {
		f.logger.Debug("skipping duplicate pattern alert", zap.String("id", shortID(alert.ID)))
		f.skipped.Add(1)
		return
	}

	f.enqueue(toNotification(alert, ev))
}

func (f *AlertForwarder) enqueue(a notifier.PatternAlert) {
	select {
	case <-f.stop:
		f.dropped.Add(1)
		return
	default:
	}

	select {
	case f.queue <- a:
		f.forwarded.Add(1)
	default:
		f.dropped.Add(1)
		f.logger.Warn("notifier backlog full, dropping pattern alert",
			zap.String("id", shortID(a.ID)),
			zap.String("symbol", a.Symbol),
		)
	}
}

func (f *AlertForwarder) duplicate(id string) bool {
	if id == "" {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.seen[id]; ok {
		return true
	}
	if len(f.seen) >= seenAlertsCap {
		f.seen = make(map[string]struct{})
	}
	f.seen[id] = struct{}{}
	return false
}

// Counts returns forwarded and skipped alert totals. Alerts dropped because
// the notifier fell behind count as skipped.
func (f *AlertForwarder) Counts() (forwarded, skipped uint64) {
	return f.forwarded.Load(), f.skipped.Load() + f.dropped.Load()
}

func toNotification(a types.PatternAlert, ev channel.Event) notifier.PatternAlert {
	source := notifier.SourceLive
	if ev.Simulated {
		source = notifier.SourceSimulated
	}

	ts, err := time.Parse(time.RFC3339, a.Timestamp)
	if err != nil {
		ts = ev.ReceivedAt
	}

	timeframe, _ := a.Metadata["timeframe"].(string)

	return notifier.PatternAlert{
		ID:            a.ID,
		Symbol:        a.Symbol,
		AlertType:     a.AlertType,
		ConfidencePct: a.ConfidencePct,
		Price:         a.Price,
		Timeframe:     timeframe,
		Source:        source,
		Timestamp:     ts,
	}
}
