package app

import (
	"encoding/json"
	"testing"
	"time"
	"txlive/clients/channel"
	"txlive/clients/notifier"
	"txlive/internal/types"
)

func alertEvent(t *testing.T, a types.PatternAlert, simulated bool) channel.Event {
	t.Helper()
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal alert: %v", err)
	}
	return channel.Event{
		Category:   channel.PatternAlert,
		Payload:    b,
		Simulated:  simulated,
		ReceivedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAlertForwarder_ForwardsLiveAlerts(t *testing.T) {
	n := &MockNotifier{}
	f := NewAlertForwarder(nil, n, false)

	f.Handle(alertEvent(t, types.PatternAlert{
		ID:            "a1",
		Symbol:        "NVDA",
		AlertType:     "Hammer",
		ConfidencePct: 77.7,
		Price:         455.1,
		Timestamp:     "2024-05-01T11:59:00Z",
		Metadata:      map[string]any{"timeframe": "1h"},
	}, false))
	f.Close()

	alerts := n.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
	got := alerts[0]
	if got.Symbol != "NVDA" || got.Timeframe != "1h" || got.Source != notifier.SourceLive {
		t.Errorf("unexpected alert: %+v", got)
	}
	if !got.Timestamp.Equal(time.Date(2024, 5, 1, 11, 59, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp: %v", got.Timestamp)
	}
}

func TestAlertForwarder_SimulatedAlerts(t *testing.T) {
	tests := []struct {
		name             string
		forwardSynthetic bool
		want             int
	}{
		{name: "skipped by default", forwardSynthetic: false, want: 0},
		{name: "forwarded when enabled", forwardSynthetic: true, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &MockNotifier{}
			f := NewAlertForwarder(nil, n, tt.forwardSynthetic)

			f.Handle(alertEvent(t, types.PatternAlert{ID: "s1", Symbol: "AAPL", Timestamp: "not a time"}, true))
			f.Close()

			alerts := n.Alerts()
			if len(alerts) != tt.want {
				t.Fatalf("unexpected alerts: %+v", alerts)
			}
			if tt.want == 1 {
				if alerts[0].Source != notifier.SourceSimulated {
					t.Errorf("unexpected source: %s", alerts[0].Source)
				}
				// Unparseable timestamps fall back to receipt time.
				if alerts[0].Timestamp.Year() != 2024 {
					t.Errorf("unexpected timestamp: %v", alerts[0].Timestamp)
				}
			}
		})
	}
}

func TestAlertForwarder_DedupesByID(t *testing.T) {
	n := &MockNotifier{}
	f := NewAlertForwarder(nil, n, false)

	ev := alertEvent(t, types.PatternAlert{ID: "dup", Symbol: "MSFT"}, false)
	f.Handle(ev)
	f.Handle(ev)
	f.Handle(alertEvent(t, types.PatternAlert{Symbol: "MSFT"}, false))
	f.Handle(alertEvent(t, types.PatternAlert{Symbol: "MSFT"}, false))
	f.Close()

	forwarded, skipped := f.Counts()
	if forwarded != 3 || skipped != 1 {
		t.Errorf("unexpected counts: forwarded=%d skipped=%d", forwarded, skipped)
	}
	if len(n.Alerts()) != 3 {
		t.Errorf("unexpected alerts: %+v", n.Alerts())
	}
}

func TestAlertForwarder_BadPayload(t *testing.T) {
	n := &MockNotifier{}
	f := NewAlertForwarder(nil, n, false)

	f.Handle(channel.Event{Category: channel.PatternAlert, Payload: json.RawMessage(`[1,2]`)})
	f.Close()

	if len(n.Alerts()) != 0 {
		t.Error("expected undecodable alert to be dropped")
	}
}

// blockingNotifier holds every send until release is closed.
type blockingNotifier struct {
	MockNotifier
	release chan struct{}
}

func (b *blockingNotifier) SendPatternAlert(alert notifier.PatternAlert) {
	<-b.release
	b.MockNotifier.SendPatternAlert(alert)
}

func TestAlertForwarder_SlowNotifierDoesNotBlockHandle(t *testing.T) {
	n := &blockingNotifier{release: make(chan struct{})}
	f := NewAlertForwarder(nil, n, false)

	total := forwardQueueSize + 10
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			f.Handle(alertEvent(t, types.PatternAlert{Symbol: "AMD"}, false))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		close(n.release)
		t.Fatal("Handle blocked on a stalled notifier")
	}

	forwarded, skipped := f.Counts()
	if forwarded+skipped != uint64(total) || skipped == 0 {
		t.Errorf("unexpected counts: forwarded=%d skipped=%d", forwarded, skipped)
	}

	close(n.release)
	f.Close()
	if got := uint64(len(n.Alerts())); got != forwarded {
		t.Errorf("unexpected delivered alerts: got %d, want %d", got, forwarded)
	}

	// Alerts after Close are dropped, not delivered.
	f.Handle(alertEvent(t, types.PatternAlert{Symbol: "AMD"}, false))
	if uint64(len(n.Alerts())) != forwarded {
		t.Error("unexpected delivery after close")
	}
}
