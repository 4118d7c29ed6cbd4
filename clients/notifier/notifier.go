package notifier

import (
	"time"

	"go.uber.org/zap"
)

// Source tells where an alert came from.
type Source string

const (
	SourceLive      Source = "live"
	SourceSimulated Source = "simulated"
)

// PatternAlert contains all the data needed for a pattern alert notification.
type PatternAlert struct {
	ID        string
	Symbol    string
	AlertType string // Candlestick pattern name, e.g. "Hammer"

	ConfidencePct float64 // 0-100
	Price         float64
	Timeframe     string

	Source    Source
	Timestamp time.Time
}

// Notifier is the interface for sending pattern alerts to various channels.
type Notifier interface {
	SendPatternAlert(alert PatternAlert)

	// Close cleans up any resources.
	Close() error
}

// MultiNotifier broadcasts alerts to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	var active []Notifier
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &MultiNotifier{notifiers: active}
}

func (m *MultiNotifier) SendPatternAlert(alert PatternAlert) {
	for _, n := range m.notifiers {
		n.SendPatternAlert(alert)
	}
}

// Close closes all registered notifiers and returns the last error.
func (m *MultiNotifier) Close() error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (m *MultiNotifier) Count() int {
	return len(m.notifiers)
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) SendPatternAlert(alert PatternAlert) {
	l.logger.Info("pattern alert",
		zap.String("id", alert.ID),
		zap.String("symbol", alert.Symbol),
		zap.String("pattern", alert.AlertType),
		zap.Float64("confidence_pct", alert.ConfidencePct),
		zap.Float64("price", alert.Price),
		zap.String("source", string(alert.Source)),
	)
}

func (l *LogNotifier) Close() error {
	return nil
}
