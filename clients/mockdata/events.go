package mockdata

import (
	"math/rand"
	"sync"
	"time"
	"txlive/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Candidate values drawn from by the event generator.
var (
	Symbols    = []string{"AAPL", "TSLA", "MSFT", "NVDA"}
	AlertTypes = []string{"Bullish Engulfing", "Hammer", "Doji"}
)

// Probability gates applied on every simulated tick.
const (
	ScanUpdateThreshold   = 0.7
	PatternAlertThreshold = 0.8
)

// Alert confidence and price ranges.
const (
	MinAlertConfidence = 65.0
	MaxAlertConfidence = 95.0
	MinAlertPrice      = 100.0
	MaxAlertPrice      = 500.0
)

// Source yields uniformly distributed floats in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Generator produces randomized channel events. Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	src Source
	now func() time.Time
}

// NewGenerator creates a generator over src. A nil src uses a time-seeded source.
func NewGenerator(src Source) *Generator {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{
		src: src,
		now: time.Now,
	}
}

func (g *Generator) float() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.src.Float64()
}

func (g *Generator) pick(values []string) string {
	i := int(g.float() * float64(len(values)))
	if i >= len(values) {
		i = len(values) - 1
	}
	return values[i]
}

func (g *Generator) timestamp() string {
	return g.now().UTC().Format(time.RFC3339)
}

// ConnectionStatus builds a connection status event stamped now.
func (g *Generator) ConnectionStatus(connected bool) types.ConnectionStatus {
	return types.ConnectionStatus{Connected: connected, Timestamp: g.timestamp()}
}

// SubscriptionStatus reports both server streams as active.
func (g *Generator) SubscriptionStatus() types.SubscriptionStatus {
	return types.SubscriptionStatus{Alerts: true, ScanResults: true, Timestamp: g.timestamp()}
}

// ScanUpdate builds a random scan update.
func (g *Generator) ScanUpdate() types.ScanUpdate {
	return types.ScanUpdate{
		Symbol: g.pick(Symbols),
		IntradayPatterns: []types.PatternMatch{
			{Name: "Bullish Engulfing", Confidence: round2(75 + g.float()*20)},
		},
		ContextPatterns: []types.PatternMatch{
			{Name: "Uptrend", Confidence: round2(80 + g.float()*15)},
		},
		Timestamp: g.timestamp(),
	}
}

// PatternAlert builds a random pattern alert.
func (g *Generator) PatternAlert() types.PatternAlert {
	return types.PatternAlert{
		ID:            uuid.NewString(),
		Symbol:        g.pick(Symbols),
		AlertType:     g.pick(AlertTypes),
		ConfidencePct: round2(MinAlertConfidence + g.float()*(MaxAlertConfidence-MinAlertConfidence)),
		Price:         round2(MinAlertPrice + g.float()*(MaxAlertPrice-MinAlertPrice)),
		Timestamp:     g.timestamp(),
		Metadata:      map[string]any{"timeframe": "1h"},
	}
}

// Tick runs one generator step. Each event kind is produced only when its
// probability gate passes, so either result may be nil.
func (g *Generator) Tick() (*types.ScanUpdate, *types.PatternAlert) {
	var (
		scan  *types.ScanUpdate
		alert *types.PatternAlert
	)
	if g.float() > ScanUpdateThreshold {
		s := g.ScanUpdate()
		scan = &s
	}
	if g.float() > PatternAlertThreshold {
		a := g.PatternAlert()
		alert = &a
	}
	return scan, alert
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
