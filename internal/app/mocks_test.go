package app

import (
	"context"
	"sync"
	"time"
	clts "txlive/clients"
	"txlive/clients/notifier"
	"txlive/clients/txapi"
	"txlive/config"
	"txlive/internal/types"
)

// MockNotifier records every alert it is sent.
type MockNotifier struct {
	mu     sync.Mutex
	alerts []notifier.PatternAlert
	closed bool
}

func (m *MockNotifier) SendPatternAlert(alert notifier.PatternAlert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alert)
}

func (m *MockNotifier) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Alerts returns a copy of the recorded alerts.
func (m *MockNotifier) Alerts() []notifier.PatternAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notifier.PatternAlert(nil), m.alerts...)
}

func (m *MockNotifier) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockMarketAPI returns canned results and counts calls.
type MockMarketAPI struct {
	mu    sync.Mutex
	calls map[string]int

	Trending  []types.Mover
	Volume    []types.Mover
	Synthetic bool
	Delay     time.Duration
}

func NewMockMarketAPI() *MockMarketAPI {
	return &MockMarketAPI{calls: make(map[string]int)}
}

func (m *MockMarketAPI) record(name string) {
	m.mu.Lock()
	m.calls[name]++
	m.mu.Unlock()
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
}

// Calls returns how often name was requested.
func (m *MockMarketAPI) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockMarketAPI) Health(ctx context.Context) txapi.Result[types.Health] {
	m.record("health")
	return txapi.Result[types.Health]{Data: types.Health{Status: "healthy"}, Synthetic: m.Synthetic}
}

func (m *MockMarketAPI) ProviderHealth(ctx context.Context) txapi.Result[map[string]types.ProviderStatus] {
	m.record("provider_health")
	return txapi.Result[map[string]types.ProviderStatus]{Data: map[string]types.ProviderStatus{"yfinance": {OK: true}}, Synthetic: m.Synthetic}
}

func (m *MockMarketAPI) MarketScan(ctx context.Context, kind string) txapi.Result[[]types.Mover] {
	m.record("market_scan_" + kind)
	data := m.Trending
	if kind == "volume" {
		data = m.Volume
	}
	return txapi.Result[[]types.Mover]{Data: data, Synthetic: m.Synthetic}
}

func (m *MockMarketAPI) MarketData(ctx context.Context, symbol string) txapi.Result[types.Mover] {
	m.record("market_data")
	return txapi.Result[types.Mover]{Data: types.Mover{Symbol: symbol}, Synthetic: m.Synthetic}
}

func (m *MockMarketAPI) ScanStatus(ctx context.Context) txapi.Result[types.ScanStatus] {
	m.record("scan_status")
	return txapi.Result[types.ScanStatus]{Data: types.ScanStatus{Active: true, SymbolsScanned: 42}, Synthetic: m.Synthetic}
}

func (m *MockMarketAPI) ActiveAlerts(ctx context.Context) txapi.Result[[]types.Alert] {
	m.record("active_alerts")
	return txapi.Result[[]types.Alert]{Data: []types.Alert{{ID: 1, Symbol: "AAPL"}}, Synthetic: m.Synthetic}
}

func (m *MockMarketAPI) Coverage(ctx context.Context) txapi.Result[types.Coverage] {
	m.record("coverage")
	return txapi.Result[types.Coverage]{Data: types.Coverage{SymbolsCovered: 150}, Synthetic: m.Synthetic}
}

func (m *MockMarketAPI) AnalyticsSummary(ctx context.Context) txapi.Result[types.AnalyticsSummary] {
	m.record("analytics_summary")
	return txapi.Result[types.AnalyticsSummary]{Data: types.AnalyticsSummary{TotalSymbols: 150}, Synthetic: m.Synthetic}
}

// staticBackend is a fixed BackendStatus.
type staticBackend struct {
	available bool
	demo      bool
}

func (s staticBackend) IsBackendAvailable() bool { return s.available }
func (s staticBackend) IsDemoMode() bool         { return s.demo }

// demoConfig returns a config that never touches the network and runs fast.
func demoConfig() *config.Config {
	cfg := config.Defaults()
	cfg.DemoMode = true
	cfg.Gateway.SimulatedLatency = 0
	cfg.Channel.HandshakeDelay = time.Millisecond
	cfg.Channel.SimulationInterval = 5 * time.Millisecond
	cfg.Poll.Interval = time.Hour
	cfg.StatusServer.Enabled = false
	return cfg
}

// newDemoClients builds real clients over cfg with a recording notifier.
func newDemoClients(cfg *config.Config) (*clts.Clients, *MockNotifier) {
	clients := clts.NewClients(nil, cfg, nil)
	n := &MockNotifier{}
	clients.Notifier = n
	return clients, n
}
