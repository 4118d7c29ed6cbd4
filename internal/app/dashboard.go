package app

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"
	"txlive/clients/txapi"
	"txlive/internal/types"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxMovers caps the merged overview list.
const maxMovers = 8

// healthPanelSymbol is the symbol used to probe the market data route.
const healthPanelSymbol = "AAPL"

// MarketAPI is the subset of the backend catalog the dashboard polls.
// *txapi.Client satisfies it.
type MarketAPI interface {
	Health(ctx context.Context) txapi.Result[types.Health]
	ProviderHealth(ctx context.Context) txapi.Result[map[string]types.ProviderStatus]
	MarketScan(ctx context.Context, kind string) txapi.Result[[]types.Mover]
	MarketData(ctx context.Context, symbol string) txapi.Result[types.Mover]
	ScanStatus(ctx context.Context) txapi.Result[types.ScanStatus]
	ActiveAlerts(ctx context.Context) txapi.Result[[]types.Alert]
	Coverage(ctx context.Context) txapi.Result[types.Coverage]
	AnalyticsSummary(ctx context.Context) txapi.Result[types.AnalyticsSummary]
}

// BackendStatus exposes the gateway flags. *gateway.Gateway satisfies it.
type BackendStatus interface {
	IsBackendAvailable() bool
	IsDemoMode() bool
}

// Snapshot is the latest polled view of the backend.
type Snapshot struct {
	Movers     []types.Mover          `json:"movers"`
	Coverage   types.Coverage         `json:"coverage"`
	Analytics  types.AnalyticsSummary `json:"analytics"`
	Alerts     []types.Alert          `json:"alerts"`
	ScanStatus types.ScanStatus       `json:"scan_status"`

	// Synthetic marks which sections were served from fallback data.
	Synthetic map[string]bool `json:"synthetic"`

	OverviewAt   time.Time `json:"overview_at"`
	AlertsAt     time.Time `json:"alerts_at"`
	ScanStatusAt time.Time `json:"scan_status_at"`
}

type HealthCheck struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	LatencyMS int64  `json:"latency_ms"`
	Synthetic bool   `json:"synthetic"`
}

type HealthPanel struct {
	Checks           []HealthCheck `json:"checks"`
	BackendAvailable bool          `json:"backend_available"`
	DemoMode         bool          `json:"demo_mode"`
	CheckedAt        time.Time     `json:"checked_at"`
}

// Dashboard keeps the polled snapshot and health panel.
type Dashboard struct {
	logger  *zap.Logger
	api     MarketAPI
	backend BackendStatus

	mu    sync.RWMutex
	snap  Snapshot
	panel HealthPanel
}

func NewDashboard(logger *zap.Logger, api MarketAPI, backend BackendStatus) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{
		logger:  logger,
		api:     api,
		backend: backend,
		snap:    Snapshot{Synthetic: make(map[string]bool)},
	}
}

// RefreshOverview loads movers, coverage and analytics concurrently.
func (d *Dashboard) RefreshOverview(ctx context.Context) error {
	var (
		trending, volume txapi.Result[[]types.Mover]
		coverage         txapi.Result[types.Coverage]
		analytics        txapi.Result[types.AnalyticsSummary]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		trending = d.api.MarketScan(gctx, "trending")
		return gctx.Err()
	})
	g.Go(func() error {
		volume = d.api.MarketScan(gctx, "volume")
		return gctx.Err()
	})
	g.Go(func() error {
		coverage = d.api.Coverage(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		analytics = d.api.AnalyticsSummary(gctx)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return err
	}

	movers := mergeMovers(trending.Data, volume.Data, maxMovers)

	d.mu.Lock()
	d.snap.Movers = movers
	d.snap.Coverage = coverage.Data
	d.snap.Analytics = analytics.Data
	d.snap.Synthetic["movers"] = trending.Synthetic || volume.Synthetic
	d.snap.Synthetic["coverage"] = coverage.Synthetic
	d.snap.Synthetic["analytics"] = analytics.Synthetic
	d.snap.OverviewAt = time.Now()
	d.mu.Unlock()

	d.logger.Debug("overview refreshed",
		zap.Int("movers", len(movers)),
		zap.Bool("synthetic", trending.Synthetic || volume.Synthetic),
	)
	return nil
}

func (d *Dashboard) RefreshAlerts(ctx context.Context) error {
	res := d.api.ActiveAlerts(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	d.snap.Alerts = res.Data
	d.snap.Synthetic["alerts"] = res.Synthetic
	d.snap.AlertsAt = time.Now()
	d.mu.Unlock()
	return nil
}

func (d *Dashboard) RefreshScanStatus(ctx context.Context) error {
	res := d.api.ScanStatus(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	d.snap.ScanStatus = res.Data
	d.snap.Synthetic["scan_status"] = res.Synthetic
	d.snap.ScanStatusAt = time.Now()
	d.mu.Unlock()
	return nil
}

// RefreshHealthPanel probes each backend area in turn and times it.
func (d *Dashboard) RefreshHealthPanel(ctx context.Context) error {
	probes := []struct {
		name string
		call func(ctx context.Context) bool
	}{
		{"health", func(ctx context.Context) bool { return d.api.Health(ctx).Synthetic }},
		{"provider_health", func(ctx context.Context) bool { return d.api.ProviderHealth(ctx).Synthetic }},
		{"scan_status", func(ctx context.Context) bool { return d.api.ScanStatus(ctx).Synthetic }},
		{"market_data", func(ctx context.Context) bool { return d.api.MarketData(ctx, healthPanelSymbol).Synthetic }},
		{"active_alerts", func(ctx context.Context) bool { return d.api.ActiveAlerts(ctx).Synthetic }},
	}

	checks := make([]HealthCheck, 0, len(probes))
	for _, p := range probes {
		start := time.Now()
		synthetic := p.call(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		checks = append(checks, HealthCheck{
			Name:      p.name,
			OK:        !synthetic,
			LatencyMS: time.Since(start).Milliseconds(),
			Synthetic: synthetic,
		})
	}

	panel := HealthPanel{
		Checks:           checks,
		BackendAvailable: d.backend.IsBackendAvailable(),
		DemoMode:         d.backend.IsDemoMode(),
		CheckedAt:        time.Now(),
	}

	d.mu.Lock()
	d.panel = panel
	d.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current snapshot.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := d.snap
	s.Movers = append([]types.Mover(nil), d.snap.Movers...)
	s.Alerts = append([]types.Alert(nil), d.snap.Alerts...)
	s.Synthetic = make(map[string]bool, len(d.snap.Synthetic))
	for k, v := range d.snap.Synthetic {
		s.Synthetic[k] = v
	}
	return s
}

func (d *Dashboard) HealthPanel() HealthPanel {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p := d.panel
	p.Checks = append([]HealthCheck(nil), d.panel.Checks...)
	return p
}

// mergeMovers joins both lists, keeps the first row per symbol, orders by
// absolute percentage change and keeps at most limit rows.
func mergeMovers(a, b []types.Mover, limit int) []types.Mover {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]types.Mover, 0, len(a)+len(b))
	for _, list := range [][]types.Mover{a, b} {
		for _, m := range list {
			if _, ok := seen[m.Symbol]; ok {
				continue
			}
			seen[m.Symbol] = struct{}{}
			out = append(out, m)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].ChangePct) > math.Abs(out[j].ChangePct)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
