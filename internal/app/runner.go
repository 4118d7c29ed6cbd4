package app

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"runtime/debug"
	"time"
	clts "txlive/clients"
	"txlive/clients/channel"
	"txlive/config"
	"txlive/internal/observability"
	"txlive/internal/poll"
	"txlive/internal/types"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Build info - populated from embedded VCS info at init time
var (
	BuildCommit = "dev"
	BuildTime   = "unknown"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if setting.Value != "" {
					BuildCommit = setting.Value
				}
			case "vcs.time":
				BuildTime = setting.Value
			}
		}
	}
}

var errBackendUnavailable = errors.New("backend still unavailable")

// Feed name for dashboard snapshot pushes on the event stream.
const snapshotFeed = "snapshot"

type Runner struct {
	clients  *clts.Clients
	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *observability.Metrics

	// page is visible while at least one viewer is streaming events.
	page       *poll.Page
	scheduler  *poll.Scheduler
	background *poll.Scheduler

	dashboard    *Dashboard
	broker       *Broker
	forwarder    *AlertForwarder
	statusServer *http.Server
	startTime    time.Time

	unsubscribe []func()
}

// ServiceStats holds comprehensive service statistics.
type ServiceStats struct {
	// Build info
	Build struct {
		Commit    string `json:"commit"`
		Time      string `json:"time,omitempty"`
		GoVersion string `json:"go_version"`
	} `json:"build"`

	// Service info
	StartTime string `json:"start_time"`
	Uptime    string `json:"uptime"`
	UptimeSec int64  `json:"uptime_seconds"`

	// Request gateway
	Backend struct {
		Available      bool   `json:"available"`
		DemoMode       bool   `json:"demo_mode"` // configured demo or backend unavailable
		DemoConfigured bool   `json:"demo_configured"`
		ChangedAt      string `json:"changed_at,omitempty"`
	} `json:"backend"`

	// Event channel
	Channel struct {
		channel.Stats
		Connected bool `json:"connected"`
		Simulated bool `json:"simulated"`
	} `json:"channel"`

	Poll []poll.TaskStats `json:"poll"`

	Viewers int  `json:"viewers"`
	Visible bool `json:"visible"`

	Alerts struct {
		Forwarded uint64 `json:"forwarded"`
		Skipped   uint64 `json:"skipped"`
	} `json:"alerts"`

	// Notification status
	Notifications struct {
		DiscordEnabled   bool   `json:"discord_enabled"`
		DiscordChannelID string `json:"discord_channel_id,omitempty"`
	} `json:"notifications"`

	// Runtime stats
	Runtime struct {
		Goroutines int    `json:"goroutines"`
		HeapAlloc  uint64 `json:"heap_alloc"` // bytes currently allocated on heap
		HeapSys    uint64 `json:"heap_sys"`   // bytes obtained from system for heap
		NumGC      uint32 `json:"num_gc"`     // number of completed GC cycles
		GoVersion  string `json:"go_version"`
		NumCPU     int    `json:"num_cpu"`
	} `json:"runtime"`
}

// NewRunner wires the dashboard consumers around clients. registry may be nil,
// in which case /metrics serves an empty registry.
func NewRunner(clients *clts.Clients, cfg *config.Config, registry *prometheus.Registry, metrics *observability.Metrics) *Runner {
	logger := clients.Logger
	if logger == nil {
		logger = zap.NewNop()
		clients.Logger = logger
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	r := &Runner{
		clients:  clients,
		cfg:      cfg,
		registry: registry,
		metrics:  metrics,
	}

	// Without a status server nobody can watch, so polling is never paused.
	var vis poll.Visibility = poll.AlwaysVisible
	if cfg.StatusServer.Enabled {
		r.page = poll.NewPage(false)
		vis = r.page
	}

	r.scheduler = poll.NewScheduler(logger, vis, poll.WithMetrics(metrics))
	r.background = poll.NewScheduler(logger, poll.AlwaysVisible, poll.WithMetrics(metrics))
	r.broker = NewBroker(r.onViewers)
	r.dashboard = NewDashboard(logger, clients.API, clients.Gateway)
	r.forwarder = NewAlertForwarder(logger, clients.Notifier, cfg.Discord.ForwardSynthetic)
	return r
}

func (r *Runner) onViewers(n int) {
	r.metrics.SetStatusViewers(n)
	if r.page != nil {
		r.page.SetVisible(n > 0)
	}
}

// Run starts the event channel, the poll tasks and the status server, then
// blocks until ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	r.startTime = time.Now()
	logger := r.clients.Logger

	logger.Info("starting txlive",
		zap.String("apiBase", r.cfg.Backend.APIBase),
		zap.String("socketURL", r.cfg.SocketURL()),
		zap.Bool("demoMode", r.cfg.DemoMode),
		zap.Duration("pollInterval", r.cfg.Poll.Interval),
	)

	r.bindChannel()

	if r.cfg.StatusServer.Enabled {
		r.startStatusServer(r.cfg.StatusServer.Port)
		logger.Info("status server started", zap.Int("port", r.cfg.StatusServer.Port))
	}

	go func() {
		if err := r.clients.Channel.Connect(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("event channel connect ended", zap.Error(err))
		}
	}()

	r.schedule(ctx)

	<-ctx.Done()
	logger.Info("shutting down")
	r.shutdown()
	return nil
}

// bindChannel routes every channel category to the event stream, pattern
// alerts to the forwarder, and asks for server pushes on each live connect.
func (r *Runner) bindChannel() {
	ch := r.clients.Channel

	for _, cat := range channel.Categories {
		r.unsubscribe = append(r.unsubscribe, ch.Subscribe(cat, func(ev channel.Event) {
			r.broker.Publish(StreamEvent{Feed: string(ev.Category), Payload: string(ev.Payload)})
		}))
	}

	r.unsubscribe = append(r.unsubscribe,
		ch.Subscribe(channel.PatternAlert, r.forwarder.Handle),
		ch.OnConnectionStatus(func(s types.ConnectionStatus) {
			if s.Connected && ch.IsConnected() {
				ch.SubscribeToAll()
			}
		}),
	)
}

func (r *Runner) schedule(ctx context.Context) {
	interval := r.cfg.Poll.Interval
	opts := poll.Options{Enabled: true, Immediate: true}

	r.scheduler.Schedule(ctx, "overview", r.refreshOverview, interval, opts)
	r.scheduler.Schedule(ctx, "alerts", r.dashboard.RefreshAlerts, interval, opts)
	r.scheduler.Schedule(ctx, "scan_status", r.dashboard.RefreshScanStatus, interval, opts)
	r.scheduler.Schedule(ctx, "health_panel", r.dashboard.RefreshHealthPanel, interval, opts)

	r.background.Schedule(ctx, "recovery", r.probeBackend, r.cfg.Gateway.RecoveryInterval, poll.Options{
		Enabled: !r.cfg.DemoMode,
	})
}

func (r *Runner) refreshOverview(ctx context.Context) error {
	if err := r.dashboard.RefreshOverview(ctx); err != nil {
		return err
	}
	if r.broker.ClientCount() == 0 {
		return nil
	}
	return r.broker.PublishJSON(snapshotFeed, r.dashboard.Snapshot())
}

// probeBackend probes the backend while the gateway is serving fallbacks.
func (r *Runner) probeBackend(ctx context.Context) error {
	gw := r.clients.Gateway
	if gw.IsBackendAvailable() {
		return nil
	}
	if !gw.Probe(ctx) {
		return errBackendUnavailable
	}
	r.clients.Logger.Info("backend recovered")
	return nil
}

func (r *Runner) shutdown() {
	logger := r.clients.Logger

	r.scheduler.StopAll()
	r.background.StopAll()

	for _, unsub := range r.unsubscribe {
		unsub()
	}
	r.clients.Channel.Disconnect()

	if r.statusServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.statusServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("status server shutdown failed", zap.Error(err))
		}
	}

	r.forwarder.Close()

	if r.clients.Notifier != nil {
		if err := r.clients.Notifier.Close(); err != nil {
			logger.Warn("notifier close failed", zap.Error(err))
		}
	}
}

func (r *Runner) GetStats() ServiceStats {
	var stats ServiceStats

	// Build info
	stats.Build.Commit = BuildCommit
	stats.Build.Time = BuildTime
	stats.Build.GoVersion = runtime.Version()

	// Service info
	if !r.startTime.IsZero() {
		stats.StartTime = r.startTime.UTC().Format(time.RFC3339)
		uptime := time.Since(r.startTime)
		stats.Uptime = uptime.Round(time.Second).String()
		stats.UptimeSec = int64(uptime.Seconds())
	}

	gw := r.clients.Gateway
	stats.Backend.Available = gw.IsBackendAvailable()
	stats.Backend.DemoMode = gw.IsDemoMode()
	stats.Backend.DemoConfigured = gw.DemoModeConfigured()
	if changed := gw.Availability().ChangedAt(); !changed.IsZero() {
		stats.Backend.ChangedAt = changed.UTC().Format(time.RFC3339)
	}

	ch := r.clients.Channel
	stats.Channel.Stats = ch.Stats()
	stats.Channel.Connected = ch.IsConnected()
	stats.Channel.Simulated = ch.IsSimulated()

	stats.Poll = append(r.scheduler.Stats(), r.background.Stats()...)

	stats.Viewers = r.broker.ClientCount()
	stats.Visible = r.page == nil || r.page.Visible()

	stats.Alerts.Forwarded, stats.Alerts.Skipped = r.forwarder.Counts()

	if r.clients.Discord != nil {
		stats.Notifications.DiscordEnabled = r.clients.Discord.Enabled()
		stats.Notifications.DiscordChannelID = r.cfg.Discord.ChannelID
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	stats.Runtime.Goroutines = runtime.NumGoroutine()
	stats.Runtime.HeapAlloc = mem.HeapAlloc
	stats.Runtime.HeapSys = mem.HeapSys
	stats.Runtime.NumGC = mem.NumGC
	stats.Runtime.GoVersion = runtime.Version()
	stats.Runtime.NumCPU = runtime.NumCPU()

	return stats
}
