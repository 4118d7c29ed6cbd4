// Package observability defines the Prometheus metrics exported by txlive.
//
// Every recording method is safe on a nil *Metrics so components can be
// constructed without metrics in tests.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "txlive"

const (
	gatewaySubsystem = "gateway"
	channelSubsystem = "channel"
	pollSubsystem    = "poll"
	statusSubsystem  = "status"
)

// Gateway call outcomes.
const (
	OutcomeLive     = "live"
	OutcomeFallback = "fallback"
	OutcomeSkipped  = "skipped"
)

// Poll run results.
const (
	PollOK      = "ok"
	PollError   = "error"
	PollPanic   = "panic"
	PollSkipped = "skipped"
)

// Metrics holds all collectors.
type Metrics struct {
	// GatewayCalls counts Execute calls.
	// Labels: request (descriptor name), outcome (live, fallback, skipped)
	GatewayCalls *prometheus.CounterVec

	// GatewayFailures counts failed live calls.
	// Labels: kind (transport, application)
	GatewayFailures *prometheus.CounterVec

	// GatewayLatencySeconds measures live call latency.
	// Labels: request
	GatewayLatencySeconds *prometheus.HistogramVec

	// BackendAvailable is 1 while the availability flag is set.
	BackendAvailable prometheus.Gauge

	// ChannelState is 1 for the current connection state, 0 for the rest.
	// Labels: state
	ChannelState *prometheus.GaugeVec

	// ChannelDialsTotal counts real connection attempts.
	// Labels: result (success, error)
	ChannelDialsTotal *prometheus.CounterVec

	// ChannelEventsTotal counts dispatched events.
	// Labels: category, source (live, simulated)
	ChannelEventsTotal *prometheus.CounterVec

	// PollRunsTotal counts poll task ticks.
	// Labels: task, result (ok, error, panic, skipped)
	PollRunsTotal *prometheus.CounterVec

	// StatusViewers tracks connected event stream viewers.
	StatusViewers prometheus.Gauge
}

// NewMetrics registers all collectors with reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		GatewayCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: gatewaySubsystem,
				Name:      "calls_total",
				Help:      "Total gateway calls by request and outcome",
			},
			[]string{"request", "outcome"},
		),

		GatewayFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: gatewaySubsystem,
				Name:      "failures_total",
				Help:      "Total failed live calls by failure kind",
			},
			[]string{"kind"},
		),

		GatewayLatencySeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: gatewaySubsystem,
				Name:      "latency_seconds",
				Help:      "Live call latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"request"},
		),

		BackendAvailable: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: gatewaySubsystem,
				Name:      "backend_available",
				Help:      "1 when the backend is considered reachable",
			},
		),

		ChannelState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: channelSubsystem,
				Name:      "state",
				Help:      "Current event channel state",
			},
			[]string{"state"},
		),

		ChannelDialsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: channelSubsystem,
				Name:      "dials_total",
				Help:      "Total event channel connection attempts by result",
			},
			[]string{"result"},
		),

		ChannelEventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: channelSubsystem,
				Name:      "events_total",
				Help:      "Total dispatched events by category and source",
			},
			[]string{"category", "source"},
		),

		PollRunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pollSubsystem,
				Name:      "runs_total",
				Help:      "Total poll ticks by task and result",
			},
			[]string{"task", "result"},
		),

		StatusViewers: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: statusSubsystem,
				Name:      "viewers",
				Help:      "Connected event stream viewers",
			},
		),
	}
}

func (m *Metrics) RecordGatewayCall(request, outcome string) {
	if m == nil {
		return
	}
	m.GatewayCalls.WithLabelValues(request, outcome).Inc()
}

func (m *Metrics) RecordGatewayFailure(kind string) {
	if m == nil {
		return
	}
	m.GatewayFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveGatewayLatency(request string, seconds float64) {
	if m == nil {
		return
	}
	m.GatewayLatencySeconds.WithLabelValues(request).Observe(seconds)
}

func (m *Metrics) SetBackendAvailable(available bool) {
	if m == nil {
		return
	}
	if available {
		m.BackendAvailable.Set(1)
	} else {
		m.BackendAvailable.Set(0)
	}
}

// SetChannelState marks current as the only active state out of all.
func (m *Metrics) SetChannelState(current string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		m.ChannelState.WithLabelValues(s).Set(v)
	}
}

func (m *Metrics) RecordChannelDial(success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "error"
	}
	m.ChannelDialsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordChannelEvent(category string, simulated bool) {
	if m == nil {
		return
	}
	source := "live"
	if simulated {
		source = "simulated"
	}
	m.ChannelEventsTotal.WithLabelValues(category, source).Inc()
}

func (m *Metrics) RecordPollRun(task, result string) {
	if m == nil {
		return
	}
	m.PollRunsTotal.WithLabelValues(task, result).Inc()
}

func (m *Metrics) SetStatusViewers(n int) {
	if m == nil {
		return
	}
	m.StatusViewers.Set(float64(n))
}
