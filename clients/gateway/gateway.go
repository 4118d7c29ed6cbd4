package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"txlive/clients/mockdata"
	"txlive/config"
	"txlive/internal/observability"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HealthPath is probed to detect backend recovery.
const HealthPath = "/health"

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Gateway runs every backend call, substituting synthetic data whenever the
// live call is skipped or fails. Execute never returns an error.
type Gateway struct {
	logger           *zap.Logger
	httpClient       Doer
	baseURL          string
	demoMode         bool
	simulatedLatency time.Duration
	flipOnAnyFailure bool
	availability     *Availability
	metrics          *observability.Metrics
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c Doer) Option {
	return func(g *Gateway) {
		g.httpClient = c
	}
}

// WithAvailability shares an existing availability flag.
func WithAvailability(a *Availability) Option {
	return func(g *Gateway) {
		g.availability = a
	}
}

// WithMetrics records calls and failures.
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

func NewGateway(logger *zap.Logger, cfg *config.Config, opts ...Option) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Gateway{
		logger: logger,
		httpClient: &http.Client{
			Timeout: cfg.Gateway.RequestTimeout,
		},
		baseURL:          strings.TrimRight(cfg.Backend.APIBase, "/"),
		demoMode:         cfg.DemoMode,
		simulatedLatency: cfg.Gateway.SimulatedLatency,
		flipOnAnyFailure: cfg.Gateway.FlipOnAnyFailure,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.availability == nil {
		g.availability = NewAvailability()
	}
	g.metrics.SetBackendAvailable(g.availability.Available())
	return g
}

// Availability returns the flag this gateway writes.
func (g *Gateway) Availability() *Availability {
	return g.availability
}

// IsBackendAvailable reports the outcome of the most recent live call.
func (g *Gateway) IsBackendAvailable() bool {
	return g.availability.Available()
}

// IsDemoMode reports whether responses are currently synthetic: demo mode
// is configured or the backend is marked unavailable.
func (g *Gateway) IsDemoMode() bool {
	return g.demoMode || !g.availability.Available()
}

// DemoModeConfigured reports the startup demo mode setting alone.
func (g *Gateway) DemoModeConfigured() bool {
	return g.demoMode
}

// Execute performs d. When demo mode is on or the backend is marked
// unavailable the live call is skipped. Any live failure is absorbed and
// answered with d's synthetic payload after the simulated latency.
func (g *Gateway) Execute(ctx context.Context, d Descriptor) Response {
	name := d.label()

	if g.demoMode || !g.availability.Available() {
		g.metrics.RecordGatewayCall(name, observability.OutcomeSkipped)
		return g.synthetic(ctx, d)
	}

	start := time.Now()
	resp, err := g.call(ctx, d)
	g.metrics.ObserveGatewayLatency(name, time.Since(start).Seconds())

	if err == nil {
		g.markAvailable(name)
		g.metrics.RecordGatewayCall(name, observability.OutcomeLive)
		return resp
	}

	kind := Classify(err)
	g.metrics.RecordGatewayFailure(kind.String())
	g.metrics.RecordGatewayCall(name, observability.OutcomeFallback)

	switch {
	case ctx.Err() != nil:
		// The caller went away; that says nothing about the backend.
		g.logger.Debug("live call abandoned by caller",
			zap.String("request", name),
			zap.Error(err),
		)
	case kind == TransportFailure || g.flipOnAnyFailure:
		g.markUnavailable(name, err)
	default:
		g.logger.Warn("live call failed, using synthetic data",
			zap.String("request", name),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
	}

	return g.synthetic(ctx, d)
}

// Probe sends a live health check regardless of the availability flag and
// records the outcome. It never calls out in demo mode.
func (g *Gateway) Probe(ctx context.Context) bool {
	if g.demoMode {
		return false
	}

	_, err := g.call(ctx, Descriptor{Name: "probe", Path: HealthPath})
	if err == nil {
		g.markAvailable("probe")
		return true
	}

	if ctx.Err() == nil && (Classify(err) == TransportFailure || g.flipOnAnyFailure) {
		g.markUnavailable("probe", err)
	} else {
		g.logger.Debug("health probe failed", zap.Error(err))
	}
	return false
}

func (g *Gateway) markAvailable(name string) {
	if g.availability.set(true) {
		g.logger.Info("backend reachable again, live data restored",
			zap.String("request", name),
		)
	}
	g.metrics.SetBackendAvailable(true)
}

func (g *Gateway) markUnavailable(name string, err error) {
	if g.availability.set(false) {
		g.logger.Warn("backend unavailable, switching to synthetic data",
			zap.String("request", name),
			zap.Error(err),
		)
	} else {
		g.logger.Debug("live call failed", zap.String("request", name), zap.Error(err))
	}
	g.metrics.SetBackendAvailable(false)
}

func (g *Gateway) synthetic(ctx context.Context, d Descriptor) Response {
	// Cancellation only shortens the wait; the caller still gets a value.
	_ = mockdata.Delay(ctx, g.simulatedLatency)

	var payload any
	if d.Fallback != nil {
		payload = d.Fallback()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		g.logger.Error("encode synthetic payload",
			zap.String("request", d.label()),
			zap.Error(err),
		)
		data = json.RawMessage("null")
	}

	return Response{
		Success:   true,
		Data:      data,
		Message:   mockdata.ResponseMessage,
		Synthetic: true,
	}
}

func (g *Gateway) call(ctx context.Context, d Descriptor) (Response, error) {
	op := d.label()

	u := g.baseURL + d.Path
	if len(d.Query) > 0 {
		u += "?" + d.Query.Encode()
	}

	var body io.Reader
	if d.Body != nil {
		b, err := json.Marshal(d.Body)
		if err != nil {
			return Response{}, applicationError(op, 0, fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, d.method(), u, body)
	if err != nil {
		return Response{}, applicationError(op, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Response{}, transportError(op, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, transportError(op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode/100 != 2 {
		return Response{}, applicationError(op, resp.StatusCode, fmt.Errorf("body=%s", truncate(raw, 256)))
	}

	data, msg, err := parseBody(raw)
	if err != nil {
		return Response{}, applicationError(op, resp.StatusCode, err)
	}
	if d.Normalize != nil {
		data = d.Normalize(raw, data)
	}

	return Response{
		Success: true,
		Data:    data,
		Message: msg,
		Status:  resp.StatusCode,
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
