package channel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"
	"txlive/clients/mockdata"
	"txlive/config"
	"txlive/internal/observability"
	"txlive/internal/types"

	"go.uber.org/zap"
)

// ErrDisconnected is returned by Connect when Disconnect ends the attempt it was waiting on.
var ErrDisconnected = errors.New("event channel disconnected")

// Outbound requests understood by the backend.
const (
	subscribeAlertsEvent      = "subscribe_alerts"
	subscribeScanResultsEvent = "subscribe_scan_results"
)

// Manager owns one logical event channel. It reconnects a bounded number of
// times with a fixed delay and then falls back to a locally simulated event
// stream for the rest of the session. Events are dispatched only while the
// state is Connected or SimulatedConnected.
type Manager struct {
	logger    *zap.Logger
	transport Transport
	generator *mockdata.Generator
	metrics   *observability.Metrics
	observer  func(from, to State)

	demoMode           bool
	maxAttempts        int
	reconnectDelay     time.Duration
	handshakeDelay     time.Duration
	simulationInterval time.Duration

	mu         sync.Mutex
	state      State
	generation uint64
	cancel     context.CancelFunc // Non-nil while a session is running
	ready      chan struct{}      // Closed when the session reaches a usable state
	conn       Conn
	handlers   map[Category][]*subscription
	nextSubID  uint64

	// Held for the whole of one event's dispatch so events never interleave.
	dispatchMu sync.Mutex

	frameCount      atomic.Uint64
	lastFrameNano   atomic.Int64
	dialAttempts    atomic.Uint64
	dispatchedCount atomic.Uint64
}

type subscription struct {
	id      uint64
	handler Handler
}

// Option configures a Manager.
type Option func(*Manager)

// WithTransport replaces the websocket transport.
func WithTransport(t Transport) Option {
	return func(m *Manager) {
		m.transport = t
	}
}

// WithGenerator replaces the simulated event generator.
func WithGenerator(g *mockdata.Generator) Option {
	return func(m *Manager) {
		m.generator = g
	}
}

// WithMetrics records state, dials and dispatched events.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithStateObserver is called after every state change, outside internal locks.
func WithStateObserver(fn func(from, to State)) Option {
	return func(m *Manager) {
		m.observer = fn
	}
}

func NewManager(logger *zap.Logger, cfg *config.Config, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		logger:             logger,
		demoMode:           cfg.DemoMode,
		maxAttempts:        cfg.Channel.MaxReconnectAttempts,
		reconnectDelay:     cfg.Channel.ReconnectDelay,
		handshakeDelay:     cfg.Channel.HandshakeDelay,
		simulationInterval: cfg.Channel.SimulationInterval,
		state:              Disconnected,
		handlers:           make(map[Category][]*subscription),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.transport == nil {
		m.transport = newTransport(logger, cfg)
	}
	if m.generator == nil {
		m.generator = mockdata.NewGenerator(nil)
	}
	if m.maxAttempts < 1 {
		m.maxAttempts = 1
	}
	if m.simulationInterval <= 0 {
		m.simulationInterval = config.Defaults().Channel.SimulationInterval
	}
	m.metrics.SetChannelState(Disconnected.String(), stateNames())
	return m
}

// newTransport picks the wire protocol. Socket.IO is the default.
func newTransport(logger *zap.Logger, cfg *config.Config) Transport {
	if cfg.Channel.Protocol == config.SocketProtocolJSON {
		return NewWebSocketTransport(logger, cfg.SocketURL(), cfg.Channel.DialTimeout, cfg.Channel.PingInterval)
	}
	return NewSocketIOTransport(logger, cfg.SocketURL(), cfg.Channel.DialTimeout)
}

// Connect starts the session if needed and blocks until a usable state is
// reached. Exhausted reconnection resolves into simulation, so the only
// errors are ctx's own error, or ErrDisconnected when Disconnect ends the
// attempt first. A session keeps running after ctx ends.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state.Usable() {
		m.mu.Unlock()
		return nil
	}
	if m.cancel == nil {
		m.generation++
		gen := m.generation
		runCtx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		m.ready = make(chan struct{})
		go m.run(runCtx, gen)
	}
	ready := m.ready
	m.mu.Unlock()

	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	if !m.State().Usable() {
		return ErrDisconnected
	}
	return nil
}

// Disconnect ends the session: it stops the simulator, closes the live
// connection and moves to Disconnected. Attempts still in flight are
// discarded when they complete. Safe to call in any state.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.generation++
	cancel := m.cancel
	m.cancel = nil
	conn := m.conn
	m.conn = nil
	if m.ready != nil {
		close(m.ready)
		m.ready = nil
	}
	from := m.state
	m.state = Disconnected
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	if from != Disconnected {
		m.logger.Info("event channel disconnected", zap.String("from", from.String()))
	}
	m.notifyState(from, Disconnected)
}

// Subscribe registers h for cat and returns a function that removes exactly
// this registration. Calling it more than once is a no-op.
func (m *Manager) Subscribe(cat Category, h Handler) func() {
	m.mu.Lock()
	m.nextSubID++
	id := m.nextSubID
	m.handlers[cat] = append(m.handlers[cat], &subscription{id: id, handler: h})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			subs := m.handlers[cat]
			kept := make([]*subscription, 0, len(subs))
			for _, s := range subs {
				if s.id != id {
					kept = append(kept, s)
				}
			}
			m.handlers[cat] = kept
		})
	}
}

func (m *Manager) OnConnectionStatus(fn func(types.ConnectionStatus)) func() {
	return subscribeTyped(m, ConnectionStatus, fn)
}

func (m *Manager) OnSubscriptionStatus(fn func(types.SubscriptionStatus)) func() {
	return subscribeTyped(m, SubscriptionStatus, fn)
}

func (m *Manager) OnScanUpdate(fn func(types.ScanUpdate)) func() {
	return subscribeTyped(m, ScanUpdate, fn)
}

func (m *Manager) OnPatternAlert(fn func(types.PatternAlert)) func() {
	return subscribeTyped(m, PatternAlert, fn)
}

func subscribeTyped[T any](m *Manager, cat Category, fn func(T)) func() {
	return m.Subscribe(cat, func(ev Event) {
		var v T
		if err := ev.Decode(&v); err != nil {
			m.logger.Warn("dropping undecodable event", zap.String("category", string(cat)), zap.Error(err))
			return
		}
		fn(v)
	})
}

// SubscribeToAlerts asks the backend to push pattern alerts. No-op unless live.
func (m *Manager) SubscribeToAlerts() {
	m.emit(subscribeAlertsEvent)
}

// SubscribeToScanResults asks the backend to push scan updates. No-op unless live.
func (m *Manager) SubscribeToScanResults() {
	m.emit(subscribeScanResultsEvent)
}

func (m *Manager) SubscribeToAll() {
	m.SubscribeToAlerts()
	m.SubscribeToScanResults()
}

func (m *Manager) emit(name string) {
	m.mu.Lock()
	conn := m.conn
	live := m.state == Connected
	m.mu.Unlock()

	if !live || conn == nil {
		return
	}
	if err := conn.Emit(name, nil); err != nil {
		m.logger.Warn("event channel emit failed", zap.String("event", name), zap.Error(err))
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected reports a live connection.
func (m *Manager) IsConnected() bool {
	return m.State() == Connected
}

// IsSimulated reports that events come from the local generator.
func (m *Manager) IsSimulated() bool {
	return m.State() == SimulatedConnected
}

type Stats struct {
	State            string    `json:"state"`
	FrameCount       uint64    `json:"frame_count"`
	LastFrameAt      time.Time `json:"last_frame_at"`
	DialAttempts     uint64    `json:"dial_attempts"`
	EventsDispatched uint64    `json:"events_dispatched"`
	Subscribers      int       `json:"subscribers"`
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	state := m.state
	subs := 0
	for _, hs := range m.handlers {
		subs += len(hs)
	}
	m.mu.Unlock()

	var last time.Time
	if ns := m.lastFrameNano.Load(); ns > 0 {
		last = time.Unix(0, ns)
	}

	return Stats{
		State:            state.String(),
		FrameCount:       m.frameCount.Load(),
		LastFrameAt:      last,
		DialAttempts:     m.dialAttempts.Load(),
		EventsDispatched: m.dispatchedCount.Load(),
		Subscribers:      subs,
	}
}

// ---- session ----

func (m *Manager) run(ctx context.Context, gen uint64) {
	if m.demoMode {
		m.logger.Info("demo mode: simulating event channel", zap.Duration("handshake", m.handshakeDelay))
		if mockdata.Delay(ctx, m.handshakeDelay) != nil {
			return
		}
		m.simulate(ctx, gen)
		return
	}

	for {
		conn := m.dialWithRetry(ctx, gen)
		if ctx.Err() != nil {
			if conn != nil {
				_ = conn.Close()
			}
			return
		}
		if conn == nil {
			m.logger.Warn("event channel unreachable, switching to simulated events",
				zap.Int("attempts", m.maxAttempts),
			)
			m.simulate(ctx, gen)
			return
		}

		if !m.attach(gen, conn) {
			_ = conn.Close()
			return
		}
		m.dispatchLocal(gen, ConnectionStatus, m.generator.ConnectionStatus(true), false)

		err := m.readLoop(gen, conn)
		if ctx.Err() != nil {
			return
		}
		m.logger.Warn("event channel dropped, reconnecting", zap.Error(err))

		// Announce the drop while still Connected; nothing is delivered once we leave it.
		m.dispatchLocal(gen, ConnectionStatus, m.generator.ConnectionStatus(false), false)
		m.detach(gen, conn)
		_ = conn.Close()
	}
}

// dialWithRetry makes up to maxAttempts dials with a fixed delay between
// them. It returns nil when every attempt failed or ctx ended.
func (m *Manager) dialWithRetry(ctx context.Context, gen uint64) Conn {
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		if !m.setState(gen, Connecting) {
			return nil
		}

		m.dialAttempts.Add(1)
		conn, err := m.transport.Dial(ctx)
		m.metrics.RecordChannelDial(err == nil)
		if err == nil {
			return conn
		}
		if ctx.Err() != nil {
			return nil
		}

		m.logger.Warn("event channel connect failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", m.maxAttempts),
			zap.Error(err),
		)

		if attempt == m.maxAttempts {
			break
		}
		if !m.setState(gen, Disconnected) {
			return nil
		}
		if mockdata.Delay(ctx, m.reconnectDelay) != nil {
			return nil
		}
	}
	return nil
}

func (m *Manager) readLoop(gen uint64, conn Conn) error {
	for {
		frames, err := conn.Read()
		if err != nil {
			return err
		}
		m.frameCount.Add(uint64(len(frames)))
		m.lastFrameNano.Store(time.Now().UnixNano())

		for _, f := range frames {
			cat, ok := parseCategory(f.Event)
			if !ok {
				m.logger.Debug("ignoring unknown event", zap.String("event", f.Event))
				continue
			}
			m.dispatch(gen, Event{
				Category:   cat,
				Payload:    f.Data,
				ReceivedAt: time.Now(),
			})
		}
	}
}

// simulate runs the local generator until ctx ends.
func (m *Manager) simulate(ctx context.Context, gen uint64) {
	if !m.setState(gen, SimulatedConnected) {
		return
	}

	m.dispatchLocal(gen, ConnectionStatus, m.generator.ConnectionStatus(true), true)
	m.dispatchLocal(gen, SubscriptionStatus, m.generator.SubscriptionStatus(), true)

	t := time.NewTicker(m.simulationInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			scan, alert := m.generator.Tick()
			if scan != nil {
				m.dispatchLocal(gen, ScanUpdate, scan, true)
			}
			if alert != nil {
				m.dispatchLocal(gen, PatternAlert, alert, true)
			}
		}
	}
}

func (m *Manager) attach(gen uint64, conn Conn) bool {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return false
	}
	m.conn = conn
	m.mu.Unlock()

	if !m.setState(gen, Connected) {
		return false
	}
	m.logger.Info("event channel connected")
	return true
}

func (m *Manager) detach(gen uint64, conn Conn) {
	m.mu.Lock()
	if gen == m.generation && m.conn == conn {
		m.conn = nil
	}
	m.mu.Unlock()
	m.setState(gen, Disconnected)
}

// setState moves to `to` when gen is still current. Entering a usable state
// releases Connect callers; leaving one arms a fresh wait.
func (m *Manager) setState(gen uint64, to State) bool {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return false
	}
	from := m.state
	m.state = to
	switch {
	case to.Usable() && m.ready != nil:
		close(m.ready)
		m.ready = nil
	case !to.Usable() && m.ready == nil:
		m.ready = make(chan struct{})
	}
	m.mu.Unlock()

	m.notifyState(from, to)
	return true
}

func (m *Manager) notifyState(from, to State) {
	if from == to {
		return
	}
	m.metrics.SetChannelState(to.String(), stateNames())
	m.logger.Debug("event channel state", zap.String("from", from.String()), zap.String("to", to.String()))
	if m.observer != nil {
		m.observer(from, to)
	}
}

func (m *Manager) dispatchLocal(gen uint64, cat Category, payload any, simulated bool) {
	b, err := json.Marshal(payload)
	if err != nil {
		m.logger.Error("encode local event", zap.String("category", string(cat)), zap.Error(err))
		return
	}
	m.dispatch(gen, Event{
		Category:   cat,
		Payload:    b,
		Simulated:  simulated,
		ReceivedAt: time.Now(),
	})
}

// dispatch delivers ev to every handler of its category in registration
// order. Nothing is delivered for a stale generation or an unusable state.
func (m *Manager) dispatch(gen uint64, ev Event) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	m.mu.Lock()
	if gen != m.generation || !m.state.Usable() {
		m.mu.Unlock()
		return
	}
	subs := m.handlers[ev.Category]
	m.mu.Unlock()

	m.dispatchedCount.Add(1)
	m.metrics.RecordChannelEvent(string(ev.Category), ev.Simulated)

	for _, s := range subs {
		m.invoke(s.handler, ev)
	}
}

func (m *Manager) invoke(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("event handler panicked",
				zap.String("category", string(ev.Category)),
				zap.Any("panic", r),
			)
		}
	}()
	h(ev)
}
