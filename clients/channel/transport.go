package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Frame is one named event on the wire: {"event": "...", "data": {...}}.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Transport opens connections to the event channel.
type Transport interface {
	Dial(ctx context.Context) (Conn, error)
}

// Conn is an open event channel connection.
type Conn interface {
	// Read blocks until at least one frame arrives or the connection fails.
	Read() ([]Frame, error)
	// Emit sends a named event.
	Emit(event string, data any) error
	Close() error
}

// WebSocketTransport speaks plain JSON frames over a websocket, for backends
// that do not run Socket.IO.
type WebSocketTransport struct {
	logger       *zap.Logger
	url          string
	dialer       *websocket.Dialer
	pingInterval time.Duration
}

func NewWebSocketTransport(logger *zap.Logger, url string, dialTimeout, pingInterval time.Duration) *WebSocketTransport {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = dialTimeout

	return &WebSocketTransport{
		logger:       logger,
		url:          url,
		dialer:       &dialer,
		pingInterval: pingInterval,
	}
}

func (t *WebSocketTransport) Dial(ctx context.Context) (Conn, error) {
	conn, _, err := t.dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial event channel: %w", err)
	}

	t.logger.Info("event channel ws dialed", zap.String("url", t.url))

	conn.SetCloseHandler(func(code int, text string) error {
		t.logger.Warn(
			"event channel close frame received",
			zap.Int("code", code),
			zap.String("reason", text),
		)
		return nil
	})

	c := &wsConn{
		logger:  t.logger,
		conn:    conn,
		closeCh: make(chan struct{}),
	}
	if t.pingInterval > 0 {
		go c.pingLoop(t.pingInterval)
	}
	return c, nil
}

type wsConn struct {
	logger  *zap.Logger
	conn    *websocket.Conn
	writeMu sync.Mutex

	closeOnce sync.Once
	closeCh   chan struct{}
}

func (c *wsConn) Read() ([]Frame, error) {
	for {
		_, b, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}

		// Keepalive text frames carry no event.
		if string(b) == "PONG" || string(b) == "PING" {
			continue
		}

		frames, err := decodeFrames(b)
		if err != nil {
			c.logger.Warn(
				"event channel bad frame",
				zap.Error(err),
				zap.ByteString("frame", b),
			)
			continue
		}
		if len(frames) == 0 {
			continue
		}
		return frames, nil
	}
}

func (c *wsConn) Emit(event string, data any) error {
	select {
	case <-c.closeCh:
		return errors.New("connection closed")
	default:
	}

	frame := map[string]any{"event": event}
	if data != nil {
		frame["data"] = data
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(frame)
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) pingLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(interval))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug("event channel ping failed", zap.Error(err))
			}
		case <-c.closeCh:
			return
		}
	}
}

// decodeFrames accepts either a single frame object or a JSON array batch.
func decodeFrames(b []byte) ([]Frame, error) {
	trimmed := b
	for len(trimmed) > 0 && (trimmed[0] == ' ' || trimmed[0] == '\n' || trimmed[0] == '\t' || trimmed[0] == '\r') {
		trimmed = trimmed[1:]
	}
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var frames []Frame
		if err := json.Unmarshal(trimmed, &frames); err != nil {
			return nil, fmt.Errorf("decode frame batch: %w", err)
		}
		return frames, nil
	}

	var f Frame
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return []Frame{f}, nil
}
