package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Engine.IO v4 packet types.
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
	eioNoop    = '6'
)

// Socket.IO v4 packet types, carried inside Engine.IO messages.
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioConnectError = '4'
)

// Fallback liveness window when the open packet does not carry one.
const defaultEngineTimeout = 45 * time.Second

var errServerDisconnect = errors.New("socket.io server disconnected")

// engineOpen is the payload of the Engine.IO open packet.
type engineOpen struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"` // milliseconds
	PingTimeout  int    `json:"pingTimeout"`  // milliseconds
}

// SocketIOTransport speaks Socket.IO v4 on the default namespace over an
// Engine.IO websocket. The server drives the heartbeat; every ping is
// answered with a pong.
type SocketIOTransport struct {
	logger      *zap.Logger
	url         string
	dialer      *websocket.Dialer
	dialTimeout time.Duration
}

func NewSocketIOTransport(logger *zap.Logger, rawURL string, dialTimeout time.Duration) *SocketIOTransport {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = dialTimeout

	return &SocketIOTransport{
		logger:      logger,
		url:         rawURL,
		dialer:      &dialer,
		dialTimeout: dialTimeout,
	}
}

// engineURL adds the Engine.IO query to the socket URL.
func engineURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse socket url: %w", err)
	}
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial opens the websocket and completes the Engine.IO open and Socket.IO
// connect handshake before returning.
func (t *SocketIOTransport) Dial(ctx context.Context) (Conn, error) {
	target, err := engineURL(t.url)
	if err != nil {
		return nil, err
	}

	conn, _, err := t.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("dial event channel: %w", err)
	}

	c := &sioConn{
		logger:  t.logger,
		conn:    conn,
		timeout: defaultEngineTimeout,
		closeCh: make(chan struct{}),
	}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	err = c.handshake(t.dialTimeout)
	if !stop() || err != nil {
		conn.Close()
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("socket.io handshake: %w", err)
	}

	t.logger.Info("event channel socket.io connected",
		zap.String("url", t.url),
		zap.String("sid", c.sid),
	)
	return c, nil
}

type sioConn struct {
	logger  *zap.Logger
	conn    *websocket.Conn
	writeMu sync.Mutex
	sid     string

	// No packet for this long means the server is gone.
	timeout time.Duration

	closeOnce sync.Once
	closeCh   chan struct{}
}

func (c *sioConn) handshake(timeout time.Duration) error {
	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
	}

	_, b, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read open packet: %w", err)
	}
	if len(b) == 0 || b[0] != eioOpen {
		return fmt.Errorf("expected open packet, got %q", truncateFrame(b))
	}
	var open engineOpen
	if err := json.Unmarshal(b[1:], &open); err != nil {
		return fmt.Errorf("decode open packet: %w", err)
	}
	c.sid = open.SID
	if open.PingInterval > 0 && open.PingTimeout > 0 {
		c.timeout = time.Duration(open.PingInterval+open.PingTimeout) * time.Millisecond
	}

	if err := c.write(string([]byte{eioMessage, sioConnect})); err != nil {
		return fmt.Errorf("send connect: %w", err)
	}

	for {
		_, b, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read connect ack: %w", err)
		}
		if len(b) == 0 {
			continue
		}
		switch b[0] {
		case eioPing:
			if err := c.pong(b[1:]); err != nil {
				return err
			}
			continue
		case eioClose:
			return errServerDisconnect
		case eioMessage:
		default:
			continue
		}

		if len(b) < 2 {
			continue
		}
		switch b[1] {
		case sioConnect:
			c.conn.SetReadDeadline(time.Time{})
			return nil
		case sioConnectError:
			return fmt.Errorf("connect refused: %s", truncateFrame(b[2:]))
		}
	}
}

func (c *sioConn) Read() ([]Frame, error) {
	for {
		c.conn.SetReadDeadline(time.Now().Add(c.timeout))
		_, b, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if len(b) == 0 {
			continue
		}

		switch b[0] {
		case eioPing:
			if err := c.pong(b[1:]); err != nil {
				return nil, err
			}
			continue
		case eioPong, eioNoop:
			continue
		case eioClose:
			return nil, errServerDisconnect
		case eioMessage:
		default:
			c.logger.Debug("ignoring engine.io packet", zap.ByteString("packet", b))
			continue
		}

		frame, ok, err := decodeSocketIOPacket(b[1:])
		if err != nil {
			if errors.Is(err, errServerDisconnect) {
				return nil, err
			}
			c.logger.Warn("event channel bad packet",
				zap.Error(err),
				zap.ByteString("packet", b),
			)
			continue
		}
		if !ok {
			continue
		}
		return []Frame{frame}, nil
	}
}

func (c *sioConn) Emit(event string, data any) error {
	select {
	case <-c.closeCh:
		return errors.New("connection closed")
	default:
	}

	args := []any{event}
	if data != nil {
		args = append(args, data)
	}
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	return c.write(string([]byte{eioMessage, sioEvent}) + string(b))
}

func (c *sioConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		// Best effort namespace disconnect before the socket goes away.
		_ = c.write(string([]byte{eioMessage, sioDisconnect}))
		err = c.conn.Close()
	})
	return err
}

func (c *sioConn) pong(payload []byte) error {
	if err := c.write(string(eioPong) + string(payload)); err != nil {
		return fmt.Errorf("send pong: %w", err)
	}
	return nil
}

func (c *sioConn) write(packet string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	return c.conn.WriteMessage(websocket.TextMessage, []byte(packet))
}

// decodeSocketIOPacket decodes a Socket.IO packet (the Engine.IO message
// payload). Only events on the default namespace produce a frame; a server
// disconnect is reported as errServerDisconnect.
func decodeSocketIOPacket(p []byte) (Frame, bool, error) {
	if len(p) == 0 {
		return Frame{}, false, nil
	}
	kind, rest := p[0], p[1:]

	// Optional namespace, terminated by a comma.
	if len(rest) > 0 && rest[0] == '/' {
		ns := rest
		if i := bytes.IndexByte(rest, ','); i >= 0 {
			ns, rest = rest[:i], rest[i+1:]
		} else {
			rest = nil
		}
		if string(ns) != "/" {
			return Frame{}, false, nil
		}
	}

	switch kind {
	case sioEvent:
	case sioDisconnect:
		return Frame{}, false, errServerDisconnect
	default:
		return Frame{}, false, nil
	}

	// Optional ack id.
	for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		rest = rest[1:]
	}

	var args []json.RawMessage
	if err := json.Unmarshal(rest, &args); err != nil {
		return Frame{}, false, fmt.Errorf("decode event packet: %w", err)
	}
	if len(args) == 0 {
		return Frame{}, false, errors.New("event packet without a name")
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return Frame{}, false, fmt.Errorf("decode event name: %w", err)
	}

	f := Frame{Event: name}
	if len(args) > 1 {
		f.Data = args[1]
	}
	return f, true, nil
}

func truncateFrame(b []byte) string {
	const n = 128
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
