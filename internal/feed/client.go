// Package feed maintains a single live WebSocket connection to the bot
// server's push feed, dispatches typed messages to registered handlers
// and recovers from drops with a fixed reconnect delay.
package feed

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// State of the feed connection.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
	StateError
)

// String returns the string representation of the connection state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Handler consumes the raw payload of one message type.
type Handler func(data json.RawMessage)

// Config carries the feed client knobs.
type Config struct {
	URL string
	// ReconnectDelay fixed wait between a close and the next connect
	// attempt; the client never reconnects faster than this.
	ReconnectDelay time.Duration
	// MaxAttempts bounds consecutive failed connects; 0 means unbounded.
	MaxAttempts    int
	PingInterval   time.Duration
	ConnectTimeout time.Duration
}

const (
	defaultReconnectDelay = 5 * time.Second
	defaultPingInterval   = 30 * time.Second
	defaultConnectTimeout = 10 * time.Second
)

// Client is the realtime feed connection.
type Client struct {
	cfg    Config
	logger *zap.Logger

	handlersMu sync.RWMutex
	handlers   map[string]Handler

	onStateChange func(State)

	state int32

	connMu sync.Mutex
	conn   *websocket.Conn

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// NewClient creates a feed client. Defaults are applied for any zero knob.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:      cfg,
		logger:   logger,
		handlers: make(map[string]Handler),
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// On registers the handler for a message type, replacing any prior one.
// Must be called before Run.
func (c *Client) On(msgType string, handler Handler) {
	c.handlersMu.Lock()
	c.handlers[msgType] = handler
	c.handlersMu.Unlock()
}

// OnStateChange registers a callback invoked on every connection state
// transition. Must be called before Run.
func (c *Client) OnStateChange(fn func(State)) {
	c.onStateChange = fn
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(atomic.LoadInt32(&c.state))
}

// Run connects and keeps the feed alive until ctx is cancelled or Close
// is called. Each drop waits the fixed reconnect delay before the next
// attempt; it never hammers faster than the configured delay.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.done)
	// Error is terminal; the deferred transition must not mask it
	defer func() {
		if c.State() != StateError {
			c.setState(StateClosed)
		}
	}()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		default:
		}

		c.setState(StateConnecting)
		conn, err := c.dial(ctx)
		if err != nil {
			attempts++
			c.logger.Warn("feed connect failed",
				zap.Error(err),
				zap.Int("attempt", attempts),
				zap.Duration("retry_in", c.cfg.ReconnectDelay))

			if c.cfg.MaxAttempts > 0 && attempts >= c.cfg.MaxAttempts {
				c.setState(StateError)
				return errors.Wrapf(err, "feed: giving up after %d attempts", attempts)
			}
			if !c.wait(ctx) {
				return nil
			}
			continue
		}

		attempts = 0
		c.setState(StateOpen)
		c.logger.Info("feed connected", zap.String("url", c.cfg.URL))

		err = c.serve(ctx, conn)
		if err != nil && ctx.Err() == nil {
			c.logger.Warn("feed connection lost", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		default:
		}

		if !c.wait(ctx) {
			return nil
		}
	}
}

// Close tears down the connection and any pending reconnect or keep-alive
// timer. Safe to call more than once; blocks until Run has returned when
// Run was started.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.connMu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.connMu.Unlock()
	})
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.ConnectTimeout}
	conn, _, err := dialer.DialContext(dialCtx, c.cfg.URL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", c.cfg.URL)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return conn, nil
}

// serve reads messages until the connection drops. A per-connection ping
// ticker keeps intermediaries from idling the socket out; absence of
// traffic alone never closes the connection from our side.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	pingStop := make(chan struct{})
	defer close(pingStop)

	go func() {
		ticker := time.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingStop:
				return
			case <-c.closed:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	defer func() {
		c.connMu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.connMu.Unlock()
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.dispatch(raw)
	}
}

// dispatch routes one raw frame by its type discriminator. Unknown types
// are logged and ignored, never fatal.
func (c *Client) dispatch(raw []byte) {
	var msg Message
	if err := codec.Unmarshal(raw, &msg); err != nil {
		c.logger.Warn("feed: malformed message", zap.Error(err))
		return
	}

	c.handlersMu.RLock()
	handler, ok := c.handlers[msg.Type]
	c.handlersMu.RUnlock()

	if !ok {
		c.logger.Debug("feed: unknown message type", zap.String("type", msg.Type))
		return
	}
	handler(msg.Data)
}

// wait sleeps the fixed reconnect delay, returning false if the client
// was closed or the context cancelled while waiting.
func (c *Client) wait(ctx context.Context) bool {
	timer := time.NewTimer(c.cfg.ReconnectDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-c.closed:
		return false
	case <-timer.C:
		return true
	}
}

func (c *Client) setState(s State) {
	prev := State(atomic.SwapInt32(&c.state, int32(s)))
	if prev != s && c.onStateChange != nil {
		c.onStateChange(s)
	}
}
