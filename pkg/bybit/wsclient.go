package bybit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageHandler processes one inbound frame. A returned error ends the
// current connection attempt.
type MessageHandler func([]byte) error

// WSOptions tunes the stream subscriber. Zero values fall back to defaults.
type WSOptions struct {
	HandshakeTimeout time.Duration
	ReconnectDelay   time.Duration
	PingInterval     time.Duration // 0 disables keepalive pings
}

// WSClient keeps one streaming connection subscribed to the instrument info
// channel of every tracked symbol, reconnecting from scratch after each failure.
type WSClient struct {
	url     string
	symbols SymbolSet
	opts    WSOptions
	dialer  *websocket.Dialer
	handler MessageHandler
	logger  *zap.Logger

	mu       sync.Mutex
	state    State
	attempts int

	writeMu sync.Mutex
}

// NewWSClient creates a stream subscriber for the given URL and symbols.
func NewWSClient(url string, symbols SymbolSet, opts WSOptions, logger *zap.Logger) *WSClient {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = ReconnectDelay
	}
	return &WSClient{
		url:     url,
		symbols: symbols,
		opts:    opts,
		dialer:  &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout},
		logger:  logger,
	}
}

// SetMessageHandler sets the function to handle incoming messages.
func (c *WSClient) SetMessageHandler(h MessageHandler) {
	c.handler = h
}

// State reports the current lifecycle stage.
func (c *WSClient) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts reports how many connection attempts have been started.
func (c *WSClient) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

func (c *WSClient) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run connects, subscribes and streams until ctx is done. After every lost
// connection it waits ReconnectDelay and starts over, re-sending all
// subscriptions. It only returns ctx.Err().
func (c *WSClient) Run(ctx context.Context) error {
	for {
		err := c.RunOnce(ctx)
		if ctx.Err() != nil {
			c.setState(StateClosed)
			return ctx.Err()
		}

		c.logger.Warn("WebSocket connection lost",
			zap.String("state", c.State().String()),
			zap.Duration("retry_in", c.opts.ReconnectDelay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			c.setState(StateClosed)
			return ctx.Err()
		case <-time.After(c.opts.ReconnectDelay):
		}
	}
}

// RunOnce performs a single Connecting → Subscribing → Streaming pass and
// returns when the connection ends. The returned error wraps ErrStream
// unless ctx was cancelled.
func (c *WSClient) RunOnce(ctx context.Context) error {
	c.mu.Lock()
	c.attempts++
	c.state = StateConnecting
	c.mu.Unlock()

	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.setState(StateErrored)
		if resp != nil {
			return fmt.Errorf("%w: dial %s: status %s: %w", ErrStream, c.url, resp.Status, err)
		}
		return fmt.Errorf("%w: dial %s: %w", ErrStream, c.url, err)
	}
	defer conn.Close()
	c.logger.Info("WebSocket connected", zap.String("url", c.url))

	// Unblock ReadMessage when the caller gives up
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	c.setState(StateSubscribing)
	if err := c.subscribe(conn); err != nil {
		c.setState(StateErrored)
		return err
	}

	c.setState(StateStreaming)
	if c.opts.PingInterval > 0 {
		go c.keepAlive(conn, done)
	}

	return c.stream(ctx, conn)
}

// subscribe sends one request per symbol without waiting for acknowledgements.
func (c *WSClient) subscribe(conn *websocket.Conn) error {
	for _, sym := range c.symbols.Symbols() {
		req := SubscribeRequest{
			Op:   "subscribe",
			Args: []string{InstrumentInfoTopic(sym)},
		}
		if err := c.writeJSON(conn, req); err != nil {
			return fmt.Errorf("%w: subscribe %s: %w", ErrStream, sym, err)
		}
		c.logger.Info("subscribed", zap.String("symbol", sym))
	}
	return nil
}

func (c *WSClient) stream(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				c.setState(StateClosed)
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.setState(StateClosed)
				return fmt.Errorf("%w: connection closed: %w", ErrStream, err)
			}
			c.setState(StateErrored)
			return fmt.Errorf("%w: read: %w", ErrStream, err)
		}

		if c.handler == nil {
			continue
		}
		if err := c.handler(msg); err != nil {
			c.setState(StateErrored)
			if errors.Is(err, ErrStream) {
				return err
			}
			return fmt.Errorf("%w: %w", ErrStream, err)
		}
	}
}

func (c *WSClient) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.writeJSON(conn, pingRequest{Op: "ping"}); err != nil {
				c.logger.Debug("ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (c *WSClient) writeJSON(conn *websocket.Conn, v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.opts.HandshakeTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(c.opts.HandshakeTimeout))
	}
	return conn.WriteJSON(v)
}
