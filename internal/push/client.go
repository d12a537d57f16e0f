package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shaharia-lab/cypherchat/internal/logger"
	"github.com/shaharia-lab/cypherchat/internal/metrics"
)

// DefaultReconnectDelay is the pause between connection attempts
const DefaultReconnectDelay = 5 * time.Second

// ErrNotConnected is returned when sending while no connection is open
var ErrNotConnected = errors.New("push channel not connected")

// Handlers receive push channel events. Nil handlers are skipped.
// All handlers run on the goroutine that called Run, one at a time, in arrival order.
type Handlers struct {
	OnConnect    func()
	OnDisconnect func(err error)
	OnMetrics    func(update metrics.Update)
}

// Channel is the push channel as seen by its consumer
type Channel interface {
	Run(ctx context.Context, handlers Handlers) error
	RequestMetrics() error
}

// Client maintains the push channel connection and dispatches its events
type Client struct {
	dialer         Dialer
	reconnectDelay time.Duration
	log            logger.Logger

	mu   sync.Mutex
	conn Conn
}

var _ Channel = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithReconnectDelay sets the pause between connection attempts
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) {
		c.reconnectDelay = d
	}
}

// WithLogger sets the client logger
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a push client using dialer
func NewClient(dialer Dialer, opts ...Option) *Client {
	c := &Client{
		dialer:         dialer,
		reconnectDelay: DefaultReconnectDelay,
		log:            logger.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run connects and dispatches events until ctx is cancelled, reconnecting after failures.
// OnDisconnect fires once per transition to offline, including a failed first attempt.
// It returns ctx.Err() once all of its goroutines have exited.
func (c *Client) Run(ctx context.Context, handlers Handlers) error {
	online := false
	announced := false

	for {
		conn, err := c.dialer.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Debug("push channel dial failed", map[string]interface{}{logger.ErrorKey: err})
			if online || !announced {
				online, announced = false, true
				if handlers.OnDisconnect != nil {
					handlers.OnDisconnect(err)
				}
			}
		} else {
			online, announced = true, true
			err = c.serve(ctx, conn, handlers)
			online = false
			if handlers.OnDisconnect != nil {
				handlers.OnDisconnect(err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Info("push channel disconnected", map[string]interface{}{logger.ErrorKey: err})
		}

		timer := time.NewTimer(c.reconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// serve reads frames from conn until it fails or ctx is cancelled
func (c *Client) serve(ctx context.Context, conn Conn, handlers Handlers) error {
	c.setConn(conn)

	done := make(chan struct{})
	watcherExited := make(chan struct{})
	go func() {
		defer close(watcherExited)
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	defer func() {
		close(done)
		<-watcherExited
		c.setConn(nil)
		conn.Close()
	}()

	if handlers.OnConnect != nil {
		handlers.OnConnect()
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read push frame: %w", err)
		}
		c.dispatch(data, handlers)
	}
}

func (c *Client) dispatch(data []byte, handlers Handlers) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Warn("ignoring undecodable push frame", map[string]interface{}{logger.ErrorKey: err})
		return
	}

	switch env.Event {
	case EventMetricsUpdate:
		var update metrics.Update
		if err := json.Unmarshal(env.Data, &update); err != nil {
			c.log.Warn("ignoring malformed metrics update", map[string]interface{}{logger.ErrorKey: err})
			return
		}
		if handlers.OnMetrics != nil {
			handlers.OnMetrics(update)
		}
	default:
		c.log.Debug("ignoring push event", map[string]interface{}{"event": env.Event})
	}
}

func (c *Client) setConn(conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

// RequestMetrics asks the backend for an immediate metrics update
func (c *Client) RequestMetrics() error {
	data, err := json.Marshal(Envelope{Event: EventRequestMetrics})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to request metrics: %w", err)
	}
	return nil
}
