package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"EdgeDesk/internal/domain/models"
	domrepo "EdgeDesk/internal/domain/repository"
	xlogger "EdgeDesk/pkg/logger"

	"github.com/gorilla/websocket"
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosing
	StateErroredRetrying
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateErroredRetrying:
		return "errored_retrying"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const maxBackoff = 30 * time.Second

// Conn is the minimal duplex connection the client drives.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer opens a Conn to the feed.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

type wsDialer struct{}

func (wsDialer) Dial(ctx context.Context, url string) (Conn, error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{c: c}, nil
}

type wsConn struct{ c *websocket.Conn }

func (w *wsConn) ReadMessage() ([]byte, error) {
	_, b, err := w.c.ReadMessage()
	return b, err
}

func (w *wsConn) WriteMessage(data []byte) error {
	return w.c.WriteMessage(websocket.TextMessage, data)
}

func (w *wsConn) Close() error { return w.c.Close() }

// Client maintains one live connection to the data feed with liveness
// probing and capped-backoff reconnection. Implements repository.FeedStream.
type Client struct {
	url          string
	dialer       Dialer
	log          *xlogger.Logger
	metrics      domrepo.Metrics
	maxAttempts  int
	pingInterval time.Duration
	pongTimeout  time.Duration
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) bool

	mu           sync.Mutex
	state        State
	conn         Conn
	attempt      int
	awaitingPong bool
	lastPingAt   time.Time
	closing      bool

	msgs chan *models.Envelope
}

// Option configures Client.
type Option func(*Client)

// WithDialer injects a dialer (tests).
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithPing sets liveness probe interval and pong deadline.
func WithPing(interval, timeout time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pingInterval = interval
		}
		if timeout > 0 {
			c.pongTimeout = timeout
		}
	}
}

// WithMaxAttempts caps consecutive reconnect failures.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithSleep injects the backoff wait (tests).
func WithSleep(fn func(ctx context.Context, d time.Duration) bool) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithClock injects a clock (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a feed stream client for url.
func New(url string, log *xlogger.Logger, metrics domrepo.Metrics, opts ...Option) *Client {
	c := &Client{
		url:          url,
		dialer:       wsDialer{},
		log:          log,
		metrics:      metrics,
		maxAttempts:  5,
		pingInterval: 30 * time.Second,
		pongTimeout:  10 * time.Second,
		now:          time.Now,
		sleep:        sleepCtx,
		state:        StateDisconnected,
		msgs:         make(chan *models.Envelope, 1024),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run drives the connection until a clean shutdown or until reconnect
// attempts are exhausted, in which case it returns ErrConnectionExhausted.
func (c *Client) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return ctx.Err()
		}

		c.setState(StateConnecting)
		conn, err := c.dialer.Dial(ctx, c.url)
		if err != nil {
			c.log.Warn("feed dial failed", xlogger.Error(err))
			c.metrics.RecordError("stream_dial")
			if !c.backoff(ctx) {
				return c.terminalErr(ctx)
			}
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.state = StateConnected
		c.awaitingPong = false
		c.mu.Unlock()
		c.metrics.RecordStreamEvent("connected")
		c.log.Info("feed connected", xlogger.String("url", c.url))

		// Liveness probe goes out immediately; the counterpart pong
		// resets the retry counter.
		c.sendPing(conn)

		readErr := c.readLoop(ctx, conn)

		c.mu.Lock()
		c.conn = nil
		closing := c.closing
		c.mu.Unlock()

		if closing || ctx.Err() != nil {
			c.setState(StateDisconnected)
			return nil
		}
		if isCleanClose(readErr) {
			// Clean closure is terminal. No reconnect.
			c.log.Info("feed closed cleanly")
			c.setState(StateDisconnected)
			return nil
		}

		c.log.Warn("feed connection lost", xlogger.Error(readErr))
		c.metrics.RecordStreamEvent("abnormal_close")
		if !c.backoff(ctx) {
			return c.terminalErr(ctx)
		}
	}
}

// Messages returns the inbound envelope channel.
func (c *Client) Messages() <-chan *models.Envelope { return c.msgs }

// Send writes an envelope to the feed. A no-op when not connected; callers
// must not assume delivery.
func (c *Client) Send(env *models.Envelope) {
	c.mu.Lock()
	conn, st := c.conn, c.state
	c.mu.Unlock()
	if st != StateConnected || conn == nil {
		return
	}
	b, err := json.Marshal(env)
	if err != nil {
		c.log.Error("encode outbound envelope", xlogger.Error(err))
		return
	}
	if err := conn.WriteMessage(b); err != nil {
		c.log.Warn("feed write failed", xlogger.Error(err))
	}
}

// IsConnected reports whether the client is in the Connected state.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close initiates a clean shutdown.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closing = true
	if c.state == StateConnected {
		c.state = StateClosing
	}
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context, conn Conn) error {
	stop := make(chan struct{})
	defer close(stop)
	go c.pingLoop(ctx, conn, stop)

	for {
		b, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		env, err := models.DecodeEnvelope(b)
		if err != nil {
			// Malformed payloads never affect connection state.
			c.log.Warn("malformed feed payload dropped", xlogger.Error(err))
			c.metrics.RecordError("stream_payload")
			continue
		}
		switch env.Type {
		case models.EnvPong:
			c.mu.Lock()
			c.awaitingPong = false
			c.attempt = 0
			c.mu.Unlock()
		case models.EnvPing:
			pong := &models.Envelope{Type: models.EnvPong, Timestamp: c.now().UnixMilli()}
			c.Send(pong)
		default:
			select {
			case c.msgs <- env:
			default:
				c.metrics.RecordStreamEvent("message_dropped")
			}
		}
	}
}

func (c *Client) pingLoop(ctx context.Context, conn Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			_ = conn.Close()
			return
		case <-ticker.C:
			if c.pongOverdue() {
				// Force the read loop onto the reconnect path.
				c.log.Warn("feed liveness probe unanswered")
				c.metrics.RecordError("stream_pong_timeout")
				_ = conn.Close()
				return
			}
			c.sendPing(conn)
		}
	}
}

func (c *Client) sendPing(conn Conn) {
	env := &models.Envelope{Type: models.EnvPing, Timestamp: c.now().UnixMilli()}
	b, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := conn.WriteMessage(b); err != nil {
		return
	}
	c.mu.Lock()
	c.awaitingPong = true
	c.lastPingAt = c.now()
	c.mu.Unlock()
}

func (c *Client) pongOverdue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awaitingPong && c.now().Sub(c.lastPingAt) > c.pongTimeout
}

// backoff schedules the next reconnect. Returns false once consecutive
// failures reach maxAttempts, leaving the client in the terminal Failed state.
func (c *Client) backoff(ctx context.Context) bool {
	c.mu.Lock()
	delay := backoffDelay(c.attempt)
	c.attempt++
	exhausted := c.attempt >= c.maxAttempts
	c.mu.Unlock()

	if exhausted {
		c.setState(StateFailed)
		c.metrics.RecordStreamEvent("failed")
		return false
	}
	c.setState(StateErroredRetrying)
	c.metrics.RecordStreamEvent("reconnect_scheduled")
	return c.sleep(ctx, delay)
}

func (c *Client) terminalErr(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.State() == StateFailed {
		return models.ErrConnectionExhausted
	}
	return nil
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func backoffDelay(attempt int) time.Duration {
	d := time.Second << uint(attempt)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

func isCleanClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
