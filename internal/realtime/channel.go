// Package realtime maintains the SDK's persistent WebSocket connection.
// After every open it authenticates with a single auth frame, then hands
// decoded inbound messages to a handler. Transport failures reconnect with
// capped exponential backoff until Disconnect or context cancellation.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultReconnectDelay    = 5 * time.Second
	defaultMaxReconnectDelay = 60 * time.Second
	defaultPingInterval      = 30 * time.Second
	writeTimeout             = 10 * time.Second
)

// ErrNotDisconnected is returned by Connect when a connection is already
// running.
var ErrNotDisconnected = errors.New("realtime: channel is not disconnected")

// State is the connection lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Open
	Closing
)

var stateNames = map[State]string{
	Disconnected: "disconnected",
	Connecting:   "connecting",
	Open:         "open",
	Closing:      "closing",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Handler receives decoded inbound messages. It runs on the read
// goroutine, so it must not block and must not call Close.
type Handler func(Message)

// Channel is one logical realtime connection for one user id.
type Channel struct {
	url     string
	userID  string
	handler Handler
	dialer  *websocket.Dialer
	log     *slog.Logger
	onState func(State)

	reconnectDelay    time.Duration
	maxReconnectDelay time.Duration
	pingInterval      time.Duration

	mu      sync.Mutex
	writeMu sync.Mutex // serialises conn writes (ping, close)
	state   State
	run     *run
}

// run is one Connect..Disconnect lifetime, spanning reconnects.
type run struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	conn   *websocket.Conn // guarded by Channel.mu
}

// Option configures a Channel.
type Option func(*Channel)

func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithReconnectDelay sets the first retry delay and the backoff cap. A cap
// equal to the delay gives fixed-delay retries.
func WithReconnectDelay(delay, max time.Duration) Option {
	return func(c *Channel) {
		if delay > 0 {
			c.reconnectDelay = delay
		}
		if max > 0 {
			c.maxReconnectDelay = max
		}
	}
}

func WithPingInterval(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.log = l
		}
	}
}

// WithStateListener registers a callback for state changes. It is called
// without the channel lock held.
func WithStateListener(fn func(State)) Option {
	return func(c *Channel) { c.onState = fn }
}

// NewChannel creates a disconnected channel that will authenticate as userID.
func NewChannel(url, userID string, handler Handler, opts ...Option) *Channel {
	c := &Channel{
		url:               url,
		userID:            userID,
		handler:           handler,
		dialer:            websocket.DefaultDialer,
		log:               slog.New(slog.DiscardHandler),
		reconnectDelay:    defaultReconnectDelay,
		maxReconnectDelay: defaultMaxReconnectDelay,
		pingInterval:      defaultPingInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxReconnectDelay < c.reconnectDelay {
		c.maxReconnectDelay = c.reconnectDelay
	}
	if c.handler == nil {
		c.handler = func(Message) {}
	}
	c.log = c.log.With("component", "realtime")
	return c
}

// UserID returns the id sent in the auth frame.
func (c *Channel) UserID() string {
	return c.userID
}

// State returns the current state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts the connection loop in the background. It is only valid
// while disconnected with no loop running.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.run != nil || c.state != Disconnected {
		c.mu.Unlock()
		return ErrNotDisconnected
	}
	runCtx, cancel := context.WithCancel(ctx)
	r := &run{ctx: runCtx, cancel: cancel, done: make(chan struct{})}
	c.run = r
	c.mu.Unlock()

	go c.loop(r)
	return nil
}

// Disconnect closes the connection with a normal-closure frame and stops
// any pending reconnect. It is idempotent and does not wait.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	r := c.run
	if r == nil {
		c.mu.Unlock()
		return
	}
	c.run = nil
	conn := r.conn
	r.conn = nil
	changed := c.state != Closing
	c.state = Closing
	c.mu.Unlock()
	if changed {
		c.notify(Closing)
	}

	if conn != nil {
		c.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Client closed")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
		c.writeMu.Unlock()
		conn.Close()
	}
	r.cancel()

	c.mu.Lock()
	changed = c.run == nil && c.state != Disconnected
	if changed {
		c.state = Disconnected
	}
	c.mu.Unlock()
	if changed {
		c.notify(Disconnected)
	}
	c.log.Info("realtime disconnected")
}

// Close disconnects and waits for the connection loop to exit. It must
// not be called from the message handler.
func (c *Channel) Close() error {
	c.mu.Lock()
	r := c.run
	c.mu.Unlock()
	c.Disconnect()
	if r != nil {
		<-r.done
	}
	return nil
}

func (c *Channel) loop(r *run) {
	defer func() {
		c.mu.Lock()
		changed := false
		if c.run == r {
			c.run = nil
			changed = c.state != Disconnected
			c.state = Disconnected
		}
		c.mu.Unlock()
		if changed {
			c.notify(Disconnected)
		}
		close(r.done)
	}()

	delay := c.reconnectDelay
	for {
		if !c.transition(r, Connecting) {
			return
		}

		opened, err := c.session(r)
		if r.ctx.Err() != nil {
			return
		}
		if ce, ok := serverClose(err); ok {
			c.log.Info("realtime closed by server", "code", ce.Code, "reason", ce.Text)
			return
		}
		if opened {
			delay = c.reconnectDelay
		}

		if !c.transition(r, Disconnected) {
			return
		}
		c.log.Warn("realtime failure", "err", err, "retry_in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-r.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		delay = min(delay*2, c.maxReconnectDelay)
	}
}

// session dials, authenticates and reads until the connection ends. opened
// reports whether the auth frame went out.
func (c *Channel) session(r *run) (opened bool, err error) {
	conn, _, err := c.dialer.DialContext(r.ctx, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}

	// The conn is not shared yet, so the auth write needs no writeMu.
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(AuthFrame{Type: "auth", UserID: c.userID}); err != nil {
		conn.Close()
		return false, fmt.Errorf("auth: %w", err)
	}
	conn.SetWriteDeadline(time.Time{})

	c.mu.Lock()
	if c.run != r {
		c.mu.Unlock()
		conn.Close()
		return false, context.Canceled
	}
	r.conn = conn
	c.mu.Unlock()

	if !c.transition(r, Open) {
		return true, context.Canceled
	}
	c.log.Info("realtime connected", "url", c.url)

	stopWatch := context.AfterFunc(r.ctx, func() { conn.Close() })
	defer stopWatch()

	pingCtx, stopPing := context.WithCancel(r.ctx)
	defer stopPing()
	go c.pingLoop(pingCtx, conn)

	pongTimeout := 2 * c.pingInterval
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	conn.SetReadDeadline(time.Now().Add(pongTimeout))

	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if r.conn == conn {
				r.conn = nil
			}
			c.mu.Unlock()
			conn.Close()
			return true, err
		}
		if typ != websocket.TextMessage {
			c.log.Debug("binary message ignored", "bytes", len(data))
			continue
		}

		msg, err := Decode(data)
		if err != nil {
			c.log.Warn("dropping message", "err", err)
			continue
		}
		c.handler(msg)
	}
}

func (c *Channel) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// serverClose reports whether err carries a close frame the server sent.
// gorilla reports a dropped connection as 1006, which is never sent on the
// wire, so that code counts as a transport failure.
func serverClose(err error) (*websocket.CloseError, bool) {
	var ce *websocket.CloseError
	if !errors.As(err, &ce) || ce.Code == websocket.CloseAbnormalClosure {
		return nil, false
	}
	return ce, true
}

// transition sets the state if r is still the active run.
func (c *Channel) transition(r *run, s State) bool {
	c.mu.Lock()
	if c.run != r {
		c.mu.Unlock()
		return false
	}
	changed := c.state != s
	c.state = s
	c.mu.Unlock()
	if changed {
		c.notify(s)
	}
	return true
}

func (c *Channel) notify(s State) {
	if c.onState != nil {
		c.onState(s)
	}
}
