// Package session orchestrates the SDK: device registration, login, event
// delivery with buffering, the realtime channel, and in-app rendering onto
// the host's foreground surface.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ninjabase8085/pushapp/internal/async"
	"github.com/ninjabase8085/pushapp/internal/buffer"
	"github.com/ninjabase8085/pushapp/internal/config"
	"github.com/ninjabase8085/pushapp/internal/delivery"
	"github.com/ninjabase8085/pushapp/internal/device"
	"github.com/ninjabase8085/pushapp/internal/identity"
	"github.com/ninjabase8085/pushapp/internal/inapp"
	"github.com/ninjabase8085/pushapp/internal/logging"
	"github.com/ninjabase8085/pushapp/internal/notify"
	"github.com/ninjabase8085/pushapp/internal/prefs"
	"github.com/ninjabase8085/pushapp/internal/realtime"
	"github.com/ninjabase8085/pushapp/internal/surface"
)

// Event names emitted by the controller itself.
const (
	EventAppOpen    = "app_open"
	EventPageOpen   = "page_open"
	EventPageClosed = "page_closed"
)

// Options are the controller's collaborators. Only Config is read as a
// value; everything else may be nil.
type Options struct {
	Config *config.Config
	// Store backs the event buffer and device id. Nil means in-memory.
	Store prefs.Store
	// Tokens supplies the push token for device registration. Nil skips
	// registration until HandleDeviceToken is called.
	Tokens   device.TokenSource
	Notifier notify.Notifier
	Logger   *slog.Logger

	HTTPClient *http.Client
	Dialer     *websocket.Dialer
	HostID     device.HostIDFunc
	// OnChannelState observes realtime state changes.
	OnChannelState func(realtime.State)
	Now            func() time.Time
}

// Controller is one SDK session. Create it with New, call Initialize once,
// and Close it on shutdown.
type Controller struct {
	cfg      *config.Config
	log      *slog.Logger
	ids      *identity.Resolver
	buf      *buffer.Buffer
	store    prefs.Store
	surfaces surface.Registry

	tokens   device.TokenSource
	notifier notify.Notifier
	http     *http.Client
	dialer   *websocket.Dialer
	hostID   device.HostIDFunc
	onState  func(realtime.State)
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup

	mu          sync.Mutex
	initialized bool
	closed      bool
	endpoint    config.Endpoint
	serverURL   string
	client      *delivery.Client
	device      device.Info
	channel     *realtime.Channel
	last        map[string]string
}

// New creates an uninitialized controller.
func New(opts Options) *Controller {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	store := opts.Store
	if store == nil {
		store = prefs.NewMemoryStore()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := logging.OrDiscard(opts.Logger)

	ids := identity.NewResolver()
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:      cfg,
		log:      log.With("component", "session"),
		ids:      ids,
		buf:      buffer.New(store, ids, log),
		store:    store,
		tokens:   opts.Tokens,
		notifier: opts.Notifier,
		http:     opts.HTTPClient,
		dialer:   opts.Dialer,
		hostID:   opts.HostID,
		onState:  opts.OnChannelState,
		now:      now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Initialize parses identifier ("tenant#channel"), points the controller at
// the tenant's server and registers the device in the background. Only the
// first call has any effect, including a call that failed.
func (c *Controller) Initialize(identifier string) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return nil
	}
	c.initialized = true
	c.mu.Unlock()

	ep, err := config.ParseIdentifier(identifier)
	if err != nil {
		c.logFailure("initialize failed", err)
		return err
	}

	dev := (&device.Resolver{
		Store:    c.store,
		HostID:   c.hostID,
		Logger:   c.log,
		ID:       c.cfg.Device.ID,
		Platform: c.cfg.Device.Platform,
	}).Resolve(c.ctx)

	serverURL := c.cfg.ServerURL(ep.Tenant)
	clientOpts := []delivery.Option{
		delivery.WithAPIPath(c.cfg.Server.APIPath),
		delivery.WithTimeout(c.cfg.Server.Timeout),
		delivery.WithLogger(c.log),
	}
	if c.http != nil {
		clientOpts = append(clientOpts, delivery.WithHTTPClient(c.http))
	}
	client := delivery.NewClient(serverURL, clientOpts...)

	c.mu.Lock()
	c.endpoint = ep
	c.serverURL = serverURL
	c.client = client
	c.device = dev
	c.mu.Unlock()

	c.log.Info("initialized", "tenant", ep.Tenant, "channel", ep.Channel, "server", serverURL, "device_id", dev.ID)

	if c.tokens != nil {
		spawn(c, func(ctx context.Context) (struct{}, error) {
			token, err := c.tokens.Token(ctx)
			if err != nil {
				c.log.Warn("push token unavailable, device not registered", "err", err)
				return struct{}{}, err
			}
			_, err = c.registerDevice(token).AwaitContext(ctx)
			return struct{}{}, err
		})
	}
	return nil
}

// HandleDeviceToken registers the device with a new push token. The future
// yields the guest id assigned by the server.
func (c *Controller) HandleDeviceToken(token string) *async.Future[string] {
	return c.registerDevice(token)
}

func (c *Controller) registerDevice(token string) *async.Future[string] {
	client, ep, dev, err := c.target()
	if err != nil {
		return async.Resolved("", err)
	}
	return spawn(c, func(ctx context.Context) (string, error) {
		resp, err := client.RegisterDevice(ctx, delivery.RegisterDeviceRequest{
			Platform:  dev.Platform,
			Token:     token,
			DeviceID:  dev.ID,
			ChannelID: ep.Channel,
		}).AwaitContext(ctx)
		if err != nil {
			c.logFailure("device registration failed", err)
			return "", err
		}

		guest := resp.Device.UserID
		if guest == "" {
			c.log.Warn("registration response carried no guest id")
		} else {
			c.ids.SetGuest(guest)
			c.log.Info("device registered", "guest_id", guest)
		}
		c.flush(ctx)
		c.SendEvent(EventAppOpen, map[string]any{})
		if c.cfg.Realtime.ConnectAsGuest {
			c.connectSocket()
		}
		return guest, nil
	})
}

// Login sets the user identity immediately, then registers it with the
// server. On success buffered events are flushed and the realtime channel
// is (re)opened. A failure leaves the identity set and is not retried.
func (c *Controller) Login(userID string) *async.Future[struct{}] {
	if userID == "" {
		return async.Resolved(struct{}{}, fmt.Errorf("%w: empty user id", ErrNoIdentity))
	}
	c.ids.SetUser(userID)

	client, ep, dev, err := c.target()
	if err != nil {
		c.logFailure("login before initialize", err, "user_id", userID)
		return async.Resolved(struct{}{}, err)
	}
	return spawn(c, func(ctx context.Context) (struct{}, error) {
		_, err := client.RegisterUser(ctx, delivery.RegisterUserRequest{
			UserID:    userID,
			DeviceID:  dev.ID,
			ChannelID: ep.Channel,
		}).AwaitContext(ctx)
		if err != nil {
			c.logFailure("login failed", err, "user_id", userID)
			return struct{}{}, err
		}
		c.log.Info("logged in", "user_id", userID, "guest_id", c.ids.Guest())
		c.flush(ctx)
		c.connectSocket()
		return struct{}{}, nil
	})
}

// SendEvent posts an analytics event as the resolved identity, or buffers
// it when there is none yet. Buffering resolves the future immediately.
func (c *Controller) SendEvent(name string, data map[string]any) *async.Future[struct{}] {
	if data == nil {
		data = map[string]any{}
	} else {
		data = maps.Clone(data)
	}
	id, ok := c.ids.Resolve()
	client, ep, _, err := c.target()
	if !ok || err != nil {
		c.buf.Enqueue(c.ctx, name, data)
		// An identity that arrived after Resolve may have flushed already.
		if _, late := c.ids.Resolve(); !ok && late && err == nil {
			spawn(c, func(ctx context.Context) (struct{}, error) {
				c.flush(ctx)
				return struct{}{}, nil
			})
		}
		return async.Resolved(struct{}{}, nil)
	}

	return spawn(c, func(ctx context.Context) (struct{}, error) {
		_, err := client.PostEvent(ctx, delivery.EventRequest{
			UserID:    id.Value,
			ChannelID: ep.Channel,
			EventName: name,
			EventData: data,
		}).AwaitContext(ctx)
		if err != nil {
			c.logFailure("event send failed", err, "event", name)
			return struct{}{}, err
		}
		c.log.Debug("event sent", "event", name, "as", id.Kind.String())
		return struct{}{}, nil
	})
}

// flush replays buffered events through SendEvent. Events that still find
// no identity go back into the buffer.
func (c *Controller) flush(ctx context.Context) {
	for _, ev := range c.buf.FlushAll(ctx) {
		c.SendEvent(ev.Name, ev.Data)
	}
}

// SetForegroundSurface makes s the render target and emits page_open.
func (c *Controller) SetForegroundSurface(s surface.Surface) {
	if s == nil {
		return
	}
	c.surfaces.Set(s)
	c.SendEvent(EventPageOpen, map[string]any{"page": s.Name()})
}

// ClearForegroundSurface removes the render target and emits page_closed.
func (c *Controller) ClearForegroundSurface() {
	s := c.surfaces.Clear()
	if s == nil {
		return
	}
	c.SendEvent(EventPageClosed, map[string]any{"page": s.Name()})
}

// ReleaseForegroundSurface clears s if it is still the render target and
// emits page_closed. A surface that was already replaced is left alone, so
// a late release from an old screen cannot clear the new one.
func (c *Controller) ReleaseForegroundSurface(s surface.Surface) {
	if s == nil || !c.surfaces.ClearIf(s) {
		return
	}
	c.SendEvent(EventPageClosed, map[string]any{"page": s.Name()})
}

// connectSocket replaces the realtime channel with one authenticated as
// the currently resolved identity. A live channel for the same id is kept.
func (c *Controller) connectSocket() {
	id, ok := c.ids.Resolve()
	if !ok {
		c.log.Debug("no identity, realtime not connected")
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if cur := c.channel; cur != nil && cur.UserID() == id.Value && cur.State() != realtime.Disconnected {
		c.mu.Unlock()
		c.log.Debug("realtime already connected", "user_id", id.Value)
		return
	}
	opts := []realtime.Option{
		realtime.WithReconnectDelay(c.cfg.Realtime.ReconnectDelay, c.cfg.Realtime.MaxReconnectDelay),
		realtime.WithPingInterval(c.cfg.Realtime.PingInterval),
		realtime.WithLogger(c.log),
		realtime.WithDialer(c.dialer),
	}
	if c.onState != nil {
		opts = append(opts, realtime.WithStateListener(c.onState))
	}
	ch := realtime.NewChannel(c.cfg.RealtimeURL(c.endpoint.Tenant), id.Value, c.handleSocketMessage, opts...)
	old := c.channel
	c.channel = ch
	c.mu.Unlock()

	if old != nil {
		old.Disconnect()
	}
	if err := ch.Connect(c.ctx); err != nil {
		c.logFailure("realtime connect failed", err)
	}
}

func (c *Controller) handleSocketMessage(msg realtime.Message) {
	if ruleID, ok := msg.RuleTrigger(); ok {
		c.poll(ruleID)
		return
	}
	if t, _ := msg["message_type"].(string); t == realtime.MessageTypeRuleTriggered {
		c.log.Warn("rule trigger without rule id dropped")
		return
	}

	content, ok, err := inapp.FromSocket(msg.Flatten())
	switch {
	case !ok:
		c.log.Debug("realtime message ignored", "type", msg["type"])
	case err != nil:
		c.logFailure("in-app message dropped", err)
	default:
		c.render(content)
	}
}

// poll fetches the in-app content for a triggered rule and renders it.
func (c *Controller) poll(ruleID string) *async.Future[inapp.Content] {
	client, _, _, err := c.target()
	if err != nil {
		return async.Resolved(inapp.Content{}, err)
	}
	return spawn(c, func(ctx context.Context) (inapp.Content, error) {
		resp, err := client.PollInApp(ctx, delivery.PollRequest{RuleID: ruleID}).AwaitContext(ctx)
		if err != nil {
			c.logFailure("in-app poll failed", err, "rule_id", ruleID)
			return inapp.Content{}, err
		}
		if !resp.Success {
			c.log.Warn("in-app poll unsuccessful", "rule_id", ruleID)
			return inapp.Content{}, nil
		}
		if len(resp.Data) == 0 {
			c.log.Warn("in-app poll returned no content", "rule_id", ruleID)
			return inapp.Content{}, nil
		}
		content, err := inapp.Parse(resp.Data)
		if err != nil {
			c.logFailure("in-app content dropped", err, "rule_id", ruleID)
			return inapp.Content{}, err
		}
		return content, c.render(content)
	})
}

// render hands content to the foreground surface on its UI context. With
// no surface the content is dropped.
func (c *Controller) render(content inapp.Content) error {
	s := c.surfaces.Current()
	if s == nil {
		c.logFailure("in-app content dropped", ErrNoSurface, "layout", string(content.Layout))
		return ErrNoSurface
	}
	s.Dispatch(func() {
		if err := s.Render(content); err != nil {
			c.log.Error("render failed", "page", s.Name(), "err", err)
		}
	})
	return nil
}

// HandleNotification records a push payload and shows it through the
// configured Notifier. ok is false when the payload has nothing to show.
func (c *Controller) HandleNotification(data map[string]string) (notify.Notification, bool) {
	c.mu.Lock()
	c.last = maps.Clone(data)
	c.mu.Unlock()

	n, ok := notify.Parse(data, c.now())
	if !ok {
		c.log.Debug("notification has nothing to show")
		return n, false
	}
	if c.notifier != nil {
		if err := c.notifier.Notify(c.ctx, n); err != nil {
			c.log.Error("notify failed", "id", n.ID, "err", err)
		}
	}
	return n, true
}

// LastNotification returns the most recent push payload, or nil.
func (c *Controller) LastNotification() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.last)
}

// Identity returns the identity calls are currently made as.
func (c *Controller) Identity() (identity.Identity, bool) {
	return c.ids.Resolve()
}

// ChannelState returns the realtime channel state.
func (c *Controller) ChannelState() realtime.State {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return realtime.Disconnected
	}
	return ch.State()
}

// Buffered returns the number of events waiting for an identity.
func (c *Controller) Buffered() int {
	return c.buf.Len(c.ctx)
}

// ServerURL returns the REST base URL, or "" before Initialize.
func (c *Controller) ServerURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverURL
}

// Device returns the resolved device info.
func (c *Controller) Device() device.Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

// Wait blocks until all background work has finished.
func (c *Controller) Wait() {
	c.tasks.Wait()
}

// Close cancels in-flight requests, stops the realtime channel and waits
// for background work. The store is not closed.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	ch := c.channel
	c.mu.Unlock()

	c.cancel()
	if ch != nil {
		ch.Close()
	}
	c.tasks.Wait()
	return nil
}

func (c *Controller) target() (*delivery.Client, config.Endpoint, device.Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil, config.Endpoint{}, device.Info{}, ErrNotInitialized
	}
	return c.client, c.endpoint, c.device, nil
}

func (c *Controller) logFailure(msg string, err error, args ...any) {
	args = append(args, "err", err, "kind", string(Classify(err)))
	c.log.Warn(msg, args...)
}

// spawn runs fn as tracked background work. After Close it resolves with
// ErrClosed without running fn.
func spawn[T any](c *Controller, fn func(context.Context) (T, error)) *async.Future[T] {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		var zero T
		return async.Resolved(zero, ErrClosed)
	}
	c.tasks.Add(1)
	c.mu.Unlock()

	f := async.Go(c.ctx, fn)
	go func() {
		<-f.Done()
		c.tasks.Done()
	}()
	return f
}
