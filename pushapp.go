// Package pushapp is the public entry point of the engagement SDK. A host
// application loads a Config, opens a Client, calls Initialize with its
// "tenant#channel" identifier and reports screen changes through
// SetForegroundSurface and ReleaseForegroundSurface (or
// ClearForegroundSurface when the screen identity is not tracked).
//
//	cfg, err := pushapp.LoadConfig("pushapp.yaml")
//	client, err := pushapp.Open(ctx, cfg, pushapp.Options{Tokens: pushapp.StaticToken(tok)})
//	defer client.Close()
//	client.Initialize(cfg.Identifier)
//	client.Login("user-42")
package pushapp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ninjabase8085/pushapp/internal/config"
	"github.com/ninjabase8085/pushapp/internal/device"
	"github.com/ninjabase8085/pushapp/internal/identity"
	"github.com/ninjabase8085/pushapp/internal/inapp"
	"github.com/ninjabase8085/pushapp/internal/logging"
	"github.com/ninjabase8085/pushapp/internal/notify"
	"github.com/ninjabase8085/pushapp/internal/prefs"
	"github.com/ninjabase8085/pushapp/internal/realtime"
	"github.com/ninjabase8085/pushapp/internal/session"
	"github.com/ninjabase8085/pushapp/internal/surface"
)

type (
	Config       = config.Config
	Options      = session.Options
	Store        = prefs.Store
	Surface      = surface.Surface
	Content      = inapp.Content
	Layout       = inapp.Layout
	Notification = notify.Notification
	Notifier     = notify.Notifier
	TokenSource  = device.TokenSource
	StaticToken  = device.StaticToken
	Identity     = identity.Identity
	ChannelState = realtime.State
)

const (
	Popup  = inapp.Popup
	Banner = inapp.Banner
	PiP    = inapp.PiP
)

// Client is a session that owns its store when Open created it.
type Client struct {
	*session.Controller
	store     prefs.Store
	ownsStore bool
}

// LoadConfig reads path (optional) and PUSHAPP_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// NewLogger builds a logger from the log section of cfg.
func NewLogger(cfg *Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(
		logging.WithLevel(level),
		logging.WithFormat(format),
		logging.WithOutput(w),
	), nil
}

// OpenStore opens the durable store selected by cfg.Storage.
func OpenStore(ctx context.Context, cfg *Config) (Store, error) {
	return prefs.Open(ctx, cfg.Storage.Driver, cfg.Storage.Path)
}

// Open creates a client from cfg. Missing Logger and Store options are
// built from cfg; a store built here is closed by Client.Close.
func Open(ctx context.Context, cfg *Config, opts Options) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	opts.Config = cfg

	if opts.Logger == nil {
		l, err := NewLogger(cfg, os.Stderr)
		if err != nil {
			return nil, err
		}
		opts.Logger = l
	}

	owns := false
	if opts.Store == nil {
		store, err := OpenStore(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		opts.Store = store
		owns = true
	}

	return &Client{
		Controller: session.New(opts),
		store:      opts.Store,
		ownsStore:  owns,
	}, nil
}

// Close stops the session and closes the store if Open created it.
func (c *Client) Close() error {
	if err := c.Controller.Close(); err != nil {
		return err
	}
	if c.ownsStore {
		return c.store.Close()
	}
	return nil
}
