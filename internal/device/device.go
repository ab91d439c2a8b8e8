// Package device resolves the identifiers the SDK reports for this
// installation: a stable device id and the push platform.
package device

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/ninjabase8085/pushapp/internal/prefs"
)

// PrefsKey stores the resolved device id between runs.
const PrefsKey = "device_id"

// DefaultPlatform is sent when the config does not name one.
const DefaultPlatform = "android"

// ErrNoToken is returned by a TokenSource with nothing to offer.
var ErrNoToken = errors.New("device: no push token")

// Info identifies this installation to the server.
type Info struct {
	ID       string
	Platform string
}

// TokenSource supplies the push token registered with the server.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", ErrNoToken
	}
	return string(t), nil
}

// HostIDFunc returns a machine identifier. Swapped in tests.
type HostIDFunc func(ctx context.Context) (string, error)

// Resolver picks the device id. Order: configured id, stored id, host id,
// random UUID. Anything not configured is written back to the store.
type Resolver struct {
	Store    prefs.Store
	HostID   HostIDFunc
	Logger   *slog.Logger
	ID       string
	Platform string
}

// Resolve returns the device info, persisting a newly derived id.
func (r *Resolver) Resolve(ctx context.Context) Info {
	log := r.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With("component", "device")

	info := Info{ID: r.ID, Platform: r.Platform}
	if info.Platform == "" {
		info.Platform = DefaultPlatform
	}
	if info.ID != "" {
		return info
	}

	if r.Store != nil {
		id, ok, err := r.Store.Get(ctx, PrefsKey)
		if err != nil {
			log.Warn("read stored device id", "err", err)
		} else if ok && id != "" {
			info.ID = id
			return info
		}
	}

	hostID := r.HostID
	if hostID == nil {
		hostID = host.HostIDWithContext
	}
	id, err := hostID(ctx)
	id = strings.TrimSpace(id)
	if err != nil || id == "" {
		log.Debug("host id unavailable, generating device id", "err", err)
		id = uuid.NewString()
	}
	info.ID = id

	if r.Store != nil {
		if err := r.Store.Set(ctx, PrefsKey, id); err != nil {
			log.Warn("persist device id", "err", err)
		}
	}
	return info
}

// Describe returns host attributes for startup logging. Errors yield an
// empty slice.
func Describe(ctx context.Context) []any {
	hi, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil
	}
	return []any{
		"os", hi.OS,
		"platform", hi.Platform,
		"platform_version", hi.PlatformVersion,
		"arch", hi.KernelArch,
	}
}
