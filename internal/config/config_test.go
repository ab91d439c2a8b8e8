package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/pushapp/api", cfg.Server.APIPath)
	assert.Equal(t, 10*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Realtime.ReconnectDelay)
	assert.Equal(t, 60*time.Second, cfg.Realtime.MaxReconnectDelay)
	assert.Equal(t, 30*time.Second, cfg.Realtime.PingInterval)
	assert.False(t, cfg.Realtime.ConnectAsGuest)
	assert.Equal(t, "android", cfg.Device.Platform)
	assert.Equal(t, "file", cfg.Storage.Driver)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pushapp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
identifier: acme#chan1
realtime:
  reconnect_delay: 2s
  connect_as_guest: true
storage:
  driver: sqlite
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "acme#chan1", cfg.Identifier)
	assert.Equal(t, 2*time.Second, cfg.Realtime.ReconnectDelay)
	assert.True(t, cfg.Realtime.ConnectAsGuest)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	// untouched fields keep defaults
	assert.Equal(t, 60*time.Second, cfg.Realtime.MaxReconnectDelay)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pushapp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("identifier: acme#chan1\n"), 0o644))
	t.Setenv("PUSHAPP_IDENTIFIER", "beta#web")
	t.Setenv("PUSHAPP_SERVER_BASE_URL", "http://localhost:9000")
	t.Setenv("PUSHAPP_REALTIME_PING_INTERVAL", "5s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "beta#web", cfg.Identifier)
	assert.Equal(t, "http://localhost:9000", cfg.Server.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Realtime.PingInterval)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)

	t.Setenv("PUSHAPP_SERVER_TIMEOUT", "soon")
	_, err = Load("")
	assert.Error(t, err)
}

func TestParseIdentifier(t *testing.T) {
	ep, err := ParseIdentifier("acme#chan1")
	require.NoError(t, err)
	assert.Equal(t, Endpoint{Tenant: "acme", Channel: "chan1"}, ep)

	for _, bad := range []string{"", "acme", "acme#", "#chan", "a#b#c"} {
		_, err := ParseIdentifier(bad)
		assert.ErrorIs(t, err, ErrInvalidIdentifier, bad)
	}
}

func TestURLs(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "https://acme.mehery.com", cfg.ServerURL("acme"))
	assert.Equal(t, "wss://acme.mehery.com/pushapp", cfg.RealtimeURL("acme"))

	cfg.Server.BaseURL = "http://127.0.0.1:8080/"
	cfg.Realtime.URL = "ws://127.0.0.1:8080/ws"
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerURL("acme"))
	assert.Equal(t, "ws://127.0.0.1:8080/ws", cfg.RealtimeURL("acme"))
}
