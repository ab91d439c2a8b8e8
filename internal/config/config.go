package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PUSHAPP_IDENTIFIER.
const EnvPrefix = "PUSHAPP_"

// ErrInvalidIdentifier is returned for identifiers not of the form
// "tenant#channel".
var ErrInvalidIdentifier = errors.New("invalid identifier, expected tenant#channel")

type Config struct {
	Identifier string         `yaml:"identifier" env:"IDENTIFIER"`
	Server     ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Realtime   RealtimeConfig `yaml:"realtime" envPrefix:"REALTIME_"`
	Device     DeviceConfig   `yaml:"device" envPrefix:"DEVICE_"`
	Storage    StorageConfig  `yaml:"storage" envPrefix:"STORAGE_"`
	Log        LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

type ServerConfig struct {
	// BaseURL overrides https://<tenant>.mehery.com.
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	APIPath string        `yaml:"api_path" env:"API_PATH"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

type RealtimeConfig struct {
	// URL overrides wss://<tenant>.mehery.com/pushapp.
	URL               string        `yaml:"url" env:"URL"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay" env:"RECONNECT_DELAY"`
	MaxReconnectDelay time.Duration `yaml:"max_reconnect_delay" env:"MAX_RECONNECT_DELAY"`
	PingInterval      time.Duration `yaml:"ping_interval" env:"PING_INTERVAL"`
	ConnectAsGuest    bool          `yaml:"connect_as_guest" env:"CONNECT_AS_GUEST"`
}

type DeviceConfig struct {
	Platform string `yaml:"platform" env:"PLATFORM"`
	ID       string `yaml:"id" env:"ID"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	// Path is a directory. Empty means the user state directory.
	Path string `yaml:"path" env:"PATH"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Endpoint is a parsed identifier.
type Endpoint struct {
	Tenant  string
	Channel string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			APIPath: "/pushapp/api",
			Timeout: 10 * time.Second,
		},
		Realtime: RealtimeConfig{
			ReconnectDelay:    5 * time.Second,
			MaxReconnectDelay: 60 * time.Second,
			PingInterval:      30 * time.Second,
		},
		Device: DeviceConfig{
			Platform: "android",
		},
		Storage: StorageConfig{
			Driver: "file",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// PUSHAPP_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	return cfg, nil
}

// ParseIdentifier splits "tenant#channel".
func ParseIdentifier(s string) (Endpoint, error) {
	parts := strings.Split(s, "#")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return Endpoint{Tenant: parts[0], Channel: parts[1]}, nil
}

// ServerURL returns the REST base URL for tenant.
func (c *Config) ServerURL(tenant string) string {
	if c.Server.BaseURL != "" {
		return strings.TrimRight(c.Server.BaseURL, "/")
	}
	return "https://" + tenant + ".mehery.com"
}

// RealtimeURL returns the WebSocket URL for tenant.
func (c *Config) RealtimeURL(tenant string) string {
	if c.Realtime.URL != "" {
		return c.Realtime.URL
	}
	return "wss://" + tenant + ".mehery.com/pushapp"
}
