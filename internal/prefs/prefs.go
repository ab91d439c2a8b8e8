// Package prefs is a small durable string key/value store, the SDK's
// equivalent of platform "shared preferences". The event buffer and the
// generated device id live here.
package prefs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const appDirName = "pushapp"

// Store persists string values by key. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open returns a store for the given driver. An empty dir selects the
// default XDG state directory.
func Open(ctx context.Context, driver, dir string) (Store, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	switch driver {
	case "", DriverFile:
		return NewFileStore(dir), nil
	case DriverSQLite:
		return OpenSQLite(ctx, filepath.Join(dir, "prefs.db"))
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// DefaultDir returns ~/.local/state/pushapp, respecting XDG_STATE_HOME.
func DefaultDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}

// MemoryStore keeps values in process memory only.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
