// Package buffer holds analytics events recorded before any identity is
// known. Events are kept in a prefs.Store under a single key as a JSON
// array, so insertion order survives a restart.
package buffer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ninjabase8085/pushapp/internal/identity"
	"github.com/ninjabase8085/pushapp/internal/prefs"
)

// Key is the prefs key the buffer is stored under.
const Key = "event_buffer"

// Event is one buffered analytics event.
type Event struct {
	Name string         `json:"event_name"`
	Data map[string]any `json:"event_data"`
}

// Resolver reports whether an identity is available.
type Resolver interface {
	Resolve() (identity.Identity, bool)
}

// Buffer is a durable FIFO of pending events. Enqueue and FlushAll share
// one mutex so every read-modify-write of the stored list is exclusive.
type Buffer struct {
	mu    sync.Mutex
	store prefs.Store
	ids   Resolver
	log   *slog.Logger
}

// New creates a buffer over store. A nil logger discards.
func New(store prefs.Store, ids Resolver, logger *slog.Logger) *Buffer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Buffer{
		store: store,
		ids:   ids,
		log:   logger.With("component", "buffer"),
	}
}

// Enqueue appends an event. Storage failures are logged, not returned.
func (b *Buffer) Enqueue(ctx context.Context, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	events, err := b.load(ctx)
	if err != nil {
		b.log.Error("load buffer failed, starting a new one", "err", err)
		events = nil
	}
	events = append(events, Event{Name: name, Data: data})
	if err := b.save(ctx, events); err != nil {
		b.log.Error("buffer event failed", "event", name, "err", err)
		return
	}
	b.log.Debug("buffered event", "event", name, "pending", len(events))
}

// FlushAll returns every buffered event in enqueue order and clears the
// store. With no identity resolved it does nothing and returns nil.
func (b *Buffer) FlushAll(ctx context.Context) []Event {
	if _, ok := b.ids.Resolve(); !ok {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	events, err := b.load(ctx)
	if err != nil {
		b.log.Error("load buffer failed", "err", err)
		return nil
	}
	if len(events) == 0 {
		return nil
	}
	if err := b.store.Delete(ctx, Key); err != nil {
		// Keep the events stored rather than risk losing them.
		b.log.Error("clear buffer failed", "err", err)
		return nil
	}
	b.log.Info("flushing buffered events", "count", len(events))
	return events
}

// Len returns the number of buffered events.
func (b *Buffer) Len(ctx context.Context) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	events, err := b.load(ctx)
	if err != nil {
		return 0
	}
	return len(events)
}

func (b *Buffer) load(ctx context.Context) ([]Event, error) {
	raw, ok, err := b.store.Get(ctx, Key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var events []Event
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(&events); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", Key, err)
	}
	for i := range events {
		if events[i].Data == nil {
			events[i].Data = map[string]any{}
		}
	}
	return events, nil
}

func (b *Buffer) save(ctx context.Context, events []Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", Key, err)
	}
	return b.store.Set(ctx, Key, string(data))
}
