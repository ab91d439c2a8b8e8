package buffer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/ninjabase8085/pushapp/internal/identity"
	"github.com/ninjabase8085/pushapp/internal/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuffer(t *testing.T) (*Buffer, *identity.Resolver, prefs.Store) {
	t.Helper()
	store := prefs.NewFileStore(t.TempDir())
	ids := identity.NewResolver()
	return New(store, ids, nil), ids, store
}

func TestEnqueueStoresOneEvent(t *testing.T) {
	b, _, store := newTestBuffer(t)
	ctx := context.Background()

	b.Enqueue(ctx, "x", nil)

	raw, ok, err := store.Get(ctx, Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"event_name":"x","event_data":{}}]`, raw)
	assert.Equal(t, 1, b.Len(ctx))
}

func TestFlushWithoutIdentityIsNoop(t *testing.T) {
	b, _, _ := newTestBuffer(t)
	ctx := context.Background()

	b.Enqueue(ctx, "x", nil)
	assert.Nil(t, b.FlushAll(ctx))
	assert.Equal(t, 1, b.Len(ctx))
}

func TestFlushPreservesOrderAndClears(t *testing.T) {
	b, ids, _ := newTestBuffer(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		b.Enqueue(ctx, fmt.Sprintf("e%d", i), map[string]any{"i": i})
	}
	ids.SetGuest("g1")

	events := b.FlushAll(ctx)
	require.Len(t, events, 5)
	for i, ev := range events {
		assert.Equal(t, fmt.Sprintf("e%d", i), ev.Name)
		assert.Equal(t, json.Number(fmt.Sprint(i)), ev.Data["i"])
	}

	assert.Equal(t, 0, b.Len(ctx))
	assert.Nil(t, b.FlushAll(ctx), "second flush finds nothing")
}

func TestBufferSurvivesNewInstance(t *testing.T) {
	ctx := context.Background()
	store := prefs.NewFileStore(t.TempDir())
	ids := identity.NewResolver()

	New(store, ids, nil).Enqueue(ctx, "page_open", map[string]any{"page": "Main"})

	ids.SetUser("u1")
	events := New(store, ids, nil).FlushAll(ctx)
	require.Len(t, events, 1)
	assert.Equal(t, Event{Name: "page_open", Data: map[string]any{"page": "Main"}}, events[0])
}

func TestCorruptBufferIsReplaced(t *testing.T) {
	b, ids, store := newTestBuffer(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, Key, "not json"))

	b.Enqueue(ctx, "x", nil)
	ids.SetGuest("g1")

	events := b.FlushAll(ctx)
	require.Len(t, events, 1)
	assert.Equal(t, "x", events[0].Name)
}

func TestConcurrentEnqueueLosesNothing(t *testing.T) {
	b, ids, _ := newTestBuffer(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.Enqueue(ctx, fmt.Sprintf("e%d", i), nil)
		}(i)
	}
	wg.Wait()

	ids.SetGuest("g1")
	assert.Len(t, b.FlushAll(ctx), 20)
}

func TestConcurrentEnqueueAndFlush(t *testing.T) {
	b, ids, _ := newTestBuffer(t)
	ctx := context.Background()
	ids.SetGuest("g1")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		flushed int
	)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			b.Enqueue(ctx, fmt.Sprintf("e%d", i), nil)
		}(i)
		go func() {
			defer wg.Done()
			n := len(b.FlushAll(ctx))
			mu.Lock()
			flushed += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	flushed += len(b.FlushAll(ctx))
	assert.Equal(t, 20, flushed, "every event is flushed exactly once")
}
