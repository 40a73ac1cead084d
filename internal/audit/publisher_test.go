package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingStore lets tests hold the worker goroutine mid-append.
type blockingStore struct {
	*InMemoryStore
	gate chan struct{}
	once sync.Once
}

func (s *blockingStore) Append(ctx context.Context, event Event) error {
	<-s.gate
	return s.InMemoryStore.Append(ctx, event)
}

type failingStore struct{}

func (failingStore) Append(context.Context, Event) error       { return errors.New("backend down") }
func (failingStore) Recent(context.Context, int) ([]Event, error) { return nil, errors.New("backend down") }
func (failingStore) Name() string                              { return "failing" }

func TestPublisher_SyncEmit(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store)

	require.NoError(t, p.Emit(t.Context(), Event{Username: "katja", Result: ResultSuccess}))

	events, err := store.Recent(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero(), "zero timestamp must be stamped on emit")
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store, WithAsyncBuffer(16))

	for range 5 {
		require.NoError(t, p.Emit(t.Context(), Event{Username: "katja", Result: ResultSuccess}))
	}
	p.Close()

	events, err := store.Recent(t.Context(), 10)
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestPublisher_DropsWhenBufferFull(t *testing.T) {
	store := &blockingStore{InMemoryStore: NewInMemoryStore(), gate: make(chan struct{})}
	p := NewPublisher(store, WithAsyncBuffer(2))

	// The worker blocks on the first event; two more fill the buffer and
	// any beyond that are dropped without blocking the caller.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 10 {
			_ = p.Emit(context.Background(), Event{Username: "flood", Result: ResultUnauthorized})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}

	close(store.gate)
	p.Close()

	events, err := store.Recent(context.Background(), 100)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(events), 3, "only the in-flight event and the buffered ones survive")
	assert.NotEmpty(t, events)
}

func TestPublisher_StoreFailureIsSwallowed(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := NewPublisher(failingStore{}, WithPublisherLogger(logger))

	assert.NoError(t, p.Emit(t.Context(), Event{Username: "katja", Result: ResultSuccess}),
		"audit delivery failure must never reach the caller")
	assert.Contains(t, buf.String(), "failed to persist audit event")
}

func TestInMemoryStore_RecentBoundsLimit(t *testing.T) {
	store := NewInMemoryStore()
	ctx := t.Context()
	for i := range 4 {
		require.NoError(t, store.Append(ctx, Event{Username: "u", Timestamp: time.Unix(int64(i), 0)}))
	}

	events, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, time.Unix(2, 0), events[0].Timestamp)

	events, err = store.Recent(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, events, 4)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 100, ClampLimit(0, 100, 1000))
	assert.Equal(t, 100, ClampLimit(-3, 100, 1000))
	assert.Equal(t, 42, ClampLimit(42, 100, 1000))
	assert.Equal(t, 1000, ClampLimit(5000, 100, 1000))
}
