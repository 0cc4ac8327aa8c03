package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func listingEvent(eventID string) *Event {
	return &Event{
		EventID:       eventID,
		EventType:     "listing.updated",
		AggregateID:   "8d0c6a52-4a3e-4c55-a2a6-7f5e0b9d0c11",
		AggregateType: "listing",
	}
}

func TestMemoryIdempotencyStore_AddAndContains(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	ctx := context.Background()

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))
	require.NoError(t, store.Add(ctx, "evt-1"))

	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, "evt-expire"))

	clock = clock.Add(59 * time.Second)
	seen, err := store.Contains(ctx, "evt-expire")
	require.NoError(t, err)
	assert.True(t, seen)

	clock = clock.Add(time.Second)
	seen, err = store.Contains(ctx, "evt-expire")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryIdempotencyStore_AddSweepsExpired(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "evt-old"))
	clock = clock.Add(2 * time.Minute)
	require.NoError(t, store.Add(ctx, "evt-new"))

	assert.Len(t, store.deadlines, 1)
	assert.Contains(t, store.deadlines, "evt-new")
}

func TestMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Add(ctx, "evt-concurrent")
			_, _ = store.Contains(ctx, "evt-concurrent")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.Len())
}

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	calls := 0
	handler := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		return nil
	}, testLogger())

	event := listingEvent("evt-dup")
	require.NoError(t, handler(context.Background(), event))
	require.NoError(t, handler(context.Background(), event))
	require.NoError(t, handler(context.Background(), listingEvent("evt-other")))

	assert.Equal(t, 2, calls)
}

func TestIdempotentHandler_EmptyEventIDPassesThrough(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	calls := 0
	handler := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		return nil
	}, testLogger())

	for i := 0; i < 3; i++ {
		require.NoError(t, handler(context.Background(), listingEvent("")))
	}
	assert.Equal(t, 3, calls)
	assert.Equal(t, 0, store.Len())
}

func TestIdempotentHandler_FailureIsNotRecorded(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	boom := errors.New("index write failed")
	calls := 0
	handler := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		return boom
	}, testLogger())

	event := listingEvent("evt-err")
	assert.ErrorIs(t, handler(context.Background(), event), boom)
	assert.ErrorIs(t, handler(context.Background(), event), boom)

	seen, err := store.Contains(context.Background(), "evt-err")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Equal(t, 2, calls)
}

type failingIdempotencyStore struct{}

func (failingIdempotencyStore) Contains(context.Context, string) (bool, error) {
	return false, errors.New("store unavailable")
}

func (failingIdempotencyStore) Add(context.Context, string) error {
	return errors.New("store unavailable")
}

func TestIdempotentHandler_StoreErrorStillProcesses(t *testing.T) {
	calls := 0
	handler := IdempotentHandler(failingIdempotencyStore{}, func(context.Context, *Event) error {
		calls++
		return nil
	}, testLogger())

	require.NoError(t, handler(context.Background(), listingEvent("evt-store-fail")))
	assert.Equal(t, 1, calls)
}
