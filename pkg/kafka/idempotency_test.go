package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryIdempotencyStore(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))
	seen, _ = store.Contains(ctx, "evt-1")
	assert.True(t, seen)

	now = now.Add(2 * time.Minute)
	seen, _ = store.Contains(ctx, "evt-1")
	assert.False(t, seen, "entry should expire after ttl")
	assert.Equal(t, 0, store.Len())
}

func TestMemoryIdempotencyStore_SweepsExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryIdempotencyStore(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	for i := 0; i < memorySweepEvery-1; i++ {
		require.NoError(t, store.Add(ctx, fmt.Sprintf("old-%d", i)))
	}
	assert.Equal(t, memorySweepEvery-1, store.Len())

	now = now.Add(2 * time.Minute)
	require.NoError(t, store.Add(ctx, "fresh"))
	assert.Equal(t, 1, store.Len())

	seen, err := store.Contains(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, seen)
}

func newMiniredisStore(t *testing.T, ttl time.Duration) (*RedisIdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisIdempotencyStore(client, "notification", ttl), mr
}

func TestRedisIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniredisStore(t, time.Hour)

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))
	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.True(t, mr.Exists("airline:processed:notification:evt-1"))

	mr.FastForward(2 * time.Hour)
	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRedisIdempotencyStore_Unavailable(t *testing.T) {
	store, mr := newMiniredisStore(t, time.Hour)
	mr.Close()

	_, err := store.Contains(context.Background(), "evt-1")
	assert.Error(t, err)
}

type failingStore struct{}

func (failingStore) Contains(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}
func (failingStore) Add(context.Context, string) error { return errors.New("store down") }

func TestIdempotentHandler(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryIdempotencyStore(time.Minute)

	calls := 0
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		return nil
	}, testLogger())

	event := &Event{EventID: "evt-1", EventType: "user.registered"}
	require.NoError(t, h(ctx, event))
	require.NoError(t, h(ctx, event))
	assert.Equal(t, 1, calls, "duplicate delivery must be skipped")

	require.NoError(t, h(ctx, &Event{EventType: "user.registered"}))
	require.NoError(t, h(ctx, &Event{EventType: "user.registered"}))
	assert.Equal(t, 3, calls, "events without an ID are never deduplicated")
}

func TestIdempotentHandler_FailureIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryIdempotencyStore(time.Minute)

	fail := true
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		if fail {
			return errors.New("boom")
		}
		return nil
	}, testLogger())

	event := &Event{EventID: "evt-2", EventType: "reservation.created"}
	require.Error(t, h(ctx, event))

	seen, _ := store.Contains(ctx, "evt-2")
	assert.False(t, seen)

	fail = false
	require.NoError(t, h(ctx, event))
	seen, _ = store.Contains(ctx, "evt-2")
	assert.True(t, seen)
}

func TestIdempotentHandler_StoreDownStillProcesses(t *testing.T) {
	calls := 0
	h := IdempotentHandler(failingStore{}, func(context.Context, *Event) error {
		calls++
		return nil
	}, testLogger())

	require.NoError(t, h(context.Background(), &Event{EventID: "evt-3", EventType: "x"}))
	assert.Equal(t, 1, calls)
}
