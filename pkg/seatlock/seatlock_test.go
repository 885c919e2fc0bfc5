package seatlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLock(t *testing.T) (*Lock, *miniredis.Miniredis) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client), srv
}

func TestAcquireIsExclusive(t *testing.T) {
	lock, _ := setupLock(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "res-1", 3, "holder-a", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, "res-1", 3, "holder-b", 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// A different seat of the same reservation is an independent lease.
	ok, err = lock.Acquire(ctx, "res-1", 4, "holder-b", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Same seat number on another reservation is independent too.
	ok, err = lock.Acquire(ctx, "res-2", 3, "holder-b", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseFreesSeat(t *testing.T) {
	lock, _ := setupLock(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "res-1", 1, "holder-a", 5*time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock.Release(ctx, "res-1", 1))

	ok, err = lock.Acquire(ctx, "res-1", 1, "holder-b", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseIsIdempotent(t *testing.T) {
	lock, _ := setupLock(t)
	ctx := context.Background()

	require.NoError(t, lock.Release(ctx, "res-1", 7))
	require.NoError(t, lock.Release(ctx, "res-1", 7))
}

func TestLeaseExpires(t *testing.T) {
	lock, srv := setupLock(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "res-1", 5, "holder-a", 5*time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	srv.FastForward(5*time.Minute + time.Second)

	ok, err = lock.Acquire(ctx, "res-1", 5, "holder-b", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPeek(t *testing.T) {
	lock, _ := setupLock(t)
	ctx := context.Background()

	_, held, err := lock.Peek(ctx, "res-1", 2)
	require.NoError(t, err)
	assert.False(t, held)

	ok, err := lock.Acquire(ctx, "res-1", 2, "holder-a", 5*time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	holder, held, err := lock.Peek(ctx, "res-1", 2)
	require.NoError(t, err)
	assert.True(t, held)
	assert.Equal(t, "holder-a", holder)
}
