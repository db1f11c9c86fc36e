package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerAcquireRelease(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	acquired, err := locker.Acquire(ctx, "book:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	// Second acquire on a held lock fails.
	acquired, err = locker.Acquire(ctx, "book:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	// A different key is independent.
	acquired, err = locker.Acquire(ctx, "book:2", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	released, err := locker.Release(ctx, "book:1")
	require.NoError(t, err)
	assert.True(t, released)

	acquired, err = locker.Acquire(ctx, "book:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestMemoryLockerExpiry(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	acquired, err := locker.Acquire(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, acquired)

	time.Sleep(30 * time.Millisecond)

	acquired, err = locker.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestMemoryLockerReleaseUnheld(t *testing.T) {
	locker := NewMemoryLocker()

	released, err := locker.Release(context.Background(), "nothing")
	require.NoError(t, err)
	assert.False(t, released)
}

func TestMemoryLockerAcquireWithRetry(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	acquired, err := locker.Acquire(ctx, "k", 20*time.Millisecond)
	require.NoError(t, err)
	require.True(t, acquired)

	// Retries until the holder's TTL lapses.
	acquired, err = locker.AcquireWithRetry(ctx, "k", time.Minute, 10, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestMemoryLockerContextCanceled(t *testing.T) {
	locker := NewMemoryLocker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := locker.Acquire(ctx, "k", time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNoOpLockerAlwaysAcquires(t *testing.T) {
	locker := NewNoOpLocker()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		acquired, err := locker.Acquire(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)
	}

	released, err := locker.Release(ctx, "k")
	require.NoError(t, err)
	assert.True(t, released)
}
