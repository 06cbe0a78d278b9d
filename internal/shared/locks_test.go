package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) *Locker {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLocker(client, time.Minute)
}

func TestLockerMutualExclusion(t *testing.T) {
	locker := newTestLocker(t)
	ctx := context.Background()
	key := YearCloseLockKey(1, 42)

	require.NoError(t, locker.Acquire(ctx, key))
	require.ErrorIs(t, locker.Acquire(ctx, key), ErrLockHeld)

	require.NoError(t, locker.Release(ctx, key))
	require.NoError(t, locker.Acquire(ctx, key))
}

func TestWithLockReleasesOnError(t *testing.T) {
	locker := newTestLocker(t)
	ctx := context.Background()
	key := PeriodLockKey(1, 7)

	err := locker.WithLock(ctx, key, func(context.Context) error {
		return context.DeadlineExceeded
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// lock must be free again after fn returned
	require.NoError(t, locker.Acquire(ctx, key))
}

func TestReleaseIgnoresForeignLock(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	holder := NewLocker(client, time.Minute)
	other := NewLocker(client, time.Minute)
	ctx := context.Background()
	key := YearCloseLockKey(3, 3)

	require.NoError(t, holder.Acquire(ctx, key))
	require.NoError(t, other.Release(ctx, key))
	require.ErrorIs(t, other.Acquire(ctx, key), ErrLockHeld)
}

func TestWithLockRejectsConcurrentEntry(t *testing.T) {
	locker := newTestLocker(t)
	ctx := context.Background()
	key := YearCloseLockKey(9, 9)

	require.NoError(t, locker.Acquire(ctx, key))
	err := locker.WithLock(ctx, key, func(context.Context) error { return nil })
	require.ErrorIs(t, err, ErrLockHeld)
}
