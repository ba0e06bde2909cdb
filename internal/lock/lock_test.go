package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLocker(rdb, "test:"), mr
}

func TestRedisLocker_Exclusive(t *testing.T) {
	ctx := context.Background()
	locker, mr := newTestLocker(t)

	held, err := locker.Acquire(ctx, "admin-ops", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:admin-ops"))

	_, err = locker.Acquire(ctx, "admin-ops", time.Minute)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	require.NoError(t, held.Release(ctx))
	assert.False(t, mr.Exists("test:admin-ops"))

	again, err := locker.Acquire(ctx, "admin-ops", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestRedisLocker_ReleaseAfterExpiry(t *testing.T) {
	ctx := context.Background()
	locker, mr := newTestLocker(t)

	held, err := locker.Acquire(ctx, "admin-ops", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	// someone else takes the key after expiry
	other, err := locker.Acquire(ctx, "admin-ops", time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, held.Release(ctx), ErrLockNotHeld)
	require.NoError(t, other.Release(ctx))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, rdb.Close())

	_, err = Connect(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestNoopLocker(t *testing.T) {
	l, err := NoopLocker{}.Acquire(context.Background(), "x", time.Second)
	require.NoError(t, err)
	assert.NoError(t, l.Release(context.Background()))
}
