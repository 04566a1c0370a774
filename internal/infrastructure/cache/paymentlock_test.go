package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/autopay/internal/application/engine"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisPaymentLocker_Exclusive(t *testing.T) {
	_, client := setupTestRedis(t)
	locker := NewRedisPaymentLocker(client, time.Minute, logger.NewNop())
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "sub-1")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "sub-1")
	assert.ErrorIs(t, err, engine.ErrLockHeld)

	other, err := locker.Acquire(ctx, "sub-2")
	require.NoError(t, err)
	other()

	release()

	again, err := locker.Acquire(ctx, "sub-1")
	require.NoError(t, err)
	again()
}

func TestRedisPaymentLocker_ExpiredLockIsNotStolenBack(t *testing.T) {
	mr, client := setupTestRedis(t)
	locker := NewRedisPaymentLocker(client, time.Second, logger.NewNop())
	ctx := context.Background()

	staleRelease, err := locker.Acquire(ctx, "sub-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	release, err := locker.Acquire(ctx, "sub-1")
	require.NoError(t, err)

	// The first holder's release must not drop the second holder's lock.
	staleRelease()
	assert.True(t, mr.Exists(paymentLockPrefix+"sub-1"))

	release()
	assert.False(t, mr.Exists(paymentLockPrefix+"sub-1"))
}

func TestLocalPaymentLocker(t *testing.T) {
	locker := NewLocalPaymentLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "sub-1")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "sub-1")
	assert.ErrorIs(t, err, engine.ErrLockHeld)

	release()
	release()

	again, err := locker.Acquire(ctx, "sub-1")
	require.NoError(t, err)
	again()
}
