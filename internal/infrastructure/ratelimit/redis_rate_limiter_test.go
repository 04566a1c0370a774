package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/autopay/internal/shared/biztime"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client
}

func TestRedisRateLimiter_Allow_PerMinute(t *testing.T) {
	client := setupTestRedis(t)
	clock := biztime.NewManualClock(1_700_000_000)
	limiter := NewRedisRateLimiter(client, clock)
	ctx := context.Background()

	config := RateLimitConfig{RequestsPerMinute: 5}
	key := "worker-1"

	for i := 0; i < 5; i++ {
		clock.Advance(time.Millisecond)
		allowed, err := limiter.Allow(ctx, key, config)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	clock.Advance(time.Millisecond)
	allowed, err := limiter.Allow(ctx, key, config)
	require.NoError(t, err)
	assert.False(t, allowed, "6th request should be denied")

	clock.Advance(2 * time.Minute)
	allowed, err = limiter.Allow(ctx, key, config)
	require.NoError(t, err)
	assert.True(t, allowed, "window should have slid past earlier requests")
}

func TestRedisRateLimiter_GetRemaining(t *testing.T) {
	client := setupTestRedis(t)
	clock := biztime.NewManualClock(1_700_000_000)
	limiter := NewRedisRateLimiter(client, clock)
	ctx := context.Background()

	config := RateLimitConfig{RequestsPerMinute: 10}
	for i := 0; i < 3; i++ {
		clock.Advance(time.Millisecond)
		_, err := limiter.Allow(ctx, "worker-2", config)
		require.NoError(t, err)
	}

	remaining, err := limiter.GetRemaining(ctx, "worker-2", time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(7), remaining)

	clock.Advance(2 * time.Minute)
	remaining, err = limiter.GetRemaining(ctx, "worker-2", time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), remaining)
}

func TestRedisRateLimiter_DisabledWindows(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client, nil)

	for i := 0; i < 20; i++ {
		allowed, err := limiter.Allow(context.Background(), "k", RateLimitConfig{})
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}
