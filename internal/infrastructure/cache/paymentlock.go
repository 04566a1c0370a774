package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/autopay/internal/application/engine"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

const (
	// paymentLockPrefix is the prefix for per-subscription processing locks
	paymentLockPrefix = "autopay:payment_lock:"
	// DefaultPaymentLockTTL bounds how long a crashed holder can block a subscription
	DefaultPaymentLockTTL = 30 * time.Second
)

var _ engine.Locker = (*RedisPaymentLocker)(nil)

// releaseScript deletes the key only while it still carries the holder token,
// so an expired lock taken over by another instance is left alone.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisPaymentLocker serializes payment processing per subscription across
// every instance sharing the Redis server.
type RedisPaymentLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Interface
}

func NewRedisPaymentLocker(client *redis.Client, ttl time.Duration, log logger.Interface) *RedisPaymentLocker {
	if ttl <= 0 {
		ttl = DefaultPaymentLockTTL
	}
	return &RedisPaymentLocker{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

// buildKey builds the Redis key for a subscription lock
// Format: autopay:payment_lock:{subscription_id}
func (l *RedisPaymentLocker) buildKey(key string) string {
	return paymentLockPrefix + key
}

// Acquire takes the lock with SetNX. The returned release func never fails
// the caller; a release error only leaves the key to expire on its TTL.
func (l *RedisPaymentLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := l.buildKey(key)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire payment lock: %w", err)
	}
	if !acquired {
		return nil, engine.ErrLockHeld
	}

	release := func() {
		// The caller's context may already be done once the payment finished.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
			l.logger.Warnw("failed to release payment lock",
				"key", redisKey,
				"error", err,
			)
		}
	}
	return release, nil
}
