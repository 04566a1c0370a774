package ratelimit

import (
	"context"
	"time"
)

type RateLimitConfig struct {
	RequestsPerMinute int
	RequestsPerHour   int
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, config RateLimitConfig) (bool, error)
	// GetRemaining reports requests left for key in window.
	GetRemaining(ctx context.Context, key string, window time.Duration, limit int) (int64, error)
}
