package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/autopay/internal/infrastructure/ratelimit"
	"github.com/orris-inc/autopay/internal/shared/constants"
	"github.com/orris-inc/autopay/internal/shared/logger"
	"github.com/orris-inc/autopay/internal/shared/utils"
)

// PrincipalRateLimiter throttles authenticated callers by principal, falling
// back to the client IP before authentication has run.
type PrincipalRateLimiter struct {
	limiter ratelimit.RateLimiter
	config  ratelimit.RateLimitConfig
	logger  logger.Interface
}

func NewPrincipalRateLimiter(limiter ratelimit.RateLimiter, config ratelimit.RateLimitConfig, logger logger.Interface) *PrincipalRateLimiter {
	return &PrincipalRateLimiter{
		limiter: limiter,
		config:  config,
		logger:  logger,
	}
}

func (rl *PrincipalRateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if principal, ok := GetPrincipal(c); ok {
			key = "principal:" + principal
		}

		allowed, err := rl.limiter.Allow(c.Request.Context(), key, rl.config)
		if err != nil {
			// Redis being down must not take the API with it.
			rl.logger.Warnw("rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		if !allowed {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		rl.setRemaining(c, key)
		c.Next()
	}
}

// setRemaining reports the per-minute budget left after this request.
func (rl *PrincipalRateLimiter) setRemaining(c *gin.Context, key string) {
	limit := rl.config.RequestsPerMinute
	if limit <= 0 {
		return
	}

	remaining, err := rl.limiter.GetRemaining(c.Request.Context(), key, time.Minute, limit)
	if err != nil {
		rl.logger.Debugw("failed to read remaining rate limit", "error", err, "key", key)
		return
	}

	c.Header(constants.HeaderRateLimitLimit, strconv.Itoa(limit))
	c.Header(constants.HeaderRateLimitLeft, strconv.FormatInt(remaining, 10))
}
