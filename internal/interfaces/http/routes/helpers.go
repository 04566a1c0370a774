package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/autopay/internal/interfaces/http/middleware"
)

// authenticated returns the bearer token check followed by the per-principal
// rate limit when one is configured.
func authenticated(auth *middleware.AuthMiddleware, limiter *middleware.PrincipalRateLimiter) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{auth.RequireAuth()}
	if limiter != nil {
		chain = append(chain, limiter.Limit())
	}
	return chain
}
