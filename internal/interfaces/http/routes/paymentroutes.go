package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/autopay/internal/interfaces/http/handlers"
	"github.com/orris-inc/autopay/internal/interfaces/http/middleware"
)

// PaymentRouteConfig holds dependencies for scheduler and processor routes.
type PaymentRouteConfig struct {
	PaymentHandler         *handlers.PaymentHandler
	AuthMiddleware         *middleware.AuthMiddleware
	DelegatedKeyMiddleware *middleware.DelegatedKeyMiddleware
	RateLimiter            *middleware.PrincipalRateLimiter
}

// SetupPaymentRoutes configures worker-facing payment routes. Processing also
// requires a request signed with the subscription's delegated key.
func SetupPaymentRoutes(api *gin.RouterGroup, cfg *PaymentRouteConfig) {
	payments := api.Group("/payments", authenticated(cfg.AuthMiddleware, cfg.RateLimiter)...)
	{
		payments.GET("/due", cfg.PaymentHandler.GetDueSubscriptions)
		payments.POST("/:id/process",
			cfg.DelegatedKeyMiddleware.RequireSignature(),
			cfg.PaymentHandler.ProcessPayment,
		)
	}
}
