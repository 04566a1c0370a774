package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/autopay/internal/interfaces/http/handlers"
	"github.com/orris-inc/autopay/internal/interfaces/http/middleware"
)

// SubscriptionRouteConfig holds dependencies for subscription ledger routes.
type SubscriptionRouteConfig struct {
	SubscriptionHandler *handlers.SubscriptionHandler
	MerchantHandler     *handlers.MerchantHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimiter         *middleware.PrincipalRateLimiter
}

// SetupSubscriptionRoutes configures subscription, user and merchant listing routes.
func SetupSubscriptionRoutes(api *gin.RouterGroup, cfg *SubscriptionRouteConfig) {
	auth := authenticated(cfg.AuthMiddleware, cfg.RateLimiter)

	subscriptions := api.Group("/subscriptions")
	{
		subscriptions.GET("/:id", cfg.SubscriptionHandler.GetSubscription)

		owned := subscriptions.Group("", auth...)
		owned.POST("", cfg.SubscriptionHandler.CreateSubscription)
		owned.POST("/:id/keys", cfg.SubscriptionHandler.RegisterKey)
		owned.POST("/:id/cancel", cfg.SubscriptionHandler.CancelSubscription)
		owned.POST("/:id/pause", cfg.SubscriptionHandler.PauseSubscription)
		owned.POST("/:id/resume", cfg.SubscriptionHandler.ResumeSubscription)
	}

	api.GET("/users/:principal/subscriptions", cfg.SubscriptionHandler.ListUserSubscriptions)

	merchants := api.Group("/merchants")
	{
		merchants.GET("", cfg.MerchantHandler.ListMerchants)
		merchants.GET("/:principal/subscriptions", cfg.MerchantHandler.ListMerchantSubscriptions)
	}
}
