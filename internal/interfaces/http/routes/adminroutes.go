package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/autopay/internal/interfaces/http/handlers"
	"github.com/orris-inc/autopay/internal/interfaces/http/middleware"
)

// AdminRouteConfig holds dependencies for owner-only routes. The owner check
// itself runs in the use cases against the permission enforcer.
type AdminRouteConfig struct {
	WorkerHandler   *handlers.WorkerHandler
	MerchantHandler *handlers.MerchantHandler
	AuthMiddleware  *middleware.AuthMiddleware
	RateLimiter     *middleware.PrincipalRateLimiter
}

func SetupAdminRoutes(api *gin.RouterGroup, cfg *AdminRouteConfig) {
	admin := api.Group("/admin", authenticated(cfg.AuthMiddleware, cfg.RateLimiter)...)
	{
		admin.POST("/codehashes", cfg.WorkerHandler.ApproveCodehash)
		admin.POST("/merchants", cfg.MerchantHandler.RegisterMerchant)
	}
}
