package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/autopay/internal/interfaces/http/handlers"
	"github.com/orris-inc/autopay/internal/interfaces/http/middleware"
)

// WorkerRouteConfig holds dependencies for worker registry routes.
type WorkerRouteConfig struct {
	WorkerHandler  *handlers.WorkerHandler
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.PrincipalRateLimiter
}

// SetupWorkerRoutes configures worker registration and self-check routes.
func SetupWorkerRoutes(api *gin.RouterGroup, cfg *WorkerRouteConfig) {
	workers := api.Group("/workers")
	{
		// Static segments come before /:principal.
		self := workers.Group("/me", authenticated(cfg.AuthMiddleware, cfg.RateLimiter)...)
		self.GET("/verify", cfg.WorkerHandler.VerifyCodehash)
		self.GET("/approved", cfg.WorkerHandler.VerifyApproved)

		workers.POST("/register", append(authenticated(cfg.AuthMiddleware, cfg.RateLimiter), cfg.WorkerHandler.RegisterWorker)...)
		workers.GET("/:principal", cfg.WorkerHandler.GetWorker)
	}
}
