package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/orris-inc/autopay/internal/infrastructure/config"
	"github.com/orris-inc/autopay/internal/interfaces/http/middleware"
	"github.com/orris-inc/autopay/internal/interfaces/http/routes"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/constants"
	"github.com/orris-inc/autopay/internal/shared/logger"
	"github.com/orris-inc/autopay/internal/shared/utils"
	"github.com/orris-inc/autopay/internal/shared/version"
)

// Router represents the HTTP router configuration
type Router struct {
	*Container
}

// NewRouter builds the container. Call SetupRoutes before serving.
func NewRouter(cfg *config.Config, gdb *gorm.DB, clock biztime.Clock, log logger.Interface) (*Router, error) {
	c, err := NewContainer(cfg, gdb, clock, log)
	if err != nil {
		return nil, err
	}
	return &Router{Container: c}, nil
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CustomLogger(r.log))
	r.engine.Use(middleware.Recovery(r.log))
	r.engine.Use(middleware.SecurityHeaders())
	r.engine.Use(middleware.CORS(r.cfg.Server.AllowedOrigins))

	r.engine.GET("/health", r.health)
	r.engine.GET("/version", func(c *gin.Context) {
		utils.SuccessResponse(c, http.StatusOK, "", version.Get())
	})

	api := r.engine.Group(constants.APIVersionPrefix)

	routes.SetupWorkerRoutes(api, &routes.WorkerRouteConfig{
		WorkerHandler:  r.workerHandler,
		AuthMiddleware: r.authMiddleware,
		RateLimiter:    r.rateLimiter,
	})
	routes.SetupAdminRoutes(api, &routes.AdminRouteConfig{
		WorkerHandler:   r.workerHandler,
		MerchantHandler: r.merchantHandler,
		AuthMiddleware:  r.authMiddleware,
		RateLimiter:     r.rateLimiter,
	})
	routes.SetupSubscriptionRoutes(api, &routes.SubscriptionRouteConfig{
		SubscriptionHandler: r.subscriptionHandler,
		MerchantHandler:     r.merchantHandler,
		AuthMiddleware:      r.authMiddleware,
		RateLimiter:         r.rateLimiter,
	})
	routes.SetupPaymentRoutes(api, &routes.PaymentRouteConfig{
		PaymentHandler:         r.paymentHandler,
		AuthMiddleware:         r.authMiddleware,
		DelegatedKeyMiddleware: r.delegatedKeyMiddleware,
		RateLimiter:            r.rateLimiter,
	})
}

func (r *Router) health(c *gin.Context) {
	status := gin.H{"status": "ok", "storage": r.cfg.Storage.Backend}
	if r.redis != nil {
		if err := r.redis.Ping(c.Request.Context()).Err(); err != nil {
			status["status"] = "degraded"
			status["redis"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["redis"] = "ok"
	}
	c.JSON(http.StatusOK, status)
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
