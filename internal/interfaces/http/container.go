package http

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/orris-inc/autopay/internal/application/engine"
	"github.com/orris-inc/autopay/internal/domain/shared/events"
	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/autopay/internal/infrastructure/attestation"
	"github.com/orris-inc/autopay/internal/infrastructure/auth"
	"github.com/orris-inc/autopay/internal/infrastructure/config"
	"github.com/orris-inc/autopay/internal/infrastructure/pubsub"
	"github.com/orris-inc/autopay/internal/infrastructure/ratelimit"
	"github.com/orris-inc/autopay/internal/interfaces/http/handlers"
	"github.com/orris-inc/autopay/internal/interfaces/http/middleware"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

const eventBufferSize = 256

// Container holds the engine, its infrastructure, handlers and middlewares,
// and releases them in Shutdown.
type Container struct {
	// Core infrastructure
	engine *gin.Engine
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client
	repos  *repositories

	// Domain core and its event fan-out
	core       *engine.Engine
	dispatcher *events.InMemoryEventDispatcher
	eventBus   *pubsub.RedisEventBus

	// Middlewares
	jwtSvc                 *auth.JWTService
	authMiddleware         *middleware.AuthMiddleware
	delegatedKeyMiddleware *middleware.DelegatedKeyMiddleware
	rateLimiter            *middleware.PrincipalRateLimiter

	// Handlers
	workerHandler       *handlers.WorkerHandler
	merchantHandler     *handlers.MerchantHandler
	subscriptionHandler *handlers.SubscriptionHandler
	paymentHandler      *handlers.PaymentHandler
}

// NewContainer wires everything together. gdb may be nil when the bolt
// backend is configured.
func NewContainer(cfg *config.Config, gdb *gorm.DB, clock biztime.Clock, log logger.Interface) (*Container, error) {
	if clock == nil {
		clock = biztime.SystemClock{}
	}
	c := &Container{
		engine: gin.New(),
		cfg:    cfg,
		log:    log,
	}

	if err := c.initInfrastructure(gdb, clock); err != nil {
		c.Shutdown()
		return nil, err
	}
	if err := c.initEngine(clock); err != nil {
		c.Shutdown()
		return nil, err
	}
	c.initHandlers(clock)

	return c, nil
}

// Section 1: storage, Redis and the event dispatcher.
func (c *Container) initInfrastructure(gdb *gorm.DB, clock biztime.Clock) error {
	repos, err := newRepositories(c.cfg, gdb, clock, c.log)
	if err != nil {
		return err
	}
	c.repos = repos

	if c.cfg.Redis.Enabled {
		client, err := initRedis(c.cfg, c.log)
		if err != nil {
			return err
		}
		c.redis = client
	}

	c.dispatcher = events.NewInMemoryEventDispatcher(eventBufferSize, c.log.Named("events"))
	audit := c.log.Named("audit")
	if err := c.dispatcher.Subscribe(events.AllEvents, events.NewSimpleEventHandler(events.AllEvents, func(e events.DomainEvent) error {
		audit.Infow("domain event",
			"event_type", e.GetEventType(),
			"aggregate_id", e.GetAggregateID(),
			"event_id", e.GetEventID(),
		)
		return nil
	})); err != nil {
		return err
	}

	if c.redis != nil {
		c.eventBus = pubsub.NewRedisEventBus(c.redis, "", c.log)
		if err := c.dispatcher.Subscribe(events.AllEvents, c.eventBus); err != nil {
			return err
		}
	}

	return c.dispatcher.Start()
}

// Section 2: the engine and its collaborators.
func (c *Container) initEngine(clock biztime.Clock) error {
	anchor, err := vo.ParseScheduleAnchor(c.cfg.Engine.ScheduleAnchor)
	if err != nil {
		return fmt.Errorf("invalid engine.schedule_anchor: %w", err)
	}
	locker, err := newPaymentLocker(c.cfg, c.redis, c.log)
	if err != nil {
		return err
	}
	executor, err := newTransferExecutor(c.cfg, c.redis, clock, c.log)
	if err != nil {
		return err
	}

	core, err := engine.New(engine.Deps{
		Workers:       c.repos.workers,
		Codehashes:    c.repos.codehashes,
		Merchants:     c.repos.merchants,
		Subscriptions: c.repos.subscriptions,
		Keys:          c.repos.keys,
		Runner:        c.repos.runner,
		Clock:         clock,
		Verifier:      attestation.NewEd25519Verifier(0),
		Executor:      executor,
		Enforcer:      c.repos.enforcer,
		Dispatcher:    c.dispatcher,
		Locker:        locker,
		Owner:         c.cfg.Engine.Owner,
		Anchor:        anchor,
		Logger:        c.log,
	})
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	c.core = core

	c.log.Infow("engine initialized",
		"storage", c.cfg.Storage.Backend,
		"owner", c.cfg.Engine.Owner,
		"schedule_anchor", anchor,
		"executor", c.cfg.Payment.Executor,
		"lock", c.cfg.Payment.Lock.Driver,
	)
	return nil
}

// Section 3: middlewares and handlers.
func (c *Container) initHandlers(clock biztime.Clock) {
	jwtCfg := c.cfg.Auth.JWT
	c.jwtSvc = auth.NewJWTService(jwtCfg.Secret, jwtCfg.Issuer, jwtCfg.ExpMinutes, clock)
	c.authMiddleware = middleware.NewAuthMiddleware(c.jwtSvc, c.log)
	c.delegatedKeyMiddleware = middleware.NewDelegatedKeyMiddleware(clock, c.cfg.Auth.Delegated.MaxSkew(), c.log)

	if rl := c.cfg.Server.RateLimit; rl.Enabled {
		if c.redis == nil {
			c.log.Warnw("rate limiting requires redis, disabled")
		} else {
			c.rateLimiter = middleware.NewPrincipalRateLimiter(
				ratelimit.NewRedisRateLimiter(c.redis, clock),
				ratelimit.RateLimitConfig{
					RequestsPerMinute: rl.RequestsPerMinute,
					RequestsPerHour:   rl.RequestsPerHour,
				},
				c.log,
			)
		}
	}

	c.workerHandler = handlers.NewWorkerHandler(c.core, c.log)
	c.merchantHandler = handlers.NewMerchantHandler(c.core, c.log)
	c.subscriptionHandler = handlers.NewSubscriptionHandler(c.core, c.log)
	c.paymentHandler = handlers.NewPaymentHandler(c.core, c.log)
}

// Engine returns the wired engine, used by the CLI.
func (c *Container) Engine() *engine.Engine {
	return c.core
}

// JWTService returns the token service, used by the CLI to issue tokens.
func (c *Container) JWTService() *auth.JWTService {
	return c.jwtSvc
}

// EventBus returns the Redis relay, or nil when Redis is disabled.
func (c *Container) EventBus() *pubsub.RedisEventBus {
	return c.eventBus
}

// Shutdown stops the engine first so no new events are produced, then drains
// the dispatcher and closes storage and Redis.
func (c *Container) Shutdown() {
	if c.core != nil {
		if err := c.core.Close(); err != nil {
			c.log.Warnw("failed to close engine", "error", err)
		}
	}
	if c.dispatcher != nil {
		if err := c.dispatcher.Stop(); err != nil {
			c.log.Warnw("failed to stop event dispatcher", "error", err)
		}
	}
	if c.repos != nil && c.repos.close != nil {
		if err := c.repos.close(); err != nil {
			c.log.Warnw("failed to close storage", "error", err)
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Warnw("failed to close redis client", "error", err)
		}
	}
}
