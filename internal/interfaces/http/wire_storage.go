package http

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/orris-inc/autopay/internal/application/engine"
	"github.com/orris-inc/autopay/internal/domain/merchant"
	"github.com/orris-inc/autopay/internal/domain/payment"
	"github.com/orris-inc/autopay/internal/domain/permission"
	"github.com/orris-inc/autopay/internal/domain/subscription"
	"github.com/orris-inc/autopay/internal/domain/worker"
	"github.com/orris-inc/autopay/internal/infrastructure/cache"
	"github.com/orris-inc/autopay/internal/infrastructure/config"
	"github.com/orris-inc/autopay/internal/infrastructure/kvstore"
	infraPayment "github.com/orris-inc/autopay/internal/infrastructure/payment"
	permissionInfra "github.com/orris-inc/autopay/internal/infrastructure/permission"
	"github.com/orris-inc/autopay/internal/infrastructure/repository"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/db"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

// repositories is one storage backend's view of the engine state.
type repositories struct {
	workers       worker.Repository
	codehashes    worker.CodehashRepository
	merchants     merchant.Repository
	subscriptions subscription.SubscriptionRepository
	keys          subscription.KeyRepository
	runner        db.TransactionRunner
	enforcer      permission.PermissionEnforcer
	close         func() error
}

// newRepositories opens the backend named by storage.backend. The GORM
// backend needs an already migrated connection.
func newRepositories(cfg *config.Config, gdb *gorm.DB, clock biztime.Clock, log logger.Interface) (*repositories, error) {
	switch cfg.Storage.Backend {
	case "bolt":
		store, err := kvstore.Open(cfg.Storage.BoltPath, log)
		if err != nil {
			return nil, err
		}
		enforcer, err := permissionInfra.NewMemoryEnforcer(log)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		return &repositories{
			workers:       kvstore.NewWorkerRepository(store),
			codehashes:    kvstore.NewCodehashRepository(store, clock),
			merchants:     kvstore.NewMerchantRepository(store),
			subscriptions: kvstore.NewSubscriptionRepository(store),
			keys:          kvstore.NewKeyRepository(store),
			runner:        store,
			enforcer:      enforcer,
			close:         store.Close,
		}, nil

	case "gorm", "":
		if gdb == nil {
			return nil, fmt.Errorf("gorm storage backend requires a database connection")
		}
		enforcer, err := permissionInfra.NewEnforcer(gdb, log)
		if err != nil {
			return nil, err
		}
		return &repositories{
			workers:       repository.NewWorkerRepository(gdb, log),
			codehashes:    repository.NewCodehashRepository(gdb, clock, log),
			merchants:     repository.NewMerchantRepository(gdb, log),
			subscriptions: repository.NewSubscriptionRepository(gdb, log),
			keys:          repository.NewDelegatedKeyRepository(gdb, log),
			runner:        db.NewTransactionManager(gdb),
			enforcer:      enforcer,
			close:         func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// initRedis creates and tests the Redis client connection.
func initRedis(cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.GetAddr(), err)
	}
	log.Infow("redis connection established", "addr", cfg.Redis.GetAddr())

	return redisClient, nil
}

func newPaymentLocker(cfg *config.Config, client *redis.Client, log logger.Interface) (engine.Locker, error) {
	switch cfg.Payment.Lock.Driver {
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("payment.lock.driver=redis requires redis.enabled")
		}
		return cache.NewRedisPaymentLocker(client, cfg.Payment.Lock.TTL(), log), nil
	case "local", "":
		return cache.NewLocalPaymentLocker(), nil
	default:
		return nil, fmt.Errorf("unsupported payment lock driver: %s", cfg.Payment.Lock.Driver)
	}
}

func newTransferExecutor(cfg *config.Config, client *redis.Client, clock biztime.Clock, log logger.Interface) (payment.TransferExecutor, error) {
	switch cfg.Payment.Executor {
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("payment.executor=redis requires redis.enabled")
		}
		return infraPayment.NewStreamTransferExecutor(client, cfg.Payment.Stream, clock, log), nil
	case "log", "":
		return infraPayment.NewLogTransferExecutor(log), nil
	default:
		return nil, fmt.Errorf("unsupported payment executor: %s", cfg.Payment.Executor)
	}
}
