package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/orris-inc/autopay/internal/infrastructure/persistence/models"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/repotest"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/db"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(models.All()...))
	return gdb
}

func TestGormRepositories(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repotest.Repos {
		gdb := setupTestDB(t)
		log := logger.NewNop()
		return repotest.Repos{
			Workers:       NewWorkerRepository(gdb, log),
			Codehashes:    NewCodehashRepository(gdb, biztime.NewManualClock(1_700_000_000), log),
			Merchants:     NewMerchantRepository(gdb, log),
			Subscriptions: NewSubscriptionRepository(gdb, log),
			Keys:          NewDelegatedKeyRepository(gdb, log),
			Runner:        db.NewTransactionManager(gdb),
		}
	})
}

type capturedSQLLog struct {
	lines []string
}

func (c *capturedSQLLog) Printf(format string, args ...interface{}) {
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}

func TestGormRepositories_MissingRowsAreQuiet(t *testing.T) {
	gdb := setupTestDB(t)
	captured := &capturedSQLLog{}
	gdb = gdb.Session(&gorm.Session{Logger: gormLogger.New(captured, gormLogger.Config{LogLevel: gormLogger.Warn})})
	log := logger.NewNop()
	ctx := context.Background()

	w, err := NewWorkerRepository(gdb, log).GetByPrincipal(ctx, "nobody.near")
	require.NoError(t, err)
	assert.Nil(t, w)

	key, err := NewDelegatedKeyRepository(gdb, log).Resolve(ctx, "ed25519:missing")
	require.NoError(t, err)
	assert.Nil(t, key)

	sub, err := NewSubscriptionRepository(gdb, log).GetByID(ctx, "sub-nobody-1-1")
	require.NoError(t, err)
	assert.Nil(t, sub)

	assert.Empty(t, captured.lines)
}
