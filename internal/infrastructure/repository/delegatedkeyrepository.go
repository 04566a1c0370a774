package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/autopay/internal/domain/subscription"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/models"
	"github.com/orris-inc/autopay/internal/shared/db"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

type DelegatedKeyRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.DelegatedKeyMapper
	logger logger.Interface
}

func NewDelegatedKeyRepository(db *gorm.DB, logger logger.Interface) subscription.KeyRepository {
	return &DelegatedKeyRepositoryImpl{
		db:     db,
		mapper: mappers.NewDelegatedKeyMapper(),
		logger: logger,
	}
}

func (r *DelegatedKeyRepositoryImpl) Upsert(ctx context.Context, key *subscription.DelegatedKey) error {
	model := r.mapper.ToModel(key)

	err := db.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "public_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"subscription_sid", "registered_by", "registered_at"}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to upsert delegated key", "subscription_id", key.SubscriptionID(), "error", err)
		return fmt.Errorf("failed to upsert delegated key: %w", err)
	}
	return nil
}

func (r *DelegatedKeyRepositoryImpl) Resolve(ctx context.Context, publicKey string) (*subscription.DelegatedKey, error) {
	var model models.DelegatedKeyModel

	result := db.GetTxFromContext(ctx, r.db).Where("public_key = ?", publicKey).Limit(1).Find(&model)
	if result.Error != nil {
		r.logger.Errorw("failed to resolve delegated key", "error", result.Error)
		return nil, fmt.Errorf("failed to resolve delegated key: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return r.mapper.ToEntity(&model), nil
}
