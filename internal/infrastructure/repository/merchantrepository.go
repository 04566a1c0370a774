package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/autopay/internal/domain/merchant"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/models"
	"github.com/orris-inc/autopay/internal/shared/db"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

type MerchantRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewMerchantRepository(db *gorm.DB, logger logger.Interface) merchant.Repository {
	return &MerchantRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *MerchantRepositoryImpl) Add(ctx context.Context, principal string, now int64) error {
	model := &models.MerchantModel{Principal: principal, RegisteredAt: now}

	err := db.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to add merchant", "principal", principal, "error", err)
		return fmt.Errorf("failed to add merchant: %w", err)
	}
	return nil
}

func (r *MerchantRepositoryImpl) Exists(ctx context.Context, principal string) (bool, error) {
	var count int64

	err := db.GetTxFromContext(ctx, r.db).Model(&models.MerchantModel{}).
		Where("principal = ?", principal).
		Count(&count).Error
	if err != nil {
		r.logger.Errorw("failed to check merchant", "principal", principal, "error", err)
		return false, fmt.Errorf("failed to check merchant: %w", err)
	}
	return count > 0, nil
}

func (r *MerchantRepositoryImpl) List(ctx context.Context) ([]string, error) {
	var principals []string

	err := db.GetTxFromContext(ctx, r.db).Model(&models.MerchantModel{}).
		Order("id ASC").
		Pluck("principal", &principals).Error
	if err != nil {
		r.logger.Errorw("failed to list merchants", "error", err)
		return nil, fmt.Errorf("failed to list merchants: %w", err)
	}
	return principals, nil
}
