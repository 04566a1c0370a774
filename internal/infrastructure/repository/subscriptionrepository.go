package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/autopay/internal/domain/subscription"
	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/models"
	"github.com/orris-inc/autopay/internal/shared/db"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

const counterRowID = 1

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
	logger logger.Interface
}

func NewSubscriptionRepository(db *gorm.DB, logger logger.Interface) subscription.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
		logger: logger,
	}
}

// NextSequence increments the counter row. It must run inside the caller's
// transaction for the value to be exclusive.
func (r *SubscriptionRepositoryImpl) NextSequence(ctx context.Context) (uint64, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.SubscriptionCounterModel{ID: counterRowID}).Error; err != nil {
		return 0, fmt.Errorf("failed to init subscription counter: %w", err)
	}

	if err := tx.Model(&models.SubscriptionCounterModel{}).
		Where("id = ?", counterRowID).
		UpdateColumn("value", gorm.Expr("value + ?", 1)).Error; err != nil {
		r.logger.Errorw("failed to increment subscription counter", "error", err)
		return 0, fmt.Errorf("failed to increment subscription counter: %w", err)
	}

	var counter models.SubscriptionCounterModel
	if err := tx.First(&counter, counterRowID).Error; err != nil {
		return 0, fmt.Errorf("failed to read subscription counter: %w", err)
	}
	return counter.Value, nil
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, sub *subscription.Subscription) error {
	model, err := r.mapper.ToModel(sub)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create subscription in database", "subscription_id", sub.ID(), "error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, sub *subscription.Subscription) error {
	model, err := r.mapper.ToModel(sub)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	result := db.GetTxFromContext(ctx, r.db).Model(&models.SubscriptionModel{}).
		Where("sid = ?", model.SID).
		Updates(map[string]interface{}{
			"status":            model.Status,
			"next_payment_date": model.NextPaymentDate,
			"payments_made":     model.PaymentsMade,
			"updated_at":        model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update subscription", "subscription_id", sub.ID(), "error", result.Error)
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return subscription.ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	result := db.GetTxFromContext(ctx, r.db).Where("sid = ?", id).Limit(1).Find(&model)
	if result.Error != nil {
		r.logger.Errorw("failed to get subscription by ID", "subscription_id", id, "error", result.Error)
		return nil, fmt.Errorf("failed to get subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map subscription model to entity", "subscription_id", id, "error", err)
		return nil, fmt.Errorf("failed to map subscription: %w", err)
	}
	return entity, nil
}

func (r *SubscriptionRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]*subscription.Subscription, error) {
	return r.find(ctx, db.GetTxFromContext(ctx, r.db).Where("user_id = ?", userID))
}

func (r *SubscriptionRepositoryImpl) ListByMerchant(ctx context.Context, merchantID string) ([]*subscription.Subscription, error) {
	return r.find(ctx, db.GetTxFromContext(ctx, r.db).Where("merchant_id = ?", merchantID))
}

func (r *SubscriptionRepositoryImpl) ListDue(ctx context.Context, now int64, limit int) ([]*subscription.Subscription, error) {
	query := db.GetTxFromContext(ctx, r.db).
		Where("status = ? AND next_payment_date <= ?", vo.StatusActive.String(), now).
		Limit(limit)
	return r.find(ctx, query)
}

func (r *SubscriptionRepositoryImpl) find(ctx context.Context, query *gorm.DB) ([]*subscription.Subscription, error) {
	var rows []*models.SubscriptionModel

	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list subscriptions", "error", err)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	entities, err := r.mapper.ToEntities(rows)
	if err != nil {
		r.logger.Errorw("failed to map subscription models to entities", "error", err)
		return nil, fmt.Errorf("failed to map subscriptions: %w", err)
	}
	return entities, nil
}
