package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orris-inc/autopay/internal/domain/worker"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/autopay/internal/infrastructure/persistence/models"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/db"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

type WorkerRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.WorkerMapper
	logger logger.Interface
}

func NewWorkerRepository(db *gorm.DB, logger logger.Interface) worker.Repository {
	return &WorkerRepositoryImpl{
		db:     db,
		mapper: mappers.NewWorkerMapper(),
		logger: logger,
	}
}

func (r *WorkerRepositoryImpl) Upsert(ctx context.Context, w *worker.Worker) error {
	model := r.mapper.ToModel(w)

	err := db.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "principal"}},
		DoUpdates: clause.AssignmentColumns([]string{"checksum", "codehash", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to upsert worker", "principal", w.Principal(), "error", err)
		return fmt.Errorf("failed to upsert worker: %w", err)
	}
	return nil
}

func (r *WorkerRepositoryImpl) GetByPrincipal(ctx context.Context, principal string) (*worker.Worker, error) {
	var model models.WorkerModel

	result := db.GetTxFromContext(ctx, r.db).Where("principal = ?", principal).Limit(1).Find(&model)
	if result.Error != nil {
		r.logger.Errorw("failed to get worker by principal", "principal", principal, "error", result.Error)
		return nil, fmt.Errorf("failed to get worker: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	return r.mapper.ToEntity(&model), nil
}

type CodehashRepositoryImpl struct {
	db     *gorm.DB
	clock  biztime.Clock
	logger logger.Interface
}

func NewCodehashRepository(db *gorm.DB, clock biztime.Clock, logger logger.Interface) worker.CodehashRepository {
	return &CodehashRepositoryImpl{
		db:     db,
		clock:  clock,
		logger: logger,
	}
}

func (r *CodehashRepositoryImpl) Approve(ctx context.Context, codehash string) error {
	model := &models.ApprovedCodehashModel{Codehash: codehash, ApprovedAt: biztime.Unix(r.clock)}

	err := db.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to approve codehash", "codehash", codehash, "error", err)
		return fmt.Errorf("failed to approve codehash: %w", err)
	}
	return nil
}

func (r *CodehashRepositoryImpl) IsApproved(ctx context.Context, codehash string) (bool, error) {
	var count int64

	err := db.GetTxFromContext(ctx, r.db).Model(&models.ApprovedCodehashModel{}).
		Where("codehash = ?", codehash).
		Count(&count).Error
	if err != nil {
		r.logger.Errorw("failed to check codehash", "codehash", codehash, "error", err)
		return false, fmt.Errorf("failed to check codehash: %w", err)
	}
	return count > 0, nil
}

func (r *CodehashRepositoryImpl) List(ctx context.Context) ([]string, error) {
	var codehashes []string

	err := db.GetTxFromContext(ctx, r.db).Model(&models.ApprovedCodehashModel{}).
		Order("id ASC").
		Pluck("codehash", &codehashes).Error
	if err != nil {
		r.logger.Errorw("failed to list codehashes", "error", err)
		return nil, fmt.Errorf("failed to list codehashes: %w", err)
	}
	return codehashes, nil
}
