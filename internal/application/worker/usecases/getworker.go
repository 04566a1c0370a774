package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/autopay/internal/application/worker/dto"
	"github.com/orris-inc/autopay/internal/domain/worker"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

type GetWorkerQuery struct {
	Principal string
}

type GetWorkerUseCase struct {
	workerRepo worker.Repository
	logger     logger.Interface
}

func NewGetWorkerUseCase(workerRepo worker.Repository, logger logger.Interface) *GetWorkerUseCase {
	return &GetWorkerUseCase{
		workerRepo: workerRepo,
		logger:     logger,
	}
}

func (uc *GetWorkerUseCase) Execute(ctx context.Context, query GetWorkerQuery) (*dto.WorkerDTO, error) {
	w, err := uc.workerRepo.GetByPrincipal(ctx, query.Principal)
	if err != nil {
		uc.logger.Errorw("failed to get worker", "error", err, "principal", query.Principal)
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	if w == nil {
		return nil, errors.NewNotFoundError(worker.ErrWorkerNotFoundFor(query.Principal).Error())
	}

	return dto.ToWorkerDTO(w), nil
}
