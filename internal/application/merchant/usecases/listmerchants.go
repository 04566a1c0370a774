package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/autopay/internal/domain/merchant"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

type ListMerchantsUseCase struct {
	merchantRepo merchant.Repository
	logger       logger.Interface
}

func NewListMerchantsUseCase(merchantRepo merchant.Repository, logger logger.Interface) *ListMerchantsUseCase {
	return &ListMerchantsUseCase{
		merchantRepo: merchantRepo,
		logger:       logger,
	}
}

func (uc *ListMerchantsUseCase) Execute(ctx context.Context) ([]string, error) {
	merchants, err := uc.merchantRepo.List(ctx)
	if err != nil {
		uc.logger.Errorw("failed to list merchants", "error", err)
		return nil, fmt.Errorf("failed to list merchants: %w", err)
	}
	if merchants == nil {
		merchants = []string{}
	}
	return merchants, nil
}
