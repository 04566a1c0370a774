package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/autopay/internal/application/subscription/dto"
	"github.com/orris-inc/autopay/internal/domain/subscription"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

// ListSubscriptionsQuery selects subscriptions by exactly one party.
type ListSubscriptionsQuery struct {
	UserID     string
	MerchantID string
}

type ListSubscriptionsUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	logger           logger.Interface
}

func NewListSubscriptionsUseCase(subscriptionRepo subscription.SubscriptionRepository, logger logger.Interface) *ListSubscriptionsUseCase {
	return &ListSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

func (uc *ListSubscriptionsUseCase) Execute(ctx context.Context, query ListSubscriptionsQuery) ([]*dto.SubscriptionDTO, error) {
	var (
		subs []*subscription.Subscription
		err  error
	)
	if query.MerchantID != "" {
		subs, err = uc.subscriptionRepo.ListByMerchant(ctx, query.MerchantID)
	} else {
		subs, err = uc.subscriptionRepo.ListByUser(ctx, query.UserID)
	}
	if err != nil {
		uc.logger.Errorw("failed to list subscriptions", "error", err, "user_id", query.UserID, "merchant_id", query.MerchantID)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return dto.ToSubscriptionDTOList(subs), nil
}
