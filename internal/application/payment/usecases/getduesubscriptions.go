package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/autopay/internal/application/subscription/dto"
	"github.com/orris-inc/autopay/internal/domain/subscription"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

const MaxDueLimit = 1000

type GetDueSubscriptionsQuery struct {
	Caller string
	Limit  int
}

type GetDueSubscriptionsUseCase struct {
	gate             ApprovalGate
	subscriptionRepo subscription.SubscriptionRepository
	clock            biztime.Clock
	logger           logger.Interface
}

func NewGetDueSubscriptionsUseCase(
	gate ApprovalGate,
	subscriptionRepo subscription.SubscriptionRepository,
	clock biztime.Clock,
	logger logger.Interface,
) *GetDueSubscriptionsUseCase {
	return &GetDueSubscriptionsUseCase{
		gate:             gate,
		subscriptionRepo: subscriptionRepo,
		clock:            clock,
		logger:           logger,
	}
}

// Execute returns the first limit due subscriptions in storage order.
func (uc *GetDueSubscriptionsUseCase) Execute(ctx context.Context, query GetDueSubscriptionsQuery) ([]*dto.SubscriptionDTO, error) {
	if err := uc.gate.RequireApproved(ctx, query.Caller); err != nil {
		return nil, err
	}

	if query.Limit < 0 || query.Limit > MaxDueLimit {
		return nil, errors.NewValidationError(fmt.Sprintf("limit must be between 0 and %d", MaxDueLimit))
	}
	if query.Limit == 0 {
		return []*dto.SubscriptionDTO{}, nil
	}

	now := biztime.Unix(uc.clock)
	subs, err := uc.subscriptionRepo.ListDue(ctx, now, query.Limit)
	if err != nil {
		uc.logger.Errorw("failed to list due subscriptions", "error", err, "caller", query.Caller)
		return nil, fmt.Errorf("failed to list due subscriptions: %w", err)
	}

	uc.logger.Debugw("due subscriptions listed", "caller", query.Caller, "limit", query.Limit, "count", len(subs))

	return dto.ToSubscriptionDTOList(subs), nil
}
