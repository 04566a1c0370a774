package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/autopay/internal/domain/subscription"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

// loadOwnedSubscription fetches a subscription and checks that caller is its payer.
func loadOwnedSubscription(
	ctx context.Context,
	repo subscription.SubscriptionRepository,
	log logger.Interface,
	subscriptionID, caller string,
) (*subscription.Subscription, error) {
	sub, err := repo.GetByID(ctx, subscriptionID)
	if err != nil {
		log.Errorw("failed to get subscription", "error", err, "subscription_id", subscriptionID)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, errors.NewNotFoundError(subscription.ErrSubscriptionNotFound.Error(), subscriptionID)
	}
	if !sub.IsOwnedBy(caller) {
		log.Warnw("caller is not the subscription owner", "subscription_id", subscriptionID, "caller", caller)
		return nil, errors.NewUnauthorizedError(subscription.ErrNotSubscriptionOwner.Error(), subscriptionID)
	}
	return sub, nil
}
