package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/autopay/internal/domain/shared/events"
	"github.com/orris-inc/autopay/internal/domain/subscription"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

type RegisterSubscriptionKeyCommand struct {
	Payer          string
	PublicKey      string
	SubscriptionID string
}

type RegisterSubscriptionKeyUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	keyRepo          subscription.KeyRepository
	clock            biztime.Clock
	logger           logger.Interface
}

func NewRegisterSubscriptionKeyUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	keyRepo subscription.KeyRepository,
	clock biztime.Clock,
	logger logger.Interface,
) *RegisterSubscriptionKeyUseCase {
	return &RegisterSubscriptionKeyUseCase{
		subscriptionRepo: subscriptionRepo,
		keyRepo:          keyRepo,
		clock:            clock,
		logger:           logger,
	}
}

// Execute binds a delegated key to one of the payer's subscriptions. An
// existing binding for the same key is replaced.
func (uc *RegisterSubscriptionKeyUseCase) Execute(ctx context.Context, cmd RegisterSubscriptionKeyCommand) error {
	sub, err := loadOwnedSubscription(ctx, uc.subscriptionRepo, uc.logger, cmd.SubscriptionID, cmd.Payer)
	if err != nil {
		return err
	}

	now := uc.clock.Now()
	key, err := subscription.NewDelegatedKey(cmd.PublicKey, sub.ID(), cmd.Payer, now.Unix())
	if err != nil {
		return errors.NewValidationError("invalid delegated key", err.Error())
	}

	if err := uc.keyRepo.Upsert(ctx, key); err != nil {
		uc.logger.Errorw("failed to register subscription key", "error", err, "subscription_id", sub.ID())
		return fmt.Errorf("failed to register subscription key: %w", err)
	}

	events.Record(ctx, subscription.NewKeyRegisteredEvent(key, now))
	uc.logger.Infow("subscription key registered", "subscription_id", sub.ID(), "public_key", key.PublicKey())

	return nil
}
