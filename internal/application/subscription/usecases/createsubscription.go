package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/autopay/internal/domain/merchant"
	"github.com/orris-inc/autopay/internal/domain/shared/events"
	"github.com/orris-inc/autopay/internal/domain/subscription"
	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/id"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

type CreateSubscriptionCommand struct {
	Payer         string
	MerchantID    string
	Amount        vo.Amount
	Frequency     vo.Frequency
	PaymentMethod vo.PaymentMethod
	MaxPayments   *uint32
	EndDate       *int64
}

type CreateSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	merchantRepo     merchant.Repository
	clock            biztime.Clock
	logger           logger.Interface
}

func NewCreateSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	merchantRepo merchant.Repository,
	clock biztime.Clock,
	logger logger.Interface,
) *CreateSubscriptionUseCase {
	return &CreateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		merchantRepo:     merchantRepo,
		clock:            clock,
		logger:           logger,
	}
}

// Execute stores a new active subscription and returns its id.
func (uc *CreateSubscriptionUseCase) Execute(ctx context.Context, cmd CreateSubscriptionCommand) (string, error) {
	registered, err := uc.merchantRepo.Exists(ctx, cmd.MerchantID)
	if err != nil {
		uc.logger.Errorw("failed to check merchant", "error", err, "merchant_id", cmd.MerchantID)
		return "", fmt.Errorf("failed to check merchant: %w", err)
	}
	if !registered {
		uc.logger.Warnw("subscription to unregistered merchant", "payer", cmd.Payer, "merchant_id", cmd.MerchantID)
		return "", errors.NewUnauthorizedError("InvalidMerchant", merchant.ErrMerchantNotRegistered.Error(), cmd.MerchantID)
	}

	seq, err := uc.subscriptionRepo.NextSequence(ctx)
	if err != nil {
		uc.logger.Errorw("failed to allocate subscription sequence", "error", err)
		return "", fmt.Errorf("failed to allocate subscription sequence: %w", err)
	}

	now := uc.clock.Now()
	sub, err := subscription.NewSubscription(subscription.NewSubscriptionParams{
		ID:            id.FormatSubscriptionID(cmd.Payer, now.Unix(), seq),
		UserID:        cmd.Payer,
		MerchantID:    cmd.MerchantID,
		Amount:        cmd.Amount,
		Frequency:     cmd.Frequency,
		PaymentMethod: cmd.PaymentMethod,
		MaxPayments:   cmd.MaxPayments,
		EndDate:       cmd.EndDate,
		Now:           now.Unix(),
	})
	if err != nil {
		return "", errors.NewValidationError("invalid subscription", err.Error())
	}

	if err := uc.subscriptionRepo.Create(ctx, sub); err != nil {
		uc.logger.Errorw("failed to create subscription", "error", err, "subscription_id", sub.ID())
		return "", fmt.Errorf("failed to create subscription: %w", err)
	}

	events.Record(ctx, subscription.NewSubscriptionChangedEvent(subscription.EventSubscriptionCreated, sub, now))

	uc.logger.Infow("subscription created",
		"subscription_id", sub.ID(),
		"payer", sub.UserID(),
		"merchant_id", sub.MerchantID(),
		"amount", sub.Amount().String(),
		"frequency", sub.Frequency(),
		"next_payment_date", sub.NextPaymentDate(),
	)

	return sub.ID(), nil
}
