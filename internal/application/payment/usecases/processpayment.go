package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/orris-inc/autopay/internal/domain/payment"
	"github.com/orris-inc/autopay/internal/domain/shared/events"
	"github.com/orris-inc/autopay/internal/domain/subscription"
	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

const (
	MsgKeyNotAuthorized = "Key is not authorized for this subscription"
	MsgNotDue           = "Payment is not due yet"
	MsgLimitReached     = "Maximum number of payments reached"
	MsgEndDateReached   = "Subscription end date reached"
)

type ProcessPaymentCommand struct {
	Caller         string
	PublicKey      string
	SubscriptionID string
}

type ProcessPaymentUseCase struct {
	gate             ApprovalGate
	subscriptionRepo subscription.SubscriptionRepository
	keyRepo          subscription.KeyRepository
	executor         payment.TransferExecutor
	anchor           vo.ScheduleAnchor
	clock            biztime.Clock
	logger           logger.Interface
}

func NewProcessPaymentUseCase(
	gate ApprovalGate,
	subscriptionRepo subscription.SubscriptionRepository,
	keyRepo subscription.KeyRepository,
	executor payment.TransferExecutor,
	anchor vo.ScheduleAnchor,
	clock biztime.Clock,
	logger logger.Interface,
) *ProcessPaymentUseCase {
	return &ProcessPaymentUseCase{
		gate:             gate,
		subscriptionRepo: subscriptionRepo,
		keyRepo:          keyRepo,
		executor:         executor,
		anchor:           anchor,
		clock:            clock,
		logger:           logger,
	}
}

// Execute charges one subscription on behalf of its payer. Routine
// rejections come back as an unsuccessful Result; only an unapproved caller,
// a missing subscription or a storage failure is returned as an error.
func (uc *ProcessPaymentUseCase) Execute(ctx context.Context, cmd ProcessPaymentCommand) (*payment.Result, error) {
	if err := uc.gate.RequireApproved(ctx, cmd.Caller); err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	ts := now.Unix()

	key, err := uc.keyRepo.Resolve(ctx, cmd.PublicKey)
	if err != nil {
		uc.logger.Errorw("failed to resolve delegated key", "error", err, "subscription_id", cmd.SubscriptionID)
		return nil, fmt.Errorf("failed to resolve delegated key: %w", err)
	}
	if !key.Authorizes(cmd.SubscriptionID) {
		result := payment.Rejected(cmd.SubscriptionID, vo.Amount{}, ts, payment.ReasonUnauthorizedKey, MsgKeyNotAuthorized)
		uc.finish(ctx, cmd.Caller, result, nil, now)
		return result, nil
	}

	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "error", err, "subscription_id", cmd.SubscriptionID)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		uc.logger.Errorw("delegated key points at a missing subscription", "subscription_id", cmd.SubscriptionID)
		return nil, errors.NewNotFoundError(subscription.ErrSubscriptionNotFound.Error(), cmd.SubscriptionID)
	}

	if !sub.IsActive() {
		msg := fmt.Sprintf("Subscription is not active: %s", sub.Status().Display())
		result := payment.Rejected(sub.ID(), sub.Amount(), ts, payment.ReasonNotActive, msg)
		uc.finish(ctx, cmd.Caller, result, sub, now)
		return result, nil
	}

	if !sub.IsDue(ts) {
		result := payment.Rejected(sub.ID(), sub.Amount(), ts, payment.ReasonNotDue, MsgNotDue)
		uc.finish(ctx, cmd.Caller, result, sub, now)
		return result, nil
	}

	if sub.LimitReached() {
		return uc.exhaust(ctx, cmd.Caller, sub, payment.ReasonLimitExceeded, MsgLimitReached, now)
	}

	if sub.EndDateReached(ts) {
		return uc.exhaust(ctx, cmd.Caller, sub, payment.ReasonExpired, MsgEndDateReached, now)
	}

	if err := uc.dispatch(ctx, sub); err != nil {
		uc.logger.Warnw("transfer dispatch failed",
			"subscription_id", sub.ID(),
			"merchant_id", sub.MerchantID(),
			"error", err,
		)
		msg := fmt.Sprintf("Transfer dispatch failed: %v", err)
		result := payment.Rejected(sub.ID(), sub.Amount(), ts, payment.ReasonDispatchFailed, msg)
		uc.finish(ctx, cmd.Caller, result, sub, now)
		return result, nil
	}

	if err := sub.RecordPayment(ts, uc.anchor); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to update subscription after transfer", "error", err, "subscription_id", sub.ID())
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	result := payment.Succeeded(sub.ID(), sub.Amount(), ts)
	uc.finish(ctx, cmd.Caller, result, sub, now)

	uc.logger.Infow("payment processed",
		"subscription_id", sub.ID(),
		"worker", cmd.Caller,
		"amount", sub.Amount().String(),
		"payments_made", sub.PaymentsMade(),
		"next_payment_date", sub.NextPaymentDate(),
		"status", sub.Status(),
	)

	return result, nil
}

func (uc *ProcessPaymentUseCase) dispatch(ctx context.Context, sub *subscription.Subscription) error {
	method := sub.PaymentMethod()
	if method.IsToken() {
		memo := fmt.Sprintf("Subscription payment: %s", sub.ID())
		return uc.executor.TokenTransfer(ctx, method.TokenID(), sub.MerchantID(), sub.Amount(), memo)
	}
	return uc.executor.Transfer(ctx, sub.MerchantID(), sub.Amount())
}

func (uc *ProcessPaymentUseCase) exhaust(
	ctx context.Context,
	caller string,
	sub *subscription.Subscription,
	reason payment.RejectReason,
	msg string,
	now time.Time,
) (*payment.Result, error) {
	sub.Exhaust(now.Unix())
	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to cancel exhausted subscription", "error", err, "subscription_id", sub.ID())
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	events.Record(ctx, subscription.NewSubscriptionChangedEvent(subscription.EventSubscriptionCanceled, sub, now))
	uc.logger.Infow("subscription canceled during payment", "subscription_id", sub.ID(), "reason", reason)

	result := payment.Rejected(sub.ID(), sub.Amount(), now.Unix(), reason, msg)
	uc.finish(ctx, caller, result, sub, now)
	return result, nil
}

func (uc *ProcessPaymentUseCase) finish(ctx context.Context, caller string, result *payment.Result, sub *subscription.Subscription, now time.Time) {
	var parties payment.PaymentParties
	if sub != nil {
		parties = payment.PaymentParties{
			UserID:       sub.UserID(),
			MerchantID:   sub.MerchantID(),
			Method:       string(sub.PaymentMethod().Kind()),
			PaymentsMade: sub.PaymentsMade(),
		}
	}
	if !result.Success {
		uc.logger.Infow("payment rejected",
			"subscription_id", result.SubscriptionID,
			"worker", caller,
			"reason", result.Reason,
		)
	}
	events.Record(ctx, payment.NewPaymentEvent(caller, result, parties, now))
}
