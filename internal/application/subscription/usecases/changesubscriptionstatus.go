package usecases

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/orris-inc/autopay/internal/domain/shared/events"
	"github.com/orris-inc/autopay/internal/domain/subscription"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	"github.com/orris-inc/autopay/internal/shared/errors"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

// StatusAction is a payer-initiated lifecycle change.
type StatusAction string

const (
	ActionCancel StatusAction = "cancel"
	ActionPause  StatusAction = "pause"
	ActionResume StatusAction = "resume"
)

type ChangeSubscriptionStatusCommand struct {
	SubscriptionID string
	Caller         string
	Action         StatusAction
}

// ChangeSubscriptionStatusUseCase handles cancel, pause and resume. Each
// requires the caller to be the payer.
type ChangeSubscriptionStatusUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	clock            biztime.Clock
	logger           logger.Interface
}

func NewChangeSubscriptionStatusUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	clock biztime.Clock,
	logger logger.Interface,
) *ChangeSubscriptionStatusUseCase {
	return &ChangeSubscriptionStatusUseCase{
		subscriptionRepo: subscriptionRepo,
		clock:            clock,
		logger:           logger,
	}
}

func (uc *ChangeSubscriptionStatusUseCase) Execute(ctx context.Context, cmd ChangeSubscriptionStatusCommand) error {
	sub, err := loadOwnedSubscription(ctx, uc.subscriptionRepo, uc.logger, cmd.SubscriptionID, cmd.Caller)
	if err != nil {
		return err
	}

	now := uc.clock.Now()
	previous := sub.Status()

	var (
		transitionErr error
		eventType     string
	)
	switch cmd.Action {
	case ActionCancel:
		transitionErr = sub.Cancel(now.Unix())
		eventType = subscription.EventSubscriptionCanceled
	case ActionPause:
		transitionErr = sub.Pause(now.Unix())
		eventType = subscription.EventSubscriptionPaused
	case ActionResume:
		transitionErr = sub.Resume(now.Unix())
		eventType = subscription.EventSubscriptionResumed
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown action: %s", cmd.Action))
	}

	if transitionErr != nil {
		uc.logger.Warnw("subscription status change rejected",
			"subscription_id", sub.ID(),
			"action", cmd.Action,
			"status", previous,
			"error", transitionErr,
		)
		if stderrors.Is(transitionErr, subscription.ErrNotPaused) ||
			stderrors.Is(transitionErr, subscription.ErrInvalidStatusTransition) {
			return errors.NewInvalidStateError(transitionErr.Error(), sub.ID())
		}
		return fmt.Errorf("failed to %s subscription: %w", cmd.Action, transitionErr)
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to update subscription", "error", err, "subscription_id", sub.ID())
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	events.Record(ctx, subscription.NewSubscriptionChangedEvent(eventType, sub, now))

	uc.logger.Infow("subscription status changed",
		"subscription_id", sub.ID(),
		"action", cmd.Action,
		"from", previous,
		"to", sub.Status(),
	)

	return nil
}
