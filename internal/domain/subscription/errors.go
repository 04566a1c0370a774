package subscription

import (
	"errors"
	"fmt"

	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
)

var (
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrNotSubscriptionOwner    = errors.New("caller is not the subscription owner")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrNotPaused               = errors.New("subscription is not paused")
	ErrNotDue                  = errors.New("subscription is not due")
	ErrInvalidTerms            = errors.New("invalid subscription terms")
)

func ErrInvalidTransition(from, to vo.SubscriptionStatus) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
}
