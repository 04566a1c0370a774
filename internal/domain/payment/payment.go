// Package payment describes the outcome of a payment attempt and the
// collaborator that moves value. Results are never persisted.
package payment

import (
	"context"

	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
)

// RejectReason classifies an unsuccessful payment attempt.
type RejectReason string

const (
	ReasonNone            RejectReason = ""
	ReasonUnauthorizedKey RejectReason = "unauthorized_key"
	ReasonNotActive       RejectReason = "not_active"
	ReasonNotDue          RejectReason = "not_due"
	ReasonLimitExceeded   RejectReason = "limit_exceeded"
	ReasonExpired         RejectReason = "expired"
	ReasonDispatchFailed  RejectReason = "dispatch_failed"
)

// Result reports one payment attempt. Rejections are ordinary values so a
// worker iterating a batch can continue past them.
type Result struct {
	Success        bool         `json:"success"`
	SubscriptionID string       `json:"subscription_id"`
	Amount         vo.Amount    `json:"amount"`
	Timestamp      int64        `json:"timestamp"`
	Error          *string      `json:"error"`
	Reason         RejectReason `json:"reason,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(subscriptionID string, amount vo.Amount, now int64) *Result {
	return &Result{
		Success:        true,
		SubscriptionID: subscriptionID,
		Amount:         amount,
		Timestamp:      now,
	}
}

// Rejected builds an unsuccessful result with a human readable message.
func Rejected(subscriptionID string, amount vo.Amount, now int64, reason RejectReason, message string) *Result {
	return &Result{
		Success:        false,
		SubscriptionID: subscriptionID,
		Amount:         amount,
		Timestamp:      now,
		Error:          &message,
		Reason:         reason,
	}
}

// ErrorMessage returns the rejection message or "".
func (r *Result) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// TransferExecutor moves value to a payee. Both calls are fire-and-forget: a
// nil error means the instruction was accepted, not that it settled.
type TransferExecutor interface {
	Transfer(ctx context.Context, payee string, amount vo.Amount) error
	TokenTransfer(ctx context.Context, tokenID, payee string, amount vo.Amount, memo string) error
}
