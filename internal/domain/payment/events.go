package payment

import (
	"time"

	"github.com/orris-inc/autopay/internal/domain/shared/events"
	"github.com/orris-inc/autopay/internal/shared/id"
)

const (
	EventPaymentProcessed = "payment.processed"
	EventPaymentRejected  = "payment.rejected"
)

// PaymentEvent carries a payment result together with the parties involved.
type PaymentEvent struct {
	events.BaseEvent
	Worker       string       `json:"worker"`
	UserID       string       `json:"user_id,omitempty"`
	MerchantID   string       `json:"merchant_id,omitempty"`
	Amount       string       `json:"amount"`
	Method       string       `json:"payment_method,omitempty"`
	PaymentsMade uint32       `json:"payments_made"`
	Reason       RejectReason `json:"reason,omitempty"`
	Message      string       `json:"message,omitempty"`
}

// PaymentParties names who paid whom; it is empty when the subscription could not be read.
type PaymentParties struct {
	UserID       string
	MerchantID   string
	Method       string
	PaymentsMade uint32
}

func NewPaymentEvent(worker string, result *Result, parties PaymentParties, at time.Time) *PaymentEvent {
	eventType := EventPaymentProcessed
	if !result.Success {
		eventType = EventPaymentRejected
	}
	return &PaymentEvent{
		BaseEvent: events.BaseEvent{
			EventID:     id.NewEventID(),
			AggregateID: result.SubscriptionID,
			EventType:   eventType,
			OccurredAt:  at,
		},
		Worker:       worker,
		UserID:       parties.UserID,
		MerchantID:   parties.MerchantID,
		Amount:       result.Amount.String(),
		Method:       parties.Method,
		PaymentsMade: parties.PaymentsMade,
		Reason:       result.Reason,
		Message:      result.ErrorMessage(),
	}
}
