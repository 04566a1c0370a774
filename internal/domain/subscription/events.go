package subscription

import (
	"time"

	"github.com/orris-inc/autopay/internal/domain/shared/events"
	"github.com/orris-inc/autopay/internal/shared/id"
)

const (
	EventSubscriptionCreated  = "subscription.created"
	EventSubscriptionPaused   = "subscription.paused"
	EventSubscriptionResumed  = "subscription.resumed"
	EventSubscriptionCanceled = "subscription.canceled"
	EventKeyRegistered        = "subscription.key_registered"
)

// SubscriptionChangedEvent describes a lifecycle change of one subscription.
type SubscriptionChangedEvent struct {
	events.BaseEvent
	UserID          string `json:"user_id"`
	MerchantID      string `json:"merchant_id"`
	Status          string `json:"status"`
	NextPaymentDate int64  `json:"next_payment_date"`
	PaymentsMade    uint32 `json:"payments_made"`
}

func NewSubscriptionChangedEvent(eventType string, sub *Subscription, at time.Time) *SubscriptionChangedEvent {
	return &SubscriptionChangedEvent{
		BaseEvent: events.BaseEvent{
			EventID:     id.NewEventID(),
			AggregateID: sub.ID(),
			EventType:   eventType,
			OccurredAt:  at,
		},
		UserID:          sub.UserID(),
		MerchantID:      sub.MerchantID(),
		Status:          sub.Status().String(),
		NextPaymentDate: sub.NextPaymentDate(),
		PaymentsMade:    sub.PaymentsMade(),
	}
}

// KeyRegisteredEvent is recorded when a payer delegates payment authority to a key.
type KeyRegisteredEvent struct {
	events.BaseEvent
	PublicKey string `json:"public_key"`
	UserID    string `json:"user_id"`
}

func NewKeyRegisteredEvent(key *DelegatedKey, at time.Time) *KeyRegisteredEvent {
	return &KeyRegisteredEvent{
		BaseEvent: events.BaseEvent{
			EventID:     id.NewEventID(),
			AggregateID: key.SubscriptionID(),
			EventType:   EventKeyRegistered,
			OccurredAt:  at,
		},
		PublicKey: key.PublicKey(),
		UserID:    key.RegisteredBy(),
	}
}
