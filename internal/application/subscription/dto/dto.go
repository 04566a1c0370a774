package dto

import (
	"github.com/orris-inc/autopay/internal/domain/subscription"
	vo "github.com/orris-inc/autopay/internal/domain/subscription/valueobjects"
	"github.com/orris-inc/autopay/internal/shared/biztime"
)

type SubscriptionDTO struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	MerchantID      string           `json:"merchant_id"`
	Amount          vo.Amount        `json:"amount"`
	Frequency       string           `json:"frequency"`
	PaymentMethod   vo.PaymentMethod `json:"payment_method"`
	MaxPayments     *uint32          `json:"max_payments"`
	EndDate         *int64           `json:"end_date"`
	Status          string           `json:"status"`
	NextPaymentDate int64            `json:"next_payment_date"`
	NextPaymentAt   string           `json:"next_payment_at"`
	PaymentsMade    uint32           `json:"payments_made"`
	CreatedAt       int64            `json:"created_at"`
	UpdatedAt       int64            `json:"updated_at"`
}

func ToSubscriptionDTO(sub *subscription.Subscription) *SubscriptionDTO {
	if sub == nil {
		return nil
	}

	return &SubscriptionDTO{
		ID:              sub.ID(),
		UserID:          sub.UserID(),
		MerchantID:      sub.MerchantID(),
		Amount:          sub.Amount(),
		Frequency:       sub.Frequency().String(),
		PaymentMethod:   sub.PaymentMethod(),
		MaxPayments:     sub.MaxPayments(),
		EndDate:         sub.EndDate(),
		Status:          sub.Status().String(),
		NextPaymentDate: sub.NextPaymentDate(),
		NextPaymentAt:   biztime.FormatUnix(sub.NextPaymentDate()),
		PaymentsMade:    sub.PaymentsMade(),
		CreatedAt:       sub.CreatedAt(),
		UpdatedAt:       sub.UpdatedAt(),
	}
}

// ToSubscriptionDTOList returns an empty slice for no input so JSON renders [].
func ToSubscriptionDTOList(subs []*subscription.Subscription) []*SubscriptionDTO {
	dtos := make([]*SubscriptionDTO, 0, len(subs))
	for _, sub := range subs {
		if sub != nil {
			dtos = append(dtos, ToSubscriptionDTO(sub))
		}
	}
	return dtos
}
