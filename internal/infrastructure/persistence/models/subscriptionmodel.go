package models

import (
	"gorm.io/datatypes"

	"github.com/orris-inc/autopay/internal/shared/constants"
)

// SubscriptionModel represents the database persistence model for subscriptions.
// The auto-increment ID records insertion order; SID is the public identifier.
type SubscriptionModel struct {
	ID              uint           `gorm:"primarykey" json:"seq"`
	SID             string         `gorm:"column:sid;uniqueIndex;not null;size:191" json:"id"`
	UserID          string         `gorm:"not null;size:128;index:idx_subscription_user" json:"user_id"`
	MerchantID      string         `gorm:"not null;size:128;index:idx_subscription_merchant" json:"merchant_id"`
	Amount          string         `gorm:"not null;size:40;comment:decimal u128 in smallest unit" json:"amount"`
	Frequency       string         `gorm:"not null;size:20" json:"frequency"`
	PaymentMethod   datatypes.JSON `gorm:"not null" json:"payment_method"`
	MaxPayments     *uint32        `json:"max_payments,omitempty"`
	EndDate         *int64         `json:"end_date,omitempty"`
	Status          string         `gorm:"not null;size:20;index:idx_subscription_due,priority:1" json:"status"`
	NextPaymentDate int64          `gorm:"not null;index:idx_subscription_due,priority:2" json:"next_payment_date"`
	PaymentsMade    uint32         `gorm:"not null;default:0" json:"payments_made"`
	CreatedAt       int64          `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt       int64          `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// DelegatedKeyModel binds a delegated public key to one subscription.
type DelegatedKeyModel struct {
	ID              uint   `gorm:"primarykey" json:"-"`
	PublicKey       string `gorm:"uniqueIndex;not null;size:191" json:"public_key"`
	SubscriptionSID string `gorm:"column:subscription_sid;not null;size:191;index" json:"subscription_id"`
	RegisteredBy    string `gorm:"not null;size:128" json:"registered_by"`
	RegisteredAt    int64  `gorm:"not null" json:"registered_at"`
}

func (DelegatedKeyModel) TableName() string {
	return constants.TableDelegatedKeys
}

// SubscriptionCounterModel holds the single row backing subscription id sequences.
type SubscriptionCounterModel struct {
	ID    uint   `gorm:"primarykey"`
	Value uint64 `gorm:"not null;default:0"`
}

func (SubscriptionCounterModel) TableName() string {
	return constants.TableSubscriptionCounter
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&WorkerModel{},
		&ApprovedCodehashModel{},
		&MerchantModel{},
		&SubscriptionModel{},
		&DelegatedKeyModel{},
		&SubscriptionCounterModel{},
	}
}
