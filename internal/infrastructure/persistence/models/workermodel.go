package models

import "github.com/orris-inc/autopay/internal/shared/constants"

// WorkerModel is the persisted registration of an attested worker.
type WorkerModel struct {
	ID           uint   `gorm:"primarykey" json:"-"`
	Principal    string `gorm:"uniqueIndex;not null;size:128" json:"principal"`
	Checksum     string `gorm:"not null;size:128" json:"checksum"`
	Codehash     string `gorm:"not null;size:128;index:idx_worker_codehash" json:"codehash"`
	RegisteredAt int64  `gorm:"not null" json:"registered_at"`
	UpdatedAt    int64  `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (WorkerModel) TableName() string {
	return constants.TableWorkers
}

// ApprovedCodehashModel is one entry of the owner-managed codehash allow-list.
type ApprovedCodehashModel struct {
	ID         uint   `gorm:"primarykey" json:"-"`
	Codehash   string `gorm:"uniqueIndex;not null;size:128" json:"codehash"`
	ApprovedAt int64  `gorm:"not null" json:"approved_at"`
}

func (ApprovedCodehashModel) TableName() string {
	return constants.TableApprovedCodehashes
}

// MerchantModel is one entry of the merchant allow-list. ID order is
// registration order.
type MerchantModel struct {
	ID           uint   `gorm:"primarykey" json:"-"`
	Principal    string `gorm:"uniqueIndex;not null;size:128" json:"principal"`
	RegisteredAt int64  `gorm:"not null" json:"registered_at"`
}

func (MerchantModel) TableName() string {
	return constants.TableMerchants
}
