package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/enums"
)

// Withdrawal is a vendor payout request. Pending and paid rows reduce the
// vendor's available balance; rejected rows release it.
type Withdrawal struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	VendorID      uuid.UUID              `gorm:"column:vendor_id;type:uuid;not null;index"`
	VendorName    string                 `gorm:"column:vendor_name;not null"`
	Amount        int64                  `gorm:"column:amount;not null"`
	Method        enums.PayoutMethod     `gorm:"column:method;not null"`
	Network       string                 `gorm:"column:network;not null;default:''"`
	PhoneNumber   string                 `gorm:"column:phone_number;not null;default:''"`
	BankName      string                 `gorm:"column:bank_name;not null;default:''"`
	AccountNumber string                 `gorm:"column:account_number;not null;default:''"`
	AccountName   string                 `gorm:"column:account_name;not null;default:''"`
	Status        enums.WithdrawalStatus `gorm:"column:status;not null;index"`
	SettledAt     *time.Time             `gorm:"column:settled_at"`
	SettledBy     *uuid.UUID             `gorm:"column:settled_by;type:uuid"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *Withdrawal) BeforeCreate(*gorm.DB) error {
	ensureID(&w.ID)
	return nil
}
