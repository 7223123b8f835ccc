package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/enums"
)

// User is the account document. Its id is also the identity id, and
// vendors carry their shop profile on the same row.
type User struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Email        string              `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string              `gorm:"column:password_hash;not null"`
	Name         string              `gorm:"column:name;not null"`
	Role         enums.Role          `gorm:"column:role;not null;index"`
	Contact      string              `gorm:"column:contact;not null;default:''"`
	HasWhatsApp  bool                `gorm:"column:has_whatsapp;not null;default:false"`
	Avatar       string              `gorm:"column:avatar;not null;default:''"`
	Language     enums.Language      `gorm:"column:language;not null;default:'sw'"`
	Theme        enums.Theme         `gorm:"column:theme;not null;default:'light'"`
	VendorStatus *enums.VendorStatus `gorm:"column:vendor_status;index"`

	ShopName        string         `gorm:"column:shop_name;not null;default:''"`
	Location        string         `gorm:"column:location;not null;default:''"`
	Region          string         `gorm:"column:region;not null;default:''"`
	TIN             string         `gorm:"column:tin;not null;default:''"`
	NIDA            string         `gorm:"column:nida;not null;default:''"`
	License         string         `gorm:"column:license;not null;default:''"`
	OpenDays        pq.StringArray `gorm:"column:open_days;type:text[]"`
	OpenTime        string         `gorm:"column:open_time;not null;default:''"`
	CloseTime       string         `gorm:"column:close_time;not null;default:''"`
	DeliveryCityFee int64          `gorm:"column:delivery_city_fee;not null;default:0"`
	DeliveryOutFee  int64          `gorm:"column:delivery_out_fee;not null;default:0"`

	// LedgerSeq is bumped inside every withdrawal transaction so concurrent
	// requests for the same vendor serialize on the row lock.
	LedgerSeq int64 `gorm:"column:ledger_seq;not null;default:0"`

	LastLoginAt *time.Time `gorm:"column:last_login_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// DisplayShopName falls back to the owner name for vendors without a shop name.
func (u User) DisplayShopName() string {
	if u.ShopName != "" {
		return u.ShopName
	}
	return u.Name
}

// IsApprovedVendor reports whether the account may list visible products.
func (u User) IsApprovedVendor() bool {
	return u.Role == enums.RoleVendor && u.VendorStatus != nil && *u.VendorStatus == enums.VendorStatusApproved
}
