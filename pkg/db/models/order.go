package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/types"
)

// Order is a single-product purchase. Monetary fields are frozen at checkout.
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	UserName        string               `gorm:"column:user_name;not null"`
	UserContact     string               `gorm:"column:user_contact;not null;default:''"`
	PayPhone        string               `gorm:"column:pay_phone;not null;default:''"`
	Items           []types.OrderItem    `gorm:"column:items;type:jsonb;serializer:json;not null"`
	ProductID       uuid.UUID            `gorm:"column:product_id;type:uuid;not null;index"`
	VendorID        uuid.UUID            `gorm:"column:vendor_id;type:uuid;not null;index"`
	VendorName      string               `gorm:"column:vendor_name;not null"`
	ProductPrice    int64                `gorm:"column:product_price;not null"`
	Qty             int64                `gorm:"column:qty;not null"`
	Subtotal        int64                `gorm:"column:subtotal;not null"`
	DeliveryFee     int64                `gorm:"column:delivery_fee;not null"`
	DeliveryMethod  enums.DeliveryMethod `gorm:"column:delivery_method;not null"`
	AdminCommission int64                `gorm:"column:admin_commission;not null"`
	VendorNet       int64                `gorm:"column:vendor_net;not null"`
	Total           int64                `gorm:"column:total;not null"`
	PayMethod       enums.PaymentMethod  `gorm:"column:pay_method;not null"`
	PaymentProof    string               `gorm:"column:payment_proof;not null;default:''"`
	PaymentApproved bool                 `gorm:"column:payment_approved;not null;default:false"`
	Status          enums.OrderStatus    `gorm:"column:status;not null;index"`
	DeliveredAt     *time.Time           `gorm:"column:delivered_at"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// ItemName returns the first snapshot item name, which is what notifications quote.
func (o Order) ItemName() string {
	if len(o.Items) == 0 {
		return ""
	}
	return o.Items[0].Name
}

// ShortID is the 8 character reference shown to buyers.
func (o Order) ShortID() string {
	id := o.ID.String()
	if len(id) < 8 {
		return id
	}
	return id[:8]
}
