package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/enums"
)

// Product is a vendor listing. Stock only moves through conditional updates.
type Product struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	VendorID        uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null;index"`
	VendorName      string            `gorm:"column:vendor_name;not null"`
	Name            string            `gorm:"column:name;not null"`
	Price           int64             `gorm:"column:price;not null"`
	Stock           int64             `gorm:"column:stock;not null;default:0"`
	Category        string            `gorm:"column:category;not null;default:'';index"`
	Unit            enums.ProductUnit `gorm:"column:unit;not null"`
	Emoji           string            `gorm:"column:emoji;not null;default:''"`
	Image           string            `gorm:"column:image;not null;default:''"`
	Description     string            `gorm:"column:description;not null;default:''"`
	Location        string            `gorm:"column:location;not null;default:''"`
	Region          string            `gorm:"column:region;not null;default:''"`
	Approved        bool              `gorm:"column:approved;not null;default:false;index"`
	DeliveryCityFee int64             `gorm:"column:delivery_city_fee;not null;default:0"`
	DeliveryOutFee  int64             `gorm:"column:delivery_out_fee;not null;default:0"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// DeliveryFee returns the fee the product charges for the given method.
func (p Product) DeliveryFee(method enums.DeliveryMethod) int64 {
	switch method {
	case enums.DeliveryCity:
		return p.DeliveryCityFee
	case enums.DeliveryOut:
		return p.DeliveryOutFee
	default:
		return 0
	}
}
