package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/types"
)

// StatusPost is a short-lived vendor update shown in the statuses rail.
type StatusPost struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	VendorID     uuid.UUID             `gorm:"column:vendor_id;type:uuid;not null;index"`
	VendorName   string                `gorm:"column:vendor_name;not null"`
	VendorAvatar string                `gorm:"column:vendor_avatar;not null;default:''"`
	Text         string                `gorm:"column:text;not null;default:''"`
	VideoURL     string                `gorm:"column:video_url;not null;default:''"`
	Likes        []string              `gorm:"column:likes;type:jsonb;serializer:json"`
	Comments     []types.StatusComment `gorm:"column:comments;type:jsonb;serializer:json"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime;index"`
}

func (StatusPost) TableName() string {
	return "statuses"
}

func (s *StatusPost) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
