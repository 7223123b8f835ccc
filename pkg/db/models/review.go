package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Review struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	UserName   string    `gorm:"column:user_name;not null"`
	UserAvatar string    `gorm:"column:user_avatar;not null;default:''"`
	Rating     int       `gorm:"column:rating;not null"`
	Text       string    `gorm:"column:text;not null"`
	Likes      []string  `gorm:"column:likes;type:jsonb;serializer:json"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
