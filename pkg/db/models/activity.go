package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity is an append-only admin feed entry.
type Activity struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Icon      string     `gorm:"column:icon;not null"`
	Text      string     `gorm:"column:text;not null"`
	ActorID   *uuid.UUID `gorm:"column:actor_id;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime;index"`
}

func (a *Activity) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
