package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SystemSetting stores a versioned JSON document under a fixed key.
type SystemSetting struct {
	Key       string          `gorm:"column:key;primaryKey"`
	Version   int             `gorm:"column:version;not null"`
	Payload   json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	UpdatedBy *uuid.UUID      `gorm:"column:updated_by;type:uuid"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
