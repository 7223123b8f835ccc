package settings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Find returns the settings row, or gorm.ErrRecordNotFound before the first save.
func (r *Repository) Find(ctx context.Context) (*models.SystemSetting, error) {
	var row models.SystemSetting
	if err := r.db.WithContext(ctx).First(&row, "key = ?", Key).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Insert(ctx context.Context, row *models.SystemSetting) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// UpdateIfVersion replaces the payload only when the stored version still
// equals expected. It reports false when another writer got there first.
func (r *Repository) UpdateIfVersion(ctx context.Context, expected int, payload []byte, by uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SystemSetting{}).
		Where("key = ? AND version = ?", Key, expected).
		Updates(map[string]any{
			"version":    expected + 1,
			"payload":    payload,
			"updated_by": by,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
