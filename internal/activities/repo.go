package activities

import (
	"context"

	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/pagination"
)

// Repository persists activity feed entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, activity *models.Activity) error
	List(ctx context.Context, params pagination.Params) ([]models.Activity, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an activity repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.Activity, string, error) {
	query, err := pagination.Apply(r.db.WithContext(ctx).Model(&models.Activity{}), params)
	if err != nil {
		return nil, "", err
	}
	var rows []models.Activity
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}
	page, next := pagination.Trim(rows, params.Limit, func(a models.Activity) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	})
	return page, next, nil
}
