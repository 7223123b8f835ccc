package statuses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/pagination"
)

// Repository persists vendor status posts.
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

func (r *Repository) Create(ctx context.Context, post *models.StatusPost) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StatusPost, error) {
	var post models.StatusPost
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// Save writes the selected json columns back to the row.
func (r *Repository) Save(ctx context.Context, post *models.StatusPost, columns ...string) error {
	return r.db.WithContext(ctx).Model(post).Select(columns).Updates(post).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.StatusPost{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) List(ctx context.Context, vendorID *uuid.UUID, params pagination.Params) ([]models.StatusPost, string, error) {
	query := r.db.WithContext(ctx).Model(&models.StatusPost{})
	if vendorID != nil {
		query = query.Where("vendor_id = ?", *vendorID)
	}
	query, err := pagination.Apply(query, params)
	if err != nil {
		return nil, "", err
	}
	var rows []models.StatusPost
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}
	page, next := pagination.Trim(rows, params.Limit, func(p models.StatusPost) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return page, next, nil
}
