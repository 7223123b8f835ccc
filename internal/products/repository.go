package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/pagination"
)

// Repository wires together all product-related persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Save writes the selected columns of product back to the row.
func (r *Repository) Save(ctx context.Context, product *models.Product, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(product).Select(columns).Updates(product).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DecrementStock removes qty units only when at least qty remain. It reports
// false when the guard fails, leaving stock untouched.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("approved", approved).Error
}

// UpdateVendorFees copies a vendor's delivery fees onto all of their listings.
func (r *Repository) UpdateVendorFees(ctx context.Context, vendorID uuid.UUID, cityFee, outFee int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("vendor_id = ?", vendorID).
		Updates(map[string]any{"delivery_city_fee": cityFee, "delivery_out_fee": outFee}).Error
}

// List returns products newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Product, string, error) {
	query, err := pagination.Apply(r.filtered(ctx, filter), params)
	if err != nil {
		return nil, "", err
	}
	var rows []models.Product
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}
	page, next := pagination.Trim(rows, params.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return page, next, nil
}

func (r *Repository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, err
}

func (r *Repository) filtered(ctx context.Context, filter ListFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.ApprovedOnly {
		query = query.Where("approved = ?", true)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		like := "%" + q + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(vendor_name) LIKE ?", like, like)
	}
	return query
}
