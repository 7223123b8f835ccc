package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/pagination"
)

// Repository manages withdrawals and the sums the balance is derived from.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	DeliveredRevenue(ctx context.Context, vendorID uuid.UUID) (int64, error)
	CommittedWithdrawals(ctx context.Context, vendorID uuid.UUID) (int64, error)
	// BumpLedgerSeq takes the vendor's row lock for the rest of the transaction.
	BumpLedgerSeq(ctx context.Context, vendorID uuid.UUID) (bool, error)
	Create(ctx context.Context, withdrawal *models.Withdrawal) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	// Settle moves a withdrawal out of pending; false means it was already settled.
	Settle(ctx context.Context, id uuid.UUID, status enums.WithdrawalStatus, at time.Time, by uuid.UUID) (bool, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Withdrawal, string, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
}

// ListFilter narrows withdrawal listings. Nil fields are ignored.
type ListFilter struct {
	VendorID *uuid.UUID
	Status   *enums.WithdrawalStatus
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) DeliveredRevenue(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(vendor_net), 0)").
		Where("vendor_id = ? AND status = ?", vendorID, enums.OrderStatusDelivered).
		Scan(&total).Error
	return total, err
}

func (r *repository) CommittedWithdrawals(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("vendor_id = ? AND status IN ?", vendorID, []enums.WithdrawalStatus{enums.WithdrawalStatusPending, enums.WithdrawalStatusPaid}).
		Scan(&total).Error
	return total, err
}

func (r *repository) BumpLedgerSeq(ctx context.Context, vendorID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND role = ?", vendorID, enums.RoleVendor).
		UpdateColumn("ledger_seq", gorm.Expr("ledger_seq + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	return r.db.WithContext(ctx).Create(withdrawal).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	if err := r.db.WithContext(ctx).First(&withdrawal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

func (r *repository) Settle(ctx context.Context, id uuid.UUID, status enums.WithdrawalStatus, at time.Time, by uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, enums.WithdrawalStatusPending).
		Updates(map[string]any{"status": status, "settled_at": at, "settled_by": by})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Withdrawal, string, error) {
	query, err := pagination.Apply(r.filtered(ctx, filter), params)
	if err != nil {
		return nil, "", err
	}
	var rows []models.Withdrawal
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}
	page, next := pagination.Trim(rows, params.Limit, func(w models.Withdrawal) pagination.Cursor {
		return pagination.Cursor{CreatedAt: w.CreatedAt, ID: w.ID}
	})
	return page, next, nil
}

func (r *repository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, err
}

func (r *repository) filtered(ctx context.Context, filter ListFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Withdrawal{})
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}
