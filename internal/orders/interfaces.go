package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/pagination"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// UpdateStatus moves the order only while it is still in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, deliveredAt *time.Time) (bool, error)
	MarkPaymentApproved(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, string, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	DeliveredTotals(ctx context.Context) (Totals, error)
}

// ListFilter narrows order listings. Nil fields are ignored.
type ListFilter struct {
	UserID   *uuid.UUID
	VendorID *uuid.UUID
	Status   *enums.OrderStatus
}

// Totals aggregates delivered orders across the marketplace.
type Totals struct {
	Revenue         int64 `json:"revenue"`
	AdminCommission int64 `json:"admin_commission"`
	Count           int64 `json:"count"`
}
