package visibility

import (
	"github.com/google/uuid"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
)

// Viewer is the caller a document is being shown to. The zero value is an
// anonymous visitor.
type Viewer struct {
	UserID uuid.UUID
	Role   enums.Role
}

// IsAdmin reports whether the viewer has full read access.
func (v Viewer) IsAdmin() bool {
	return v.Role == enums.RoleAdmin
}

// EnsureProductVisible hides unapproved listings from everyone except the
// owning vendor and admins. Hidden listings look missing rather than forbidden.
func EnsureProductVisible(product *models.Product, viewer Viewer) error {
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if product.Approved || viewer.IsAdmin() {
		return nil
	}
	if viewer.UserID != uuid.Nil && viewer.UserID == product.VendorID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

// EnsureOrderVisible limits an order to its buyer, its vendor and admins.
func EnsureOrderVisible(order *models.Order, viewer Viewer) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if viewer.IsAdmin() {
		return nil
	}
	if viewer.UserID != uuid.Nil && (viewer.UserID == order.UserID || viewer.UserID == order.VendorID) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}
