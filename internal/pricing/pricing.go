// Package pricing computes the frozen money fields of an order.
package pricing

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
)

// DefaultCommissionBasisPoints is the platform fee of 6% expressed in basis points.
const DefaultCommissionBasisPoints int64 = 600

var basisPointScale = decimal.NewFromInt(10000)

// Breakdown holds the amounts stored on an order. All values are whole TZS.
type Breakdown struct {
	Subtotal        int64 `json:"subtotal"`
	DeliveryFee     int64 `json:"delivery_fee"`
	AdminCommission int64 `json:"admin_commission"`
	VendorNet       int64 `json:"vendor_net"`
	Total           int64 `json:"total"`
}

// Compute prices a single-product order. Commission is rounded half away
// from zero, and the buyer pays the delivery fee on top of the subtotal.
func Compute(price, qty, deliveryFee, commissionBps int64) (Breakdown, error) {
	if price <= 0 {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if qty <= 0 {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
	}
	if deliveryFee < 0 {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee must not be negative")
	}
	if commissionBps < 0 || commissionBps > 10000 {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "commission basis points out of range")
	}

	subtotal := price * qty
	commission := Commission(subtotal, commissionBps)
	return Breakdown{
		Subtotal:        subtotal,
		DeliveryFee:     deliveryFee,
		AdminCommission: commission,
		VendorNet:       subtotal - commission,
		Total:           subtotal + deliveryFee,
	}, nil
}

// Commission returns round(subtotal × bps / 10000) using half-away-from-zero rounding.
func Commission(subtotal, bps int64) int64 {
	return decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(bps)).
		Div(basisPointScale).
		Round(0).
		IntPart()
}
