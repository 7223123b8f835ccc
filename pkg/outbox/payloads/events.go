package payloads

import (
	"github.com/google/uuid"

	"github.com/kukumart/marketplace-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when checkout commits a new order.
type OrderCreatedEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	UserID    uuid.UUID `json:"user_id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	ProductID uuid.UUID `json:"product_id"`
	Qty       int64     `json:"qty"`
	Total     int64     `json:"total"`
}

// OrderStatusChangedEvent is emitted for every accepted status transition.
type OrderStatusChangedEvent struct {
	OrderID  uuid.UUID         `json:"order_id"`
	VendorID uuid.UUID         `json:"vendor_id"`
	UserID   uuid.UUID         `json:"user_id"`
	From     enums.OrderStatus `json:"from"`
	To       enums.OrderStatus `json:"to"`
}

// OrderDeletedEvent is emitted when an admin force deletes an order.
type OrderDeletedEvent struct {
	OrderID  uuid.UUID `json:"order_id"`
	VendorID uuid.UUID `json:"vendor_id"`
	UserID   uuid.UUID `json:"user_id"`
}

// PaymentApprovedEvent is emitted when an admin confirms a payment proof.
type PaymentApprovedEvent struct {
	OrderID  uuid.UUID `json:"order_id"`
	VendorID uuid.UUID `json:"vendor_id"`
	UserID   uuid.UUID `json:"user_id"`
}

// WithdrawalRequestedEvent is emitted when a vendor requests a payout.
type WithdrawalRequestedEvent struct {
	WithdrawalID uuid.UUID          `json:"withdrawal_id"`
	VendorID     uuid.UUID          `json:"vendor_id"`
	Amount       int64              `json:"amount"`
	Method       enums.PayoutMethod `json:"method"`
}

// WithdrawalSettledEvent is emitted when an admin marks a payout paid or rejected.
type WithdrawalSettledEvent struct {
	WithdrawalID uuid.UUID              `json:"withdrawal_id"`
	VendorID     uuid.UUID              `json:"vendor_id"`
	Amount       int64                  `json:"amount"`
	Status       enums.WithdrawalStatus `json:"status"`
}

// VendorRegisteredEvent is emitted when a shop application is submitted.
type VendorRegisteredEvent struct {
	VendorID uuid.UUID `json:"vendor_id"`
	ShopName string    `json:"shop_name"`
}

// VendorDecidedEvent is emitted when an admin approves or rejects a shop.
type VendorDecidedEvent struct {
	VendorID uuid.UUID          `json:"vendor_id"`
	Status   enums.VendorStatus `json:"status"`
}

// ProductVisibilityEvent is emitted when an admin approves or hides a listing.
type ProductVisibilityEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	Approved  bool      `json:"approved"`
}

// ProductUpdatedEvent is emitted when an admin edits a listing. Fields names
// the columns that changed.
type ProductUpdatedEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	Fields    []string  `json:"fields"`
}

// ProductDeletedEvent is emitted when a listing is removed.
type ProductDeletedEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	VendorID  uuid.UUID `json:"vendor_id"`
}

// UserUpdatedEvent is emitted when an admin edits an account.
type UserUpdatedEvent struct {
	UserID uuid.UUID `json:"user_id"`
	Fields []string  `json:"fields"`
}

// UserDeletedEvent is emitted when an account is removed.
type UserDeletedEvent struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   enums.Role `json:"role"`
}

// ActivityRecordedEvent mirrors a new admin feed entry.
type ActivityRecordedEvent struct {
	ActivityID uuid.UUID `json:"activity_id"`
	Icon       string    `json:"icon"`
	Text       string    `json:"text"`
}

// SettingsUpdatedEvent is emitted when the settings document is saved.
type SettingsUpdatedEvent struct {
	Version int `json:"version"`
}
