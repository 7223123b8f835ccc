package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/kukumart/marketplace-backend/internal/notifications"
	"github.com/kukumart/marketplace-backend/internal/pricing"
	"github.com/kukumart/marketplace-backend/pkg/checkout"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/types"
)

// OrderDTO is the order payload returned to buyers, vendors and admins.
type OrderDTO struct {
	ID              uuid.UUID            `json:"id"`
	Ref             string               `json:"ref"`
	UserID          uuid.UUID            `json:"user_id"`
	UserName        string               `json:"user_name"`
	UserContact     string               `json:"user_contact"`
	PayPhone        string               `json:"pay_phone,omitempty"`
	Items           []types.OrderItem    `json:"items"`
	ProductID       uuid.UUID            `json:"product_id"`
	VendorID        uuid.UUID            `json:"vendor_id"`
	VendorName      string               `json:"vendor_name"`
	ProductPrice    int64                `json:"product_price"`
	Qty             int64                `json:"qty"`
	Subtotal        int64                `json:"subtotal"`
	DeliveryFee     int64                `json:"delivery_fee"`
	DeliveryMethod  enums.DeliveryMethod `json:"delivery_method"`
	AdminCommission int64                `json:"admin_commission"`
	VendorNet       int64                `json:"vendor_net"`
	Total           int64                `json:"total"`
	PayMethod       enums.PaymentMethod  `json:"pay_method"`
	PaymentProof    string               `json:"payment_proof,omitempty"`
	PaymentApproved bool                 `json:"payment_approved"`
	Status          enums.OrderStatus    `json:"status"`
	StatusLabel     string               `json:"status_label"`
	DeliveredAt     *time.Time           `json:"delivered_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`

	// Inquiry is the buyer's ready-made status question to the admin. Only
	// set when the buyer reads their own order.
	Inquiry *notifications.Outbound `json:"inquiry,omitempty"`
}

// FromModel converts an order row into its API payload.
func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	return &OrderDTO{
		ID:              o.ID,
		Ref:             o.ShortID(),
		UserID:          o.UserID,
		UserName:        o.UserName,
		UserContact:     o.UserContact,
		PayPhone:        o.PayPhone,
		Items:           o.Items,
		ProductID:       o.ProductID,
		VendorID:        o.VendorID,
		VendorName:      o.VendorName,
		ProductPrice:    o.ProductPrice,
		Qty:             o.Qty,
		Subtotal:        o.Subtotal,
		DeliveryFee:     o.DeliveryFee,
		DeliveryMethod:  o.DeliveryMethod,
		AdminCommission: o.AdminCommission,
		VendorNet:       o.VendorNet,
		Total:           o.Total,
		PayMethod:       o.PayMethod,
		PaymentProof:    o.PaymentProof,
		PaymentApproved: o.PaymentApproved,
		Status:          o.Status,
		StatusLabel:     o.Status.Label(),
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
	}
}

// CheckoutInput is a buyer purchasing one product.
type CheckoutInput struct {
	BuyerID   uuid.UUID
	ProductID uuid.UUID
	checkout.Request
}

// CheckoutResult carries the new order and the confirmation the buyer sends
// to the admin.
type CheckoutResult struct {
	Order    *OrderDTO               `json:"order"`
	Pricing  pricing.Breakdown       `json:"pricing"`
	WhatsApp *notifications.Outbound `json:"whatsapp"`
}

// StatusInput asks for an order to move to Status.
type StatusInput struct {
	OrderID   uuid.UUID
	Status    enums.OrderStatus
	ActorID   uuid.UUID
	ActorRole enums.Role
}

// StatusResult reports the order after a transition. Notification is nil
// when the status has no buyer template or nothing changed.
type StatusResult struct {
	Order        *OrderDTO               `json:"order"`
	Changed      bool                    `json:"changed"`
	Notification *notifications.Outbound `json:"notification,omitempty"`
}
