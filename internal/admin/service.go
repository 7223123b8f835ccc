package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kukumart/marketplace-backend/internal/ledger"
	"github.com/kukumart/marketplace-backend/internal/orders"
	product "github.com/kukumart/marketplace-backend/internal/products"
	"github.com/kukumart/marketplace-backend/internal/users"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/logger"
)

// Service is the admin oversight surface. Each action is delegated to the
// service that owns the document; this layer pins the admin as the actor
// and leaves an audit line in the log.
type Service interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	DecideVendor(ctx context.Context, adminID, vendorID uuid.UUID, decision enums.VendorDecision) (*users.UserDTO, error)
	DeleteUser(ctx context.Context, adminID, userID uuid.UUID) error
	UpdateUser(ctx context.Context, adminID, userID uuid.UUID, input users.AdminUserUpdate) (*users.UserDTO, error)
	SetProductVisibility(ctx context.Context, adminID, productID uuid.UUID, approved bool) (*product.ProductDTO, error)
	DeleteProduct(ctx context.Context, adminID, productID uuid.UUID) error
	UpdateProduct(ctx context.Context, adminID, productID uuid.UUID, input product.UpdateProductInput) (*product.ProductDTO, error)
	UpdateOrderStatus(ctx context.Context, adminID, orderID uuid.UUID, status enums.OrderStatus) (*orders.StatusResult, error)
	ApprovePayment(ctx context.Context, adminID, orderID uuid.UUID) (*orders.OrderDTO, error)
	DeleteOrder(ctx context.Context, adminID, orderID uuid.UUID) error
	SettleWithdrawal(ctx context.Context, adminID, withdrawalID uuid.UUID, decision enums.SettlementDecision) (*ledger.WithdrawalDTO, error)
}

// ServiceParams groups the owning services and the counters behind the dashboard.
type ServiceParams struct {
	Users    users.Service
	Products product.Service
	Orders   orders.Service
	Ledger   ledger.Service

	OrderStats        orderStats
	UserCounter       userCounter
	ProductCounter    productCounter
	WithdrawalCounter withdrawalCounter

	Logger *logger.Logger
}

type service struct {
	users    users.Service
	products product.Service
	orders   orders.Service
	ledger   ledger.Service

	orderStats        orderStats
	userCounter       userCounter
	productCounter    productCounter
	withdrawalCounter withdrawalCounter

	logg *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Users == nil:
		return nil, fmt.Errorf("users service required")
	case params.Products == nil:
		return nil, fmt.Errorf("products service required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders service required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger service required")
	case params.OrderStats == nil || params.UserCounter == nil || params.ProductCounter == nil || params.WithdrawalCounter == nil:
		return nil, fmt.Errorf("dashboard counters required")
	}
	return &service{
		users:             params.Users,
		products:          params.Products,
		orders:            params.Orders,
		ledger:            params.Ledger,
		orderStats:        params.OrderStats,
		userCounter:       params.UserCounter,
		productCounter:    params.ProductCounter,
		withdrawalCounter: params.WithdrawalCounter,
		logg:              params.Logger,
	}, nil
}

func (s *service) DecideVendor(ctx context.Context, adminID, vendorID uuid.UUID, decision enums.VendorDecision) (*users.UserDTO, error) {
	out, err := s.users.DecideVendor(ctx, users.VendorDecisionInput{VendorID: vendorID, Decision: decision, ActorID: adminID})
	s.audit(ctx, adminID, "admin.vendor_decision", map[string]any{"vendor_id": vendorID.String(), "decision": string(decision)}, err)
	return out, err
}

func (s *service) DeleteUser(ctx context.Context, adminID, userID uuid.UUID) error {
	err := s.users.AdminDelete(ctx, userID, adminID)
	s.audit(ctx, adminID, "admin.user_delete", map[string]any{"user_id": userID.String()}, err)
	return err
}

func (s *service) UpdateUser(ctx context.Context, adminID, userID uuid.UUID, input users.AdminUserUpdate) (*users.UserDTO, error) {
	out, err := s.users.AdminUpdate(ctx, userID, adminID, input)
	s.audit(ctx, adminID, "admin.user_update", map[string]any{"user_id": userID.String()}, err)
	return out, err
}

func (s *service) SetProductVisibility(ctx context.Context, adminID, productID uuid.UUID, approved bool) (*product.ProductDTO, error) {
	out, err := s.products.SetVisibility(ctx, productID, approved, adminID)
	s.audit(ctx, adminID, "admin.product_visibility", map[string]any{"product_id": productID.String(), "approved": approved}, err)
	return out, err
}

func (s *service) DeleteProduct(ctx context.Context, adminID, productID uuid.UUID) error {
	err := s.products.AdminDelete(ctx, productID, adminID)
	s.audit(ctx, adminID, "admin.product_delete", map[string]any{"product_id": productID.String()}, err)
	return err
}

func (s *service) UpdateProduct(ctx context.Context, adminID, productID uuid.UUID, input product.UpdateProductInput) (*product.ProductDTO, error) {
	out, err := s.products.AdminUpdate(ctx, productID, adminID, input)
	s.audit(ctx, adminID, "admin.product_update", map[string]any{"product_id": productID.String()}, err)
	return out, err
}

func (s *service) UpdateOrderStatus(ctx context.Context, adminID, orderID uuid.UUID, status enums.OrderStatus) (*orders.StatusResult, error) {
	out, err := s.orders.UpdateStatus(ctx, orders.StatusInput{
		OrderID:   orderID,
		Status:    status,
		ActorID:   adminID,
		ActorRole: enums.RoleAdmin,
	})
	s.audit(ctx, adminID, "admin.order_status", map[string]any{"order_id": orderID.String(), "status": string(status)}, err)
	return out, err
}

func (s *service) ApprovePayment(ctx context.Context, adminID, orderID uuid.UUID) (*orders.OrderDTO, error) {
	out, err := s.orders.ApprovePayment(ctx, orderID, adminID)
	s.audit(ctx, adminID, "admin.payment_approval", map[string]any{"order_id": orderID.String()}, err)
	return out, err
}

func (s *service) DeleteOrder(ctx context.Context, adminID, orderID uuid.UUID) error {
	err := s.orders.Delete(ctx, orderID, adminID)
	s.audit(ctx, adminID, "admin.order_delete", map[string]any{"order_id": orderID.String()}, err)
	return err
}

func (s *service) SettleWithdrawal(ctx context.Context, adminID, withdrawalID uuid.UUID, decision enums.SettlementDecision) (*ledger.WithdrawalDTO, error) {
	out, err := s.ledger.Settle(ctx, ledger.SettleInput{WithdrawalID: withdrawalID, Decision: decision, AdminID: adminID})
	s.audit(ctx, adminID, "admin.withdrawal_settle", map[string]any{"withdrawal_id": withdrawalID.String(), "decision": string(decision)}, err)
	return out, err
}

func (s *service) audit(ctx context.Context, adminID uuid.UUID, action string, fields map[string]any, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(s.logg.WithUserID(ctx, adminID.String()), fields)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), action+".failed")
		return
	}
	s.logg.Info(ctx, action)
}
