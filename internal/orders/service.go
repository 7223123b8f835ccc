package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/internal/activities"
	"github.com/kukumart/marketplace-backend/internal/notifications"
	"github.com/kukumart/marketplace-backend/internal/pricing"
	product "github.com/kukumart/marketplace-backend/internal/products"
	"github.com/kukumart/marketplace-backend/internal/users"
	"github.com/kukumart/marketplace-backend/pkg/checkout"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/logger"
	"github.com/kukumart/marketplace-backend/pkg/metrics"
	"github.com/kukumart/marketplace-backend/pkg/money"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
	"github.com/kukumart/marketplace-backend/pkg/outbox/payloads"
	"github.com/kukumart/marketplace-backend/pkg/pagination"
	"github.com/kukumart/marketplace-backend/pkg/types"
	"github.com/kukumart/marketplace-backend/pkg/visibility"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service runs the order lifecycle: checkout, status transitions and the
// admin payment and deletion overrides.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	UpdateStatus(ctx context.Context, input StatusInput) (*StatusResult, error)
	ApprovePayment(ctx context.Context, orderID, adminID uuid.UUID) (*OrderDTO, error)
	Delete(ctx context.Context, orderID, adminID uuid.UUID) error
	Get(ctx context.Context, orderID uuid.UUID, viewer visibility.Viewer) (*OrderDTO, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (types.PageEnvelope[OrderDTO], error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, status *enums.OrderStatus, params pagination.Params) (types.PageEnvelope[OrderDTO], error)
	ListAll(ctx context.Context, filter ListFilter, params pagination.Params) (types.PageEnvelope[OrderDTO], error)
}

// ServiceParams groups dependencies for the orders service.
type ServiceParams struct {
	Repo                  Repository
	Products              *product.Repository
	Users                 *users.Repository
	Tx                    txRunner
	Outbox                outboxPublisher
	Activities            activities.Recorder
	Formatter             *notifications.Formatter
	Metrics               *metrics.Marketplace
	CommissionBasisPoints int64
	Logger                *logger.Logger
}

type service struct {
	repo          Repository
	products      *product.Repository
	users         *users.Repository
	tx            txRunner
	outbox        outboxPublisher
	activities    activities.Recorder
	formatter     *notifications.Formatter
	metrics       *metrics.Marketplace
	commissionBps int64
	logg          *logger.Logger
	now           func() time.Time
}

// NewService builds the orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Activities == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	formatter := params.Formatter
	if formatter == nil {
		formatter = notifications.NewFormatter("")
	}
	bps := params.CommissionBasisPoints
	if bps == 0 {
		bps = pricing.DefaultCommissionBasisPoints
	}
	return &service{
		repo:          params.Repo,
		products:      params.Products,
		users:         params.Users,
		tx:            params.Tx,
		outbox:        params.Outbox,
		activities:    params.Activities,
		formatter:     formatter,
		metrics:       params.Metrics,
		commissionBps: bps,
		logg:          params.Logger,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// Checkout prices the purchase, takes the stock and writes the order in one
// transaction. Any failure leaves stock and orders untouched.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	req, err := checkout.Validate(input.Request)
	if err != nil {
		s.metrics.CheckoutRejected("validation")
		return nil, err
	}

	var (
		created   *models.Order
		breakdown pricing.Breakdown
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		buyer, err := s.users.WithTx(tx).FindByID(ctx, input.BuyerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
			}
			return pkgerrors.Persistence(err, "load buyer")
		}

		productRepo := s.products.WithTx(tx)
		item, err := productRepo.FindByID(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Persistence(err, "load product")
		}
		if !item.Approved {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		breakdown, err = pricing.Compute(item.Price, req.Qty, item.DeliveryFee(req.DeliveryMethod), s.commissionBps)
		if err != nil {
			return err
		}

		taken, err := productRepo.DecrementStock(ctx, item.ID, req.Qty)
		if err != nil {
			return pkgerrors.Persistence(err, "decrement stock")
		}
		if !taken {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock for this order").
				WithDetails(map[string]any{"requested": req.Qty, "available": item.Stock})
		}

		order := &models.Order{
			UserID:      buyer.ID,
			UserName:    buyer.Name,
			UserContact: buyer.Contact,
			PayPhone:    req.PayPhone,
			Items: []types.OrderItem{{
				Name:  item.Name,
				Qty:   req.Qty,
				Price: item.Price,
				Unit:  item.Unit,
				Emoji: item.Emoji,
				Image: item.Image,
			}},
			ProductID:       item.ID,
			VendorID:        item.VendorID,
			VendorName:      item.VendorName,
			ProductPrice:    item.Price,
			Qty:             req.Qty,
			Subtotal:        breakdown.Subtotal,
			DeliveryFee:     breakdown.DeliveryFee,
			DeliveryMethod:  req.DeliveryMethod,
			AdminCommission: breakdown.AdminCommission,
			VendorNet:       breakdown.VendorNet,
			Total:           breakdown.Total,
			PayMethod:       req.PayMethod,
			PaymentProof:    req.PaymentProof,
			Status:          enums.OrderStatusPending,
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Persistence(err, "insert order")
		}

		if err := s.activities.Record(ctx, tx, activities.Entry{
			Icon:    activities.IconCheckout,
			Text:    fmt.Sprintf("%s amenunua %s × %d — %s", buyer.Name, item.Name, req.Qty, money.Format(order.Total)),
			ActorID: buyer.ID,
		}); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: buyer.ID, Role: buyer.Role},
			Audience:      []uuid.UUID{buyer.ID, order.VendorID},
			Data: payloads.OrderCreatedEvent{
				OrderID:   order.ID,
				UserID:    buyer.ID,
				VendorID:  order.VendorID,
				ProductID: order.ProductID,
				Qty:       order.Qty,
				Total:     order.Total,
			},
		}); err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
			s.metrics.CheckoutRejected("insufficient_stock")
		}
		return nil, err
	}

	s.metrics.OrderCreated(created.AdminCommission)
	if s.logg != nil {
		logCtx := s.logg.WithVendorID(s.logg.WithOrderID(ctx, created.ID.String()), created.VendorID.String())
		if created.PayPhone != "" {
			logCtx = s.logg.WithPhone(logCtx, "pay_phone", created.PayPhone)
		}
		s.logg.Info(logCtx, "order created")
	}
	return &CheckoutResult{
		Order:    FromModel(created),
		Pricing:  breakdown,
		WhatsApp: s.formatter.CheckoutConfirmation(ctx, *created).Outbound(),
	}, nil
}

// UpdateStatus applies one step of the order state machine. Requesting the
// current status is a no-op without a notification.
func (s *service) UpdateStatus(ctx context.Context, input StatusInput) (*StatusResult, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}

	var (
		order   *models.Order
		from    enums.OrderStatus
		changed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		order = loaded
		if input.ActorRole != enums.RoleAdmin && order.VendorID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another vendor")
		}
		from = order.Status
		if from == input.Status {
			return nil
		}
		if err := CheckTransition(order.DeliveryMethod, from, input.Status); err != nil {
			return err
		}

		var deliveredAt *time.Time
		if input.Status == enums.OrderStatusDelivered {
			now := s.now()
			deliveredAt = &now
		}
		applied, err := repo.UpdateStatus(ctx, order.ID, from, input.Status, deliveredAt)
		if err != nil {
			return pkgerrors.Persistence(err, "update order status")
		}
		if !applied {
			return invalidTransition(from, input.Status)
		}
		order.Status = input.Status
		order.DeliveredAt = deliveredAt

		if err := s.activities.Record(ctx, tx, activities.Entry{
			Icon:    activities.IconOrder,
			Text:    fmt.Sprintf("Agizo #%s limebadilishwa hali kuwa %s", order.ShortID(), input.Status),
			ActorID: input.ActorID,
		}); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: input.ActorRole},
			Audience:      []uuid.UUID{order.UserID, order.VendorID},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:  order.ID,
				VendorID: order.VendorID,
				UserID:   order.UserID,
				From:     from,
				To:       input.Status,
			},
		}); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &StatusResult{Order: FromModel(order), Changed: changed}
	if !changed {
		return result, nil
	}
	s.metrics.StatusChanged(string(input.Status))
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(s.logg.WithFields(logCtx, map[string]any{"from": from, "to": input.Status}), "order status changed")
	}
	if msg, ok := s.formatter.FormatNotification(*order, input.Status); ok {
		result.Notification = msg.Outbound()
	}
	return result, nil
}

// ApprovePayment confirms the payment proof of a mobile money or bank order.
func (s *service) ApprovePayment(ctx context.Context, orderID, adminID uuid.UUID) (*OrderDTO, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		order = loaded
		if !order.PayMethod.RequiresProof() {
			return pkgerrors.New(pkgerrors.CodeValidation, "cash orders have no payment to approve")
		}
		if order.PaymentApproved {
			return nil
		}
		applied, err := repo.MarkPaymentApproved(ctx, order.ID)
		if err != nil {
			return pkgerrors.Persistence(err, "approve payment")
		}
		order.PaymentApproved = true
		if !applied {
			return nil
		}

		if err := s.activities.Record(ctx, tx, activities.Entry{
			Icon:    activities.IconPayment,
			Text:    fmt.Sprintf("Malipo ya agizo #%s yamethibitishwa na Admin", order.ShortID()),
			ActorID: adminID,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentApproved,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: enums.RoleAdmin},
			Audience:      []uuid.UUID{order.UserID, order.VendorID},
			Data:          payloads.PaymentApprovedEvent{OrderID: order.ID, VendorID: order.VendorID, UserID: order.UserID},
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

// Delete force removes an order. Stock is not restored.
func (s *service) Delete(ctx context.Context, orderID, adminID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if _, err := repo.Delete(ctx, order.ID); err != nil {
			return pkgerrors.Persistence(err, "delete order")
		}
		if err := s.activities.Record(ctx, tx, activities.Entry{
			Icon:    activities.IconDeleted,
			Text:    fmt.Sprintf("Agizo #%s limefutwa na Admin", order.ShortID()),
			ActorID: adminID,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDeleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: enums.RoleAdmin},
			Audience:      []uuid.UUID{order.UserID, order.VendorID},
			Data:          payloads.OrderDeletedEvent{OrderID: order.ID, VendorID: order.VendorID, UserID: order.UserID},
		})
	})
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, viewer visibility.Viewer) (*OrderDTO, error) {
	order, err := loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := visibility.EnsureOrderVisible(order, viewer); err != nil {
		return nil, err
	}
	dto := FromModel(order)
	if viewer.UserID == order.UserID {
		dto.Inquiry = s.formatter.OrderInquiry(ctx, *order).Outbound()
	}
	return dto, nil
}

func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (types.PageEnvelope[OrderDTO], error) {
	return s.ListAll(ctx, ListFilter{UserID: &buyerID}, params)
}

func (s *service) ListForVendor(ctx context.Context, vendorID uuid.UUID, status *enums.OrderStatus, params pagination.Params) (types.PageEnvelope[OrderDTO], error) {
	return s.ListAll(ctx, ListFilter{VendorID: &vendorID, Status: status}, params)
}

func (s *service) ListAll(ctx context.Context, filter ListFilter, params pagination.Params) (types.PageEnvelope[OrderDTO], error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return types.PageEnvelope[OrderDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	rows, next, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return types.PageEnvelope[OrderDTO]{}, pkgerrors.Persistence(err, "list orders")
	}
	items := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return types.PageEnvelope[OrderDTO]{Items: items, NextCursor: next}, nil
}

func loadOrder(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Persistence(err, "load order")
	}
	return order, nil
}
