package admin

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/internal/activities"
	"github.com/kukumart/marketplace-backend/internal/ledger"
	"github.com/kukumart/marketplace-backend/internal/notifications"
	"github.com/kukumart/marketplace-backend/internal/orders"
	product "github.com/kukumart/marketplace-backend/internal/products"
	"github.com/kukumart/marketplace-backend/internal/users"
	"github.com/kukumart/marketplace-backend/pkg/checkout"
	"github.com/kukumart/marketplace-backend/pkg/db"
	"github.com/kukumart/marketplace-backend/pkg/db/dbtest"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/metrics"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
)

type harness struct {
	admin  Service
	orders orders.Service
	ledger ledger.Service
	conn   *gorm.DB
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := dbtest.Open(t)
	tx := db.NewFromConn(conn)
	ob := outbox.NewService(outbox.NewRepository(conn), nil)
	acts, err := activities.NewService(activities.NewRepository(conn), ob)
	require.NoError(t, err)
	mkt := metrics.NewMarketplace(prometheus.NewRegistry())

	userRepo := users.NewRepository(conn)
	productRepo := product.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	ledgerRepo := ledger.NewRepository(conn)

	productSvc, err := product.NewService(product.ServiceParams{Repo: productRepo, Users: userRepo, Tx: tx, Outbox: ob, Activities: acts})
	require.NoError(t, err)
	userSvc, err := users.NewService(users.ServiceParams{Repo: userRepo, Tx: tx, Outbox: ob, Activities: acts, FeeSyncer: productSvc})
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:                  orderRepo,
		Products:              productRepo,
		Users:                 userRepo,
		Tx:                    tx,
		Outbox:                ob,
		Activities:            acts,
		Formatter:             notifications.NewFormatter(""),
		Metrics:               mkt,
		CommissionBasisPoints: 600,
	})
	require.NoError(t, err)
	ledgerSvc, err := ledger.NewService(ledger.ServiceParams{Repo: ledgerRepo, Tx: tx, Outbox: ob, Activities: acts, Metrics: mkt})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Users:             userSvc,
		Products:          productSvc,
		Orders:            orderSvc,
		Ledger:            ledgerSvc,
		OrderStats:        orderRepo,
		UserCounter:       userRepo,
		ProductCounter:    productRepo,
		WithdrawalCounter: ledgerRepo,
	})
	require.NoError(t, err)
	return &harness{admin: svc, orders: orderSvc, ledger: ledgerSvc, conn: conn}
}

func TestVendorToWithdrawalThroughAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	pending := enums.VendorStatusPending
	vendor := &models.User{Email: "juma@kukubora.tz", PasswordHash: "hash", Name: "Juma", Role: enums.RoleVendor, VendorStatus: &pending, ShopName: "Kuku Bora"}
	buyer := &models.User{Email: "amina@example.com", PasswordHash: "hash", Name: "Amina", Role: enums.RoleUser, Contact: "0712000111"}
	admin := &models.User{Email: "admin@kukumart.tz", PasswordHash: "hash", Name: "Admin", Role: enums.RoleAdmin}
	for _, u := range []*models.User{vendor, buyer, admin} {
		require.NoError(t, h.conn.Create(u).Error)
	}

	dash, err := h.admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dash.PendingVendors)
	assert.Equal(t, int64(1), dash.Customers)

	decided, err := h.admin.DecideVendor(ctx, admin.ID, vendor.ID, enums.VendorDecisionApprove)
	require.NoError(t, err)
	require.NotNil(t, decided.Status)
	assert.Equal(t, enums.VendorStatusApproved, *decided.Status)

	item := &models.Product{VendorID: vendor.ID, VendorName: "Kuku Bora", Name: "Kuku wa kienyeji", Price: 12000, Stock: 10, Unit: enums.UnitPiece, Approved: false, DeliveryCityFee: 3000}
	require.NoError(t, h.conn.Create(item).Error)
	_, err = h.admin.SetProductVisibility(ctx, admin.ID, item.ID, true)
	require.NoError(t, err)

	res, err := h.orders.Checkout(ctx, orders.CheckoutInput{
		BuyerID:   buyer.ID,
		ProductID: item.ID,
		Request:   checkout.Request{Qty: 3, DeliveryMethod: string(enums.DeliveryCity), PayMethod: string(enums.PaymentCash)},
	})
	require.NoError(t, err)

	for _, status := range []enums.OrderStatus{enums.OrderStatusProcessing, enums.OrderStatusDelivered} {
		_, err := h.admin.UpdateOrderStatus(ctx, admin.ID, res.Order.ID, status)
		require.NoError(t, err)
	}

	dash, err = h.admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(39000), dash.Revenue)
	assert.Equal(t, int64(2160), dash.AdminEarnings)
	assert.Equal(t, int64(1), dash.DeliveredOrders)
	assert.Zero(t, dash.PendingVendors)
	assert.Equal(t, int64(1), dash.Products)

	w, err := h.ledger.RequestWithdrawal(ctx, vendor.ID, ledger.PayoutDetails{Method: enums.PayoutMobile, Network: "Tigo Pesa", PhoneNumber: "0712000111"})
	require.NoError(t, err)
	assert.Equal(t, int64(33840), w.Amount)

	dash, err = h.admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dash.PendingWithdrawals)

	_, err = h.admin.SettleWithdrawal(ctx, admin.ID, w.ID, enums.SettlementPaid)
	require.NoError(t, err)
	_, err = h.admin.SettleWithdrawal(ctx, admin.ID, w.ID, enums.SettlementPaid)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
}

func TestAdminDeletes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := &models.User{Email: "admin@kukumart.tz", PasswordHash: "hash", Name: "Admin", Role: enums.RoleAdmin}
	other := &models.User{Email: "root@kukumart.tz", PasswordHash: "hash", Name: "Root", Role: enums.RoleAdmin}
	buyer := &models.User{Email: "amina@example.com", PasswordHash: "hash", Name: "Amina", Role: enums.RoleUser}
	for _, u := range []*models.User{admin, other, buyer} {
		require.NoError(t, h.conn.Create(u).Error)
	}

	err := h.admin.DeleteUser(ctx, admin.ID, other.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	require.NoError(t, h.admin.DeleteUser(ctx, admin.ID, buyer.ID))

	var count int64
	require.NoError(t, h.conn.Model(&models.User{}).Where("id = ?", buyer.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAdminEditsUsersAndProducts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	approved := enums.VendorStatusApproved
	admin := &models.User{Email: "admin@kukumart.tz", PasswordHash: "hash", Name: "Admin", Role: enums.RoleAdmin}
	vendor := &models.User{Email: "juma@kukubora.tz", PasswordHash: "hash", Name: "Juma", Role: enums.RoleVendor, VendorStatus: &approved, ShopName: "Kuku Bora"}
	for _, u := range []*models.User{admin, vendor} {
		require.NoError(t, h.conn.Create(u).Error)
	}
	item := &models.Product{VendorID: vendor.ID, VendorName: "Kuku Bora", Name: "Kuku", Price: 12000, Stock: 4, Unit: enums.UnitPiece, Approved: true}
	require.NoError(t, h.conn.Create(item).Error)

	shop, contact := "Kuku Bora Arusha", "0754111222"
	user, err := h.admin.UpdateUser(ctx, admin.ID, vendor.ID, users.AdminUserUpdate{ShopName: &shop, Contact: &contact})
	require.NoError(t, err)
	require.NotNil(t, user.Shop)
	assert.Equal(t, "Kuku Bora Arusha", user.Shop.Name)
	assert.Equal(t, "0754111222", user.Contact)

	stock := int64(40)
	listing, err := h.admin.UpdateProduct(ctx, admin.ID, item.ID, product.UpdateProductInput{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, int64(40), listing.Stock)

	negative := int64(-1)
	_, err = h.admin.UpdateProduct(ctx, admin.ID, item.ID, product.UpdateProductInput{Stock: &negative})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var events int64
	require.NoError(t, h.conn.Model(&models.OutboxEvent{}).
		Where("event_type IN ?", []enums.OutboxEventType{enums.EventUserUpdated, enums.EventProductUpdated}).
		Count(&events).Error)
	assert.Equal(t, int64(2), events)
}
