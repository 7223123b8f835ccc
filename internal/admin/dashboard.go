package admin

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kukumart/marketplace-backend/internal/ledger"
	"github.com/kukumart/marketplace-backend/internal/orders"
	product "github.com/kukumart/marketplace-backend/internal/products"
	"github.com/kukumart/marketplace-backend/internal/users"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
)

// Dashboard is the admin overview. Earnings come from the commission stored
// on each delivered order, never recomputed.
type Dashboard struct {
	Revenue            int64 `json:"revenue"`
	AdminEarnings      int64 `json:"admin_earnings"`
	DeliveredOrders    int64 `json:"delivered_orders"`
	Orders             int64 `json:"orders"`
	PendingOrders      int64 `json:"pending_orders"`
	Customers          int64 `json:"customers"`
	Vendors            int64 `json:"vendors"`
	PendingVendors     int64 `json:"pending_vendors"`
	Products           int64 `json:"products"`
	PendingWithdrawals int64 `json:"pending_withdrawals"`
}

type orderStats interface {
	DeliveredTotals(ctx context.Context) (orders.Totals, error)
	Count(ctx context.Context, filter orders.ListFilter) (int64, error)
}

type userCounter interface {
	Count(ctx context.Context, filter users.ListFilter) (int64, error)
}

type productCounter interface {
	Count(ctx context.Context, filter product.ListFilter) (int64, error)
}

type withdrawalCounter interface {
	Count(ctx context.Context, filter ledger.ListFilter) (int64, error)
}

func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var out Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		totals, err := s.orderStats.DeliveredTotals(gctx)
		if err != nil {
			return err
		}
		out.Revenue = totals.Revenue
		out.AdminEarnings = totals.AdminCommission
		out.DeliveredOrders = totals.Count
		return nil
	})
	count := func(dst *int64, fn func(context.Context) (int64, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	pendingOrder := enums.OrderStatusPending
	customer, vendor := enums.RoleUser, enums.RoleVendor
	pendingVendor := enums.VendorStatusPending
	pendingWithdrawal := enums.WithdrawalStatusPending

	count(&out.Orders, func(ctx context.Context) (int64, error) {
		return s.orderStats.Count(ctx, orders.ListFilter{})
	})
	count(&out.PendingOrders, func(ctx context.Context) (int64, error) {
		return s.orderStats.Count(ctx, orders.ListFilter{Status: &pendingOrder})
	})
	count(&out.Customers, func(ctx context.Context) (int64, error) {
		return s.userCounter.Count(ctx, users.ListFilter{Role: &customer})
	})
	count(&out.Vendors, func(ctx context.Context) (int64, error) {
		return s.userCounter.Count(ctx, users.ListFilter{Role: &vendor})
	})
	count(&out.PendingVendors, func(ctx context.Context) (int64, error) {
		return s.userCounter.Count(ctx, users.ListFilter{Role: &vendor, VendorStatus: &pendingVendor})
	})
	count(&out.Products, func(ctx context.Context) (int64, error) {
		return s.productCounter.Count(ctx, product.ListFilter{})
	})
	count(&out.PendingWithdrawals, func(ctx context.Context) (int64, error) {
		return s.withdrawalCounter.Count(ctx, ledger.ListFilter{Status: &pendingWithdrawal})
	})

	if err := g.Wait(); err != nil {
		return nil, pkgerrors.Persistence(err, "load dashboard")
	}
	return &out, nil
}
