package ledger

import (
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
)

// DefaultMinimumWithdrawal is the smallest payout a vendor may request, in TZS.
const DefaultMinimumWithdrawal int64 = 10000

// Balance is a vendor's wallet, derived from orders and withdrawals on read.
type Balance struct {
	TotalRevenue      int64 `json:"total_revenue"`
	Withdrawn         int64 `json:"withdrawn"`
	Available         int64 `json:"available"`
	MinimumWithdrawal int64 `json:"minimum_withdrawal"`
	CanWithdraw       bool  `json:"can_withdraw"`
}

// ComputeBalance sums vendor net revenue of delivered orders and subtracts
// pending and paid withdrawals. Rejected withdrawals release their amount.
func ComputeBalance(orders []models.Order, withdrawals []models.Withdrawal, minimum int64) Balance {
	var revenue, withdrawn int64
	for _, o := range orders {
		if o.Status == enums.OrderStatusDelivered {
			revenue += o.VendorNet
		}
	}
	for _, w := range withdrawals {
		if w.Status.Commits() {
			withdrawn += w.Amount
		}
	}
	return newBalance(revenue, withdrawn, minimum)
}

func newBalance(revenue, withdrawn, minimum int64) Balance {
	if minimum <= 0 {
		minimum = DefaultMinimumWithdrawal
	}
	available := revenue - withdrawn
	return Balance{
		TotalRevenue:      revenue,
		Withdrawn:         withdrawn,
		Available:         available,
		MinimumWithdrawal: minimum,
		CanWithdraw:       available >= minimum,
	}
}
