package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Marketplace records business counters for checkout, order status and payouts.
// A nil *Marketplace is a valid no-op recorder.
type Marketplace struct {
	ordersCreated       prometheus.Counter
	checkoutRejected    *prometheus.CounterVec
	statusTransitions   *prometheus.CounterVec
	withdrawalRequested prometheus.Counter
	withdrawalSettled   *prometheus.CounterVec
	withdrawnAmount     prometheus.Counter
	commissionEarned    prometheus.Counter
}

// NewMarketplace registers the marketplace metrics on the provided registerer.
func NewMarketplace(reg prometheus.Registerer) *Marketplace {
	if reg == nil {
		return &Marketplace{}
	}
	m := &Marketplace{
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders committed by checkout.",
		}),
		checkoutRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_rejected_total",
			Help: "Checkouts rejected before an order was written.",
		}, []string{"reason"}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Accepted order status transitions by target status.",
		}, []string{"status"}),
		withdrawalRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "withdrawals_requested_total",
			Help: "Withdrawal requests accepted into the pending state.",
		}),
		withdrawalSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "withdrawals_settled_total",
			Help: "Withdrawals settled by an admin, by outcome.",
		}, []string{"status"}),
		withdrawnAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "withdrawals_requested_amount_tzs_total",
			Help: "Sum of requested withdrawal amounts in TZS.",
		}),
		commissionEarned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "admin_commission_tzs_total",
			Help: "Commission booked on created orders in TZS.",
		}),
	}
	reg.MustRegister(
		m.ordersCreated,
		m.checkoutRejected,
		m.statusTransitions,
		m.withdrawalRequested,
		m.withdrawalSettled,
		m.withdrawnAmount,
		m.commissionEarned,
	)
	return m
}

// OrderCreated counts a committed checkout and its commission.
func (m *Marketplace) OrderCreated(commission int64) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
	if commission > 0 {
		m.commissionEarned.Add(float64(commission))
	}
}

// CheckoutRejected counts a checkout that failed for the given reason code.
func (m *Marketplace) CheckoutRejected(reason string) {
	if m == nil || m.checkoutRejected == nil {
		return
	}
	m.checkoutRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// StatusChanged counts an accepted order transition.
func (m *Marketplace) StatusChanged(status string) {
	if m == nil || m.statusTransitions == nil {
		return
	}
	m.statusTransitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// WithdrawalRequested counts a new pending withdrawal.
func (m *Marketplace) WithdrawalRequested(amount int64) {
	if m == nil || m.withdrawalRequested == nil {
		return
	}
	m.withdrawalRequested.Inc()
	m.withdrawnAmount.Add(float64(amount))
}

// WithdrawalSettled counts a settlement outcome.
func (m *Marketplace) WithdrawalSettled(status string) {
	if m == nil || m.withdrawalSettled == nil {
		return
	}
	m.withdrawalSettled.WithLabelValues(normalizeLabel(status)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
