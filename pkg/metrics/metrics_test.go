package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMarketplaceExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMarketplace(reg)

	m.OrderCreated(2160)
	m.OrderCreated(600)
	m.CheckoutRejected("INSUFFICIENT_STOCK")
	m.StatusChanged("delivered")
	m.WithdrawalRequested(33840)
	m.WithdrawalSettled("paid")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := plainCounter(t, mfs, "orders_created_total"); got != 2 {
		t.Fatalf("expected orders_created_total=2, got %f", got)
	}
	if got := plainCounter(t, mfs, "admin_commission_tzs_total"); got != 2760 {
		t.Fatalf("expected commission 2760, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "checkout_rejected_total", "reason", "INSUFFICIENT_STOCK"); err != nil || got != 1 {
		t.Fatalf("expected one stock rejection, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "withdrawals_settled_total", "status", "paid"); err != nil || got != 1 {
		t.Fatalf("expected one paid settlement, got %f (%v)", got, err)
	}
	if got := plainCounter(t, mfs, "withdrawals_requested_amount_tzs_total"); got != 33840 {
		t.Fatalf("expected withdrawn amount 33840, got %f", got)
	}
}

func TestNilRecordersAreNoops(t *testing.T) {
	var m *Marketplace
	m.OrderCreated(1)
	m.CheckoutRejected("x")
	m.WithdrawalSettled("paid")

	var h *HTTP
	h.Observe("GET", "/api/health", 200, time.Millisecond)

	NewMarketplace(nil).OrderCreated(1)
}

func TestHTTPObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHTTP(reg)
	h.Observe("POST", "/api/v1/orders", 201, 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", "status", "201"); err != nil || got != 1 {
		t.Fatalf("expected one 201 request, got %f (%v)", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "http_request_duration_seconds", "route", "/api/v1/orders"); err != nil || got <= 0 {
		t.Fatalf("expected positive duration sum, got %f (%v)", got, err)
	}
}

func TestOutboxCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewOutbox(reg)

	o.Event(OutcomePublished, "order")
	o.Event(OutcomePublished, "order")
	o.Event(OutcomeParked, "withdrawal")
	o.Batch(3)
	o.Batch(0)
	o.Purged(40)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_events_total", "outcome", OutcomePublished); err != nil || got != 2 {
		t.Fatalf("expected two published rows, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_events_total", "aggregate", "withdrawal"); err != nil || got != 1 {
		t.Fatalf("expected one parked withdrawal, got %f (%v)", got, err)
	}
	if got := plainCounter(t, mfs, "outbox_rows_purged_total"); got != 40 {
		t.Fatalf("expected 40 purged rows, got %f", got)
	}
	batch := findMetricFamily(mfs, "outbox_batch_rows")
	if batch == nil || batch.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
		t.Fatalf("expected a single batch observation")
	}
}

func TestNilOutboxIsNoop(t *testing.T) {
	var o *Outbox
	o.Event(OutcomeRetry, "order")
	o.Batch(5)
	o.Purged(1)
	if NewOutbox(nil) != nil {
		t.Fatal("expected nil recorder without a registerer")
	}
}

func plainCounter(t *testing.T, mfs []*dto.MetricFamily, name string) float64 {
	t.Helper()
	mf := findMetricFamily(mfs, name)
	if mf == nil || len(mf.GetMetric()) == 0 {
		t.Fatalf("metric %q not found", name)
	}
	return mf.GetMetric()[0].GetCounter().GetValue()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
