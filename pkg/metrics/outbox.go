package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes an outbox row can reach in one publish attempt.
const (
	OutcomePublished = "published"
	OutcomeDuplicate = "duplicate"
	OutcomeRetry     = "retry"
	OutcomeParked    = "parked"
)

// Outbox records what the feed publisher does with each row. A nil *Outbox
// records nothing.
type Outbox struct {
	events *prometheus.CounterVec
	batch  prometheus.Histogram
	purged prometheus.Counter
}

func NewOutbox(reg prometheus.Registerer) *Outbox {
	if reg == nil {
		return nil
	}
	o := &Outbox{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_events_total",
			Help: "Outbox rows handled by the publisher, by outcome.",
		}, []string{"outcome", "aggregate"}),
		batch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "outbox_batch_rows",
			Help:    "Rows claimed per publisher batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outbox_rows_purged_total",
			Help: "Published rows removed after the retention window.",
		}),
	}
	reg.MustRegister(o.events, o.batch, o.purged)
	return o
}

func (o *Outbox) Event(outcome, aggregate string) {
	if o == nil {
		return
	}
	o.events.WithLabelValues(normalizeLabel(outcome), normalizeLabel(aggregate)).Inc()
}

func (o *Outbox) Batch(rows int) {
	if o == nil || rows == 0 {
		return
	}
	o.batch.Observe(float64(rows))
}

func (o *Outbox) Purged(rows int64) {
	if o == nil || rows <= 0 {
		return
	}
	o.purged.Add(float64(rows))
}
