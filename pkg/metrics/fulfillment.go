package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	pkgerrors "github.com/angelmondragon/fulfillment-backend/pkg/errors"
)

const resultOK = "ok"

// FulfillmentMetrics counts order/item transitions by operation and outcome.
type FulfillmentMetrics struct {
	transitions    *prometheus.CounterVec
	claimConflicts prometheus.Counter
	placement      prometheus.Histogram
}

// NewFulfillmentMetrics registers the fulfillment collectors on reg. A nil
// registerer yields a no-op recorder.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_transitions_total",
		Help: "Fulfillment operations by operation and result.",
	}, []string{"operation", "result"})
	claimConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fulfillment_claim_conflicts_total",
		Help: "Claims rejected because the order was already taken or no longer claimable.",
	})
	placement := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fulfillment_order_placement_duration_seconds",
		Help:    "Duration of order placement including pricing and persistence.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(transitions, claimConflicts, placement)
	return &FulfillmentMetrics{
		transitions:    transitions,
		claimConflicts: claimConflicts,
		placement:      placement,
	}
}

// ObserveTransition records the result of operation; err decides the result label.
func (m *FulfillmentMetrics) ObserveTransition(operation string, err error) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(operation), resultLabel(err)).Inc()
}

func (m *FulfillmentMetrics) IncClaimConflict() {
	if m == nil || m.claimConflicts == nil {
		return
	}
	m.claimConflicts.Inc()
}

func (m *FulfillmentMetrics) ObservePlacement(duration time.Duration) {
	if m == nil || m.placement == nil {
		return
	}
	m.placement.Observe(duration.Seconds())
}

func resultLabel(err error) string {
	if err == nil {
		return resultOK
	}
	return strings.ToLower(string(pkgerrors.CodeOf(err)))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
