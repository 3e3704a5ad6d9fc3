package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxPublisherMetrics records publisher batch timing and per-event results.
type OutboxPublisherMetrics struct {
	duration *prometheus.HistogramVec
	events   *prometheus.CounterVec
}

// NewOutboxPublisherMetrics registers the publisher metrics on the provided registerer.
func NewOutboxPublisherMetrics(reg prometheus.Registerer) *OutboxPublisherMetrics {
	if reg == nil {
		return &OutboxPublisherMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_publisher_batch_duration_seconds",
		Help:    "Duration of outbox publish batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publisher_events_total",
		Help: "Outbox rows processed by result (published, failed, terminal).",
	}, []string{"topic", "result"})
	reg.MustRegister(duration, events)
	return &OutboxPublisherMetrics{
		duration: duration,
		events:   events,
	}
}

// ObserveBatch records the duration of one publish batch.
func (o *OutboxPublisherMetrics) ObserveBatch(topic string, duration time.Duration) {
	if o == nil || o.duration == nil {
		return
	}
	o.duration.WithLabelValues(normalizeLabel(topic)).Observe(duration.Seconds())
}

// IncEvent counts one processed row.
func (o *OutboxPublisherMetrics) IncEvent(topic, result string) {
	if o == nil || o.events == nil {
		return
	}
	o.events.WithLabelValues(normalizeLabel(topic), normalizeLabel(result)).Inc()
}
