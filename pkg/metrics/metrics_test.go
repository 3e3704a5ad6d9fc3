package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	pkgerrors "github.com/angelmondragon/fulfillment-backend/pkg/errors"
)

func TestFulfillmentMetricsExportsTransitionsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFulfillmentMetrics(reg)

	m.ObserveTransition("claim_order", nil)
	m.ObserveTransition("claim_order", pkgerrors.New(pkgerrors.CodeStateConflict, "already claimed"))
	m.IncClaimConflict()
	m.ObservePlacement(150 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "fulfillment_transitions_total", map[string]string{"operation": "claim_order", "result": "ok"}); err != nil {
		t.Fatalf("fetch ok: %v", err)
	} else if got != 1 {
		t.Fatalf("expected ok=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "fulfillment_transitions_total", map[string]string{"operation": "claim_order", "result": "state_conflict"}); err != nil {
		t.Fatalf("fetch conflict: %v", err)
	} else if got != 1 {
		t.Fatalf("expected state_conflict=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "fulfillment_claim_conflicts_total", nil); err != nil {
		t.Fatalf("fetch claim conflicts: %v", err)
	} else if got != 1 {
		t.Fatalf("expected claim conflicts=1, got %f", got)
	}
	if mf := findMetricFamily(mfs, "fulfillment_order_placement_duration_seconds"); mf == nil || mf.GetMetric()[0].GetHistogram().GetSampleSum() <= 0 {
		t.Fatalf("expected placement histogram sample")
	}
}

func TestOutboxPublisherMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxPublisherMetrics(reg)
	m.ObserveBatch("fulfillment-events", 250*time.Millisecond)
	m.IncEvent("fulfillment-events", "published")
	m.IncEvent("fulfillment-events", "published")
	m.IncEvent("fulfillment-events", "terminal")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "outbox_publisher_events_total", map[string]string{"result": "published"}); err != nil {
		t.Fatalf("fetch published: %v", err)
	} else if got != 2 {
		t.Fatalf("expected published=2, got %f", got)
	}
	mf := findMetricFamily(mfs, "outbox_publisher_batch_duration_seconds")
	if mf == nil || mf.GetMetric()[0].GetHistogram().GetSampleSum() <= 0 {
		t.Fatalf("expected batch duration sum > 0")
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var f *FulfillmentMetrics
	f.ObserveTransition("x", nil)
	f.IncClaimConflict()
	f.ObservePlacement(time.Second)

	unregistered := NewOutboxPublisherMetrics(nil)
	unregistered.ObserveBatch("", time.Second)
	unregistered.IncEvent("", "")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	for name, value := range want {
		found := false
		for _, label := range pairs {
			if label.GetName() == name && label.GetValue() == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
