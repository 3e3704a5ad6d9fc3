package status

import (
	"testing"

	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
)

func TestClassifyPrecedence(t *testing.T) {
	partial := enums.ProductionStatusPartiallyCompleted
	cancelled := enums.ProductionStatusCancelled
	completed := enums.ProductionStatusCompleted

	cases := []struct {
		name       string
		delivery   enums.OrderDeliveryStatus
		production enums.ProductionStatus
		items      []enums.ProductionStatus
		want       enums.DisplayStatus
		severity   enums.Severity
	}{
		{"cancelled", enums.OrderDeliveryStatusCancelled, cancelled, []enums.ProductionStatus{partial}, enums.DisplayStatusCancelled, enums.SeverityError},
		{"failed", enums.OrderDeliveryStatusFailed, completed, []enums.ProductionStatus{cancelled}, enums.DisplayStatusDeliveryFailed, enums.SeverityError},
		{"delivered", enums.OrderDeliveryStatusDelivered, completed, []enums.ProductionStatus{completed}, enums.DisplayStatusDelivered, enums.SeveritySuccess},
		{"partially delivered", enums.OrderDeliveryStatusPartiallyDelivered, completed, []enums.ProductionStatus{completed}, enums.DisplayStatusPartiallyDelivered, enums.SeverityWarning},
		{"items partially fulfilled", enums.OrderDeliveryStatusPending, partial, []enums.ProductionStatus{partial, cancelled}, enums.DisplayStatusItemsPartiallyFulfilled, enums.SeverityWarning},
		{"items unavailable", enums.OrderDeliveryStatusReadyForDelivery, partial, []enums.ProductionStatus{completed, cancelled}, enums.DisplayStatusItemsUnavailable, enums.SeverityWarning},
		{"every item unavailable", enums.OrderDeliveryStatusPending, cancelled, []enums.ProductionStatus{cancelled, cancelled}, enums.DisplayStatusItemsUnavailable, enums.SeverityWarning},
		{"ready", enums.OrderDeliveryStatusReadyForDelivery, completed, []enums.ProductionStatus{completed}, enums.DisplayStatusReadyForDelivery, enums.SeverityInfo},
		{"pending", enums.OrderDeliveryStatusPending, enums.ProductionStatusPending, []enums.ProductionStatus{enums.ProductionStatusPending}, enums.DisplayStatusPending, enums.SeverityNeutral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.delivery, tc.production, tc.items)
			if got.Status != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got.Status)
			}
			if got.Severity != tc.severity {
				t.Fatalf("expected severity %s, got %s", tc.severity, got.Severity)
			}
			if got.Label == "" {
				t.Fatalf("expected a label")
			}
		})
	}
}

func TestClassifyOrderWithEveryItemCancelledInProduction(t *testing.T) {
	order := &models.Order{Items: []models.OrderItem{
		item(2, enums.ProductionStatusCancelled, 2, enums.ItemDeliveryStatusReadyForDelivery, 0),
		item(3, enums.ProductionStatusCancelled, 3, enums.ItemDeliveryStatusReadyForDelivery, 0),
	}}
	derived := Derive(order)
	if derived.Production != enums.ProductionStatusCancelled {
		t.Fatalf("expected production CANCELLED, got %s", derived.Production)
	}
	if derived.Delivery != enums.OrderDeliveryStatusPending {
		t.Fatalf("expected delivery PENDING, got %s", derived.Delivery)
	}
	order.DeliveryStatus = derived.Delivery
	order.ProductionStatus = derived.Production

	if got := ClassifyOrder(order).Status; got != enums.DisplayStatusItemsUnavailable {
		t.Fatalf("expected %s, got %s", enums.DisplayStatusItemsUnavailable, got)
	}
}
