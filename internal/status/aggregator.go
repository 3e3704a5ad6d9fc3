// Package status derives order-level state from item-level state. It is the
// only place order statuses and their display classification are computed.
package status

import (
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
)

// Derived is the order-level state computed from an order and its items.
type Derived struct {
	Delivery   enums.OrderDeliveryStatus
	Production enums.ProductionStatus
}

// Derive computes both order-level statuses. A cancelled order is CANCELLED
// on both axes regardless of its items.
func Derive(order *models.Order) Derived {
	if order.IsCanceled() {
		return Derived{
			Delivery:   enums.OrderDeliveryStatusCancelled,
			Production: enums.ProductionStatusCancelled,
		}
	}
	return Derived{
		Delivery:   DeliveryStatus(order),
		Production: ProductionStatus(order.Items),
	}
}

// ProductionStatus aggregates item production states.
func ProductionStatus(items []models.OrderItem) enums.ProductionStatus {
	if len(items) == 0 {
		return enums.ProductionStatusPending
	}
	var completed, cancelled, pending int
	for i := range items {
		switch items[i].ProductionStatus {
		case enums.ProductionStatusCompleted:
			completed++
		case enums.ProductionStatusCancelled:
			cancelled++
		case enums.ProductionStatusPending:
			pending++
		}
	}
	switch {
	case completed == len(items):
		return enums.ProductionStatusCompleted
	case cancelled == len(items):
		return enums.ProductionStatusCancelled
	case pending < len(items):
		return enums.ProductionStatusPartiallyCompleted
	default:
		return enums.ProductionStatusPending
	}
}

// DeliveryStatus evaluates the order delivery precedence, first match wins:
// CANCELLED, DELIVERED, FAILED, PARTIALLY_DELIVERED, READY_FOR_DELIVERY,
// PENDING.
func DeliveryStatus(order *models.Order) enums.OrderDeliveryStatus {
	if order.IsCanceled() {
		return enums.OrderDeliveryStatusCancelled
	}
	items := order.Items
	outcome := order.DeliveryOutcome

	var delivered, failed, progressed int
	for i := range items {
		switch items[i].DeliveryStatus {
		case enums.ItemDeliveryStatusDelivered:
			delivered++
			progressed++
		case enums.ItemDeliveryStatusPartial:
			progressed++
		case enums.ItemDeliveryStatusFailed:
			failed++
		}
	}

	if outcome != nil && *outcome == enums.DeliveryOutcomeDelivered {
		return enums.OrderDeliveryStatusDelivered
	}
	if len(items) > 0 && delivered == len(items) {
		return enums.OrderDeliveryStatusDelivered
	}
	if outcome != nil && *outcome == enums.DeliveryOutcomeFailed {
		return enums.OrderDeliveryStatusFailed
	}
	if len(items) > 0 && failed == len(items) {
		return enums.OrderDeliveryStatusFailed
	}
	if progressed > 0 {
		return enums.OrderDeliveryStatusPartiallyDelivered
	}
	if readyForDelivery(items) {
		return enums.OrderDeliveryStatusReadyForDelivery
	}
	return enums.OrderDeliveryStatusPending
}

// readyForDelivery reports whether production has settled every item and at
// least one has something to deliver.
func readyForDelivery(items []models.OrderItem) bool {
	if len(items) == 0 {
		return false
	}
	anyCompleted := false
	for i := range items {
		s := items[i].ProductionStatus
		if !s.IsTerminal() {
			return false
		}
		if s == enums.ProductionStatusCompleted {
			anyCompleted = true
		}
	}
	return anyCompleted
}
