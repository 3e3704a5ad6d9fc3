package delivery

import (
	"github.com/angelmondragon/fulfillment-backend/internal/orders"
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-backend/pkg/errors"
)

// Action names a driver transition.
type Action string

const (
	ActionOutcome       Action = "outcome"
	ActionPartial       Action = "partial"
	ActionCannotDeliver Action = "cannot_deliver"
)

func (a Action) operation() string {
	switch a {
	case ActionOutcome:
		return "delivery_outcome"
	case ActionPartial:
		return "delivery_partial"
	default:
		return "delivery_cannot_deliver"
	}
}

func itemConflict(item *models.OrderItem, message string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, message).
		WithDetails(map[string]any{
			"item_id":            item.ID.String(),
			"delivery_status":    item.DeliveryStatus,
			"delivered_quantity": item.DeliveredQuantity,
			"production_status":  item.ProductionStatus,
			"produced_quantity":  item.ProducedQuantity,
		})
}

// deliverPartial adds amount to the delivered quantity, capped at the
// ordered quantity. With withinProduced set, deliveries may not exceed what
// the kitchen produced and cancelled production cannot be delivered.
func deliverPartial(item *models.OrderItem, amount int, withinProduced bool) error {
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than 0").
			WithDetails(map[string]string{"amount": "must be greater than 0"})
	}
	if item.DeliveryStatus.IsTerminal() {
		return itemConflict(item, "item delivery is already "+item.DeliveryStatus.String())
	}
	delivered := min(item.Quantity, item.DeliveredQuantity+amount)
	if withinProduced {
		if item.ProductionStatus == enums.ProductionStatusCancelled {
			return itemConflict(item, "item production was cancelled")
		}
		if delivered > item.ProducedQuantity {
			return itemConflict(item, "cannot deliver more than was produced")
		}
	}

	item.DeliveredQuantity = delivered
	if delivered == item.Quantity {
		item.DeliveryStatus = enums.ItemDeliveryStatusDelivered
	} else {
		item.DeliveryStatus = enums.ItemDeliveryStatusPartial
	}
	return nil
}

// markUndeliverable fails the item and keeps whatever was delivered so far.
func markUndeliverable(item *models.OrderItem) error {
	if item.DeliveryStatus.IsTerminal() {
		return itemConflict(item, "item delivery is already "+item.DeliveryStatus.String())
	}
	item.DeliveryStatus = enums.ItemDeliveryStatusFailed
	return nil
}

// checkDeliverable rejects orders that no longer take delivery updates.
func checkDeliverable(order *models.Order) error {
	switch {
	case order.IsCanceled():
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled").
			WithDetails(orders.StateDetails(order))
	case order.DeliveryOutcome != nil:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order delivery outcome already recorded").
			WithDetails(orders.StateDetails(order))
	case !order.IsClaimed():
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order has not been claimed").
			WithDetails(orders.StateDetails(order))
	}
	return nil
}
