package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-backend/internal/pricing"
	"github.com/angelmondragon/fulfillment-backend/internal/status"
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-backend/pkg/errors"
	"github.com/angelmondragon/fulfillment-backend/pkg/outbox"
	"github.com/angelmondragon/fulfillment-backend/pkg/outbox/payloads"
)

// StatusChange captures the derived statuses before and after a refresh.
type StatusChange struct {
	PreviousDelivery   enums.OrderDeliveryStatus
	PreviousProduction enums.ProductionStatus
	Delivery           enums.OrderDeliveryStatus
	Production         enums.ProductionStatus
}

func (c StatusChange) Changed() bool {
	return c.PreviousDelivery != c.Delivery || c.PreviousProduction != c.Production
}

// Refresh recomputes every derived field of order from its items: both
// statuses and the final totals. Initial totals are left alone.
func Refresh(order *models.Order) StatusChange {
	change := StatusChange{
		PreviousDelivery:   order.DeliveryStatus,
		PreviousProduction: order.ProductionStatus,
	}
	derived := status.Derive(order)
	order.DeliveryStatus = derived.Delivery
	order.ProductionStatus = derived.Production

	final := pricing.FinalTotals(order)
	order.FinalWholesaleTotal = final.Wholesale
	order.FinalRetailTotal = final.Retail

	change.Delivery = derived.Delivery
	change.Production = derived.Production
	return change
}

// CheckItem verifies the quantity bounds every item must hold.
func CheckItem(item *models.OrderItem) error {
	if item.ProducedQuantity < 0 || item.ProducedQuantity > item.Quantity ||
		item.DeliveredQuantity < 0 || item.DeliveredQuantity > item.Quantity {
		return pkgerrors.New(pkgerrors.CodeInternal, "item quantity out of bounds").
			WithDetails(map[string]any{
				"item_id":            item.ID.String(),
				"quantity":           item.Quantity,
				"produced_quantity":  item.ProducedQuantity,
				"delivered_quantity": item.DeliveredQuantity,
			})
	}
	return nil
}

// StateDetails describes the current order state for conflict errors.
func StateDetails(order *models.Order) map[string]any {
	details := map[string]any{
		"order_id":          order.ID.String(),
		"delivery_status":   order.DeliveryStatus,
		"production_status": order.ProductionStatus,
	}
	if order.DriverID != nil {
		details["driver_id"] = order.DriverID.String()
	}
	if order.DeliveryOutcome != nil {
		details["delivery_outcome"] = *order.DeliveryOutcome
	}
	return details
}

// EmitStatusChange queues order.status_changed when change altered a status.
func EmitStatusChange(ctx context.Context, emitter outbox.Emitter, tx *gorm.DB, order *models.Order, change StatusChange, actor *outbox.ActorRef) error {
	if !change.Changed() {
		return nil
	}
	return emitter.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:                  order.ID,
			PreviousDeliveryStatus:   change.PreviousDelivery,
			DeliveryStatus:           change.Delivery,
			PreviousProductionStatus: change.PreviousProduction,
			ProductionStatus:         change.Production,
		},
	})
}
