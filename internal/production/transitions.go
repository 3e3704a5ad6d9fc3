package production

import (
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-backend/pkg/errors"
)

// Action names a kitchen transition on an item.
type Action string

const (
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
	ActionPartial  Action = "partial"
)

func (a Action) IsValid() bool {
	return a == ActionComplete || a == ActionCancel || a == ActionPartial
}

// apply advances item by action. Items already COMPLETED or CANCELLED reject
// every action; status never moves backwards.
func apply(item *models.OrderItem, action Action, amount int) error {
	if action == ActionPartial && amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than 0").
			WithDetails(map[string]string{"amount": "must be greater than 0"})
	}
	if item.ProductionStatus.IsTerminal() {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "item production is already %s", item.ProductionStatus).
			WithDetails(map[string]any{
				"item_id":           item.ID.String(),
				"production_status": item.ProductionStatus,
				"produced_quantity": item.ProducedQuantity,
			})
	}

	switch action {
	case ActionComplete:
		item.ProductionStatus = enums.ProductionStatusCompleted
		item.ProducedQuantity = item.Quantity
	case ActionCancel:
		// cancelled items count as fully accounted for
		item.ProductionStatus = enums.ProductionStatusCancelled
		item.ProducedQuantity = item.Quantity
	case ActionPartial:
		item.ProducedQuantity = min(item.Quantity, item.ProducedQuantity+amount)
		if item.ProducedQuantity == item.Quantity {
			item.ProductionStatus = enums.ProductionStatusCompleted
		} else {
			item.ProductionStatus = enums.ProductionStatusPartiallyCompleted
		}
	default:
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown production action %q", action)
	}
	return nil
}
