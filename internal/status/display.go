package status

import (
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
)

// Display is the single user-facing classification of an order.
type Display struct {
	Status   enums.DisplayStatus `json:"status"`
	Label    string              `json:"label"`
	Severity enums.Severity      `json:"severity"`
}

var displays = map[enums.DisplayStatus]Display{
	enums.DisplayStatusCancelled:               {enums.DisplayStatusCancelled, "Cancelled", enums.SeverityError},
	enums.DisplayStatusDeliveryFailed:          {enums.DisplayStatusDeliveryFailed, "Delivery failed", enums.SeverityError},
	enums.DisplayStatusDelivered:               {enums.DisplayStatusDelivered, "Delivered", enums.SeveritySuccess},
	enums.DisplayStatusPartiallyDelivered:      {enums.DisplayStatusPartiallyDelivered, "Partially delivered", enums.SeverityWarning},
	enums.DisplayStatusItemsPartiallyFulfilled: {enums.DisplayStatusItemsPartiallyFulfilled, "Items partially fulfilled", enums.SeverityWarning},
	enums.DisplayStatusItemsUnavailable:        {enums.DisplayStatusItemsUnavailable, "Items unavailable", enums.SeverityWarning},
	enums.DisplayStatusReadyForDelivery:        {enums.DisplayStatusReadyForDelivery, "Ready for delivery", enums.SeverityInfo},
	enums.DisplayStatusPending:                 {enums.DisplayStatusPending, "Pending", enums.SeverityNeutral},
}

// Classify maps the order's stored statuses and item production states to
// one display status.
func Classify(delivery enums.OrderDeliveryStatus, production enums.ProductionStatus, items []enums.ProductionStatus) Display {
	switch {
	case delivery == enums.OrderDeliveryStatusCancelled:
		return displays[enums.DisplayStatusCancelled]
	case delivery == enums.OrderDeliveryStatusFailed:
		return displays[enums.DisplayStatusDeliveryFailed]
	case delivery == enums.OrderDeliveryStatusDelivered:
		return displays[enums.DisplayStatusDelivered]
	case delivery == enums.OrderDeliveryStatusPartiallyDelivered:
		return displays[enums.DisplayStatusPartiallyDelivered]
	case containsStatus(items, enums.ProductionStatusPartiallyCompleted):
		return displays[enums.DisplayStatusItemsPartiallyFulfilled]
	case containsStatus(items, enums.ProductionStatusCancelled):
		return displays[enums.DisplayStatusItemsUnavailable]
	case delivery == enums.OrderDeliveryStatusReadyForDelivery:
		return displays[enums.DisplayStatusReadyForDelivery]
	default:
		return displays[enums.DisplayStatusPending]
	}
}

// ClassifyOrder is Classify over a loaded order.
func ClassifyOrder(order *models.Order) Display {
	items := make([]enums.ProductionStatus, 0, len(order.Items))
	for i := range order.Items {
		items = append(items, order.Items[i].ProductionStatus)
	}
	return Classify(order.DeliveryStatus, order.ProductionStatus, items)
}

func containsStatus(items []enums.ProductionStatus, want enums.ProductionStatus) bool {
	for _, s := range items {
		if s == want {
			return true
		}
	}
	return false
}
