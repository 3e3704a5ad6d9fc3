package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	"github.com/angelmondragon/fulfillment-backend/pkg/types"
)

// InitialTotals sums the placement snapshots of items.
func InitialTotals(items []models.OrderItem) types.TotalsSnapshot {
	totals := types.TotalsSnapshot{Wholesale: decimal.Zero, Retail: decimal.Zero}
	for i := range items {
		totals.Wholesale = totals.Wholesale.Add(items[i].WholesaleTotalPrice)
		totals.Retail = totals.Retail.Add(items[i].RetailTotalPrice)
	}
	return totals
}

// FinalTotals is what the order is expected to bill given its current state.
// A cancelled order bills nothing. Items cancelled in production bill nothing.
// A whole-order DELIVERED outcome bills every remaining item in full. Items
// with a delivery result bill their delivered quantity, items still awaiting
// delivery bill their full quantity.
func FinalTotals(order *models.Order) types.TotalsSnapshot {
	totals := types.TotalsSnapshot{Wholesale: decimal.Zero, Retail: decimal.Zero}
	if order == nil || order.IsCanceled() {
		return totals
	}
	deliveredWhole := order.DeliveryOutcome != nil && *order.DeliveryOutcome == enums.DeliveryOutcomeDelivered
	for i := range order.Items {
		item := &order.Items[i]
		qty := billableQuantity(item, deliveredWhole)
		if qty == 0 {
			continue
		}
		if qty == item.Quantity {
			totals.Wholesale = totals.Wholesale.Add(item.WholesaleTotalPrice)
			totals.Retail = totals.Retail.Add(item.RetailTotalPrice)
			continue
		}
		units := decimal.NewFromInt(int64(qty))
		totals.Wholesale = totals.Wholesale.Add(item.WholesaleUnitPrice.Mul(units).Round(moneyPlaces))
		totals.Retail = totals.Retail.Add(item.RetailUnitPrice.Mul(units).Round(moneyPlaces))
	}
	return totals
}

func billableQuantity(item *models.OrderItem, deliveredWhole bool) int {
	if item.ProductionStatus == enums.ProductionStatusCancelled {
		return 0
	}
	if deliveredWhole {
		return item.Quantity
	}
	switch item.DeliveryStatus {
	case enums.ItemDeliveryStatusDelivered, enums.ItemDeliveryStatusPartial, enums.ItemDeliveryStatusFailed:
		return item.DeliveredQuantity
	default:
		return item.Quantity
	}
}
