package ordertest

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-backend/internal/orders"
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
)

// NewProduct returns an option-less product of group priced at 10.
func NewProduct(group enums.ProductGroup) *models.Product {
	return &models.Product{
		ID:           uuid.New(),
		Name:         "Bolillo",
		Unit:         enums.ProductUnitPiece,
		ProductGroup: group,
		BasePrice:    decimal.NewFromInt(10),
	}
}

// NewOrder builds a freshly placed order for owner with one item of product
// per quantity. Wholesale prices are 8 per unit, retail 10.
func NewOrder(owner uuid.UUID, product *models.Product, quantities ...int) *models.Order {
	order := &models.Order{UserID: owner}
	for _, qty := range quantities {
		n := decimal.NewFromInt(int64(qty))
		order.Items = append(order.Items, models.OrderItem{
			ID:                  uuid.New(),
			ProductID:           product.ID,
			Product:             product,
			Quantity:            qty,
			ProductionStatus:    enums.ProductionStatusPending,
			DeliveryStatus:      enums.ItemDeliveryStatusReadyForDelivery,
			WholesaleUnitPrice:  decimal.NewFromInt(8),
			WholesaleTotalPrice: decimal.NewFromInt(8).Mul(n),
			RetailUnitPrice:     decimal.NewFromInt(10),
			RetailTotalPrice:    decimal.NewFromInt(10).Mul(n),
		})
		order.InitialWholesaleTotal = order.InitialWholesaleTotal.Add(decimal.NewFromInt(8).Mul(n))
		order.InitialRetailTotal = order.InitialRetailTotal.Add(decimal.NewFromInt(10).Mul(n))
	}
	orders.Refresh(order)
	return order
}

// Produced completes production of every item and refreshes order, leaving
// it READY_FOR_DELIVERY.
func Produced(order *models.Order) *models.Order {
	for i := range order.Items {
		order.Items[i].ProductionStatus = enums.ProductionStatusCompleted
		order.Items[i].ProducedQuantity = order.Items[i].Quantity
	}
	orders.Refresh(order)
	return order
}

// Claimed assigns driverID to order.
func Claimed(order *models.Order, driverID uuid.UUID) *models.Order {
	id := driverID
	order.DriverID = &id
	return order
}
