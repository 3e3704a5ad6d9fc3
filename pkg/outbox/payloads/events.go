package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
)

// OrderPlacedEvent announces a new order with its placement totals.
type OrderPlacedEvent struct {
	OrderID               uuid.UUID       `json:"order_id"`
	OrderNumber           int64           `json:"order_number"`
	UserID                uuid.UUID       `json:"user_id"`
	ItemCount             int             `json:"item_count"`
	InitialWholesaleTotal decimal.Decimal `json:"initial_wholesale_total"`
	InitialRetailTotal    decimal.Decimal `json:"initial_retail_total"`
}

// OrderClaimedEvent is emitted when a driver takes an order from the pool.
type OrderClaimedEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	DriverID  uuid.UUID `json:"driver_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// OrderCanceledEvent is emitted when an admin cancels an eligible order.
type OrderCanceledEvent struct {
	OrderID        uuid.UUID                 `json:"order_id"`
	CanceledBy     uuid.UUID                 `json:"canceled_by"`
	CanceledAt     time.Time                 `json:"canceled_at"`
	PreviousStatus enums.OrderDeliveryStatus `json:"previous_status"`
	Reason         string                    `json:"reason"`
}

// OrderDeliveryOutcomeEvent records a whole-order delivery result.
type OrderDeliveryOutcomeEvent struct {
	OrderID     uuid.UUID             `json:"order_id"`
	DriverID    uuid.UUID             `json:"driver_id"`
	Outcome     enums.DeliveryOutcome `json:"outcome"`
	DeliveredAt time.Time             `json:"delivered_at"`
	Notes       string                `json:"notes,omitempty"`
}

// OrderStatusChangedEvent carries derived order status transitions.
type OrderStatusChangedEvent struct {
	OrderID                  uuid.UUID                 `json:"order_id"`
	PreviousDeliveryStatus   enums.OrderDeliveryStatus `json:"previous_delivery_status"`
	DeliveryStatus           enums.OrderDeliveryStatus `json:"delivery_status"`
	PreviousProductionStatus enums.ProductionStatus    `json:"previous_production_status"`
	ProductionStatus         enums.ProductionStatus    `json:"production_status"`
}

// ItemProductionRecordedEvent reports a kitchen transition on an item.
type ItemProductionRecordedEvent struct {
	OrderID          uuid.UUID              `json:"order_id"`
	ItemID           uuid.UUID              `json:"item_id"`
	Action           string                 `json:"action"`
	ProductionStatus enums.ProductionStatus `json:"production_status"`
	ProducedQuantity int                    `json:"produced_quantity"`
	Quantity         int                    `json:"quantity"`
}

// ItemDeliveryRecordedEvent reports a driver transition on an item.
type ItemDeliveryRecordedEvent struct {
	OrderID           uuid.UUID                `json:"order_id"`
	ItemID            uuid.UUID                `json:"item_id"`
	Action            string                   `json:"action"`
	DeliveryStatus    enums.ItemDeliveryStatus `json:"delivery_status"`
	DeliveredQuantity int                      `json:"delivered_quantity"`
	Quantity          int                      `json:"quantity"`
}

// PriceListDefaultChangedEvent signals a new default list for a basis.
type PriceListDefaultChangedEvent struct {
	PriceListID uuid.UUID        `json:"price_list_id"`
	Type        enums.PriceBasis `json:"type"`
}
