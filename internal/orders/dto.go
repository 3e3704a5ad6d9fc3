package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-backend/internal/status"
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	"github.com/angelmondragon/fulfillment-backend/pkg/types"
)

// PlaceOrderInput is the payload of placeOrder.
type PlaceOrderInput struct {
	Items          []PlaceOrderItemInput `json:"items" validate:"required,min=1,dive"`
	Notes          *string               `json:"notes,omitempty" validate:"omitempty,max=2000"`
	AttachmentRef  *string               `json:"attachment_ref,omitempty" validate:"omitempty,max=512"`
	IdempotencyKey string                `json:"idempotency_key,omitempty" validate:"omitempty,max=128"`
}

// PlaceOrderItemInput is one requested line.
type PlaceOrderItemInput struct {
	ProductID         uuid.UUID   `json:"product_id" validate:"required"`
	Quantity          int         `json:"quantity" validate:"gt=0"`
	SelectedOptionIDs []uuid.UUID `json:"selected_option_ids"`
}

// OrderDetail is an order as a specific viewer sees it.
type OrderDetail struct {
	Order      *models.Order    `json:"order"`
	Display    status.Display   `json:"display"`
	PriceBasis enums.PriceBasis `json:"price_basis"`
	Items      []ItemView       `json:"items"`
	Initial    decimal.Decimal  `json:"initial_total"`
	Final      decimal.Decimal  `json:"final_total"`
}

// ItemView is an order item priced in the viewer's basis.
type ItemView struct {
	ID                uuid.UUID                `json:"id"`
	ProductID         uuid.UUID                `json:"product_id"`
	ProductName       string                   `json:"product_name,omitempty"`
	Quantity          int                      `json:"quantity"`
	ProductionStatus  enums.ProductionStatus   `json:"production_status"`
	ProducedQuantity  int                      `json:"produced_quantity"`
	DeliveryStatus    enums.ItemDeliveryStatus `json:"delivery_status"`
	DeliveredQuantity int                      `json:"delivered_quantity"`
	Price             types.PriceAmount        `json:"price"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

func newOrderDetail(order *models.Order, basis enums.PriceBasis) *OrderDetail {
	items := make([]ItemView, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		view := ItemView{
			ID:                item.ID,
			ProductID:         item.ProductID,
			Quantity:          item.Quantity,
			ProductionStatus:  item.ProductionStatus,
			ProducedQuantity:  item.ProducedQuantity,
			DeliveryStatus:    item.DeliveryStatus,
			DeliveredQuantity: item.DeliveredQuantity,
			Price:             item.Snapshot().Resolve(basis),
			UpdatedAt:         item.UpdatedAt,
		}
		if item.Product != nil {
			view.ProductName = item.Product.Name
		}
		items = append(items, view)
	}
	return &OrderDetail{
		Order:      order,
		Display:    status.ClassifyOrder(order),
		PriceBasis: basis,
		Items:      items,
		Initial:    order.InitialTotals().Resolve(basis),
		Final:      order.FinalTotals().Resolve(basis),
	}
}
