package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/angelmondragon/fulfillment-backend/pkg/db/types"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	"github.com/angelmondragon/fulfillment-backend/pkg/types"
)

// OrderItem carries independent production and delivery sub-states. Quantity,
// SelectedOptionIDs and the four price columns are fixed at placement.
type OrderItem struct {
	ID                  uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID                `gorm:"column:order_id;type:uuid;not null"`
	ProductID           uuid.UUID                `gorm:"column:product_id;type:uuid;not null"`
	Product             *Product                 `gorm:"foreignKey:ProductID;references:ID"`
	Quantity            int                      `gorm:"column:quantity;not null"`
	SelectedOptionIDs   dbtypes.UUIDArray        `gorm:"column:selected_option_ids;type:uuid[];not null"`
	ProductionStatus    enums.ProductionStatus   `gorm:"column:production_status;type:text;not null"`
	ProducedQuantity    int                      `gorm:"column:produced_quantity;not null"`
	ProductionNotes     *string                  `gorm:"column:production_notes"`
	DeliveryStatus      enums.ItemDeliveryStatus `gorm:"column:delivery_status;type:text;not null"`
	DeliveredQuantity   int                      `gorm:"column:delivered_quantity;not null"`
	DeliveryNotes       *string                  `gorm:"column:delivery_notes"`
	WholesaleUnitPrice  decimal.Decimal          `gorm:"column:wholesale_unit_price;type:numeric(12,2);not null"`
	WholesaleTotalPrice decimal.Decimal          `gorm:"column:wholesale_total_price;type:numeric(12,2);not null"`
	RetailUnitPrice     decimal.Decimal          `gorm:"column:retail_unit_price;type:numeric(12,2);not null"`
	RetailTotalPrice    decimal.Decimal          `gorm:"column:retail_total_price;type:numeric(12,2);not null"`
	CreatedAt           time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *OrderItem) Snapshot() types.PriceSnapshot {
	return types.PriceSnapshot{
		Wholesale: types.PriceAmount{Unit: i.WholesaleUnitPrice, Total: i.WholesaleTotalPrice},
		Retail:    types.PriceAmount{Unit: i.RetailUnitPrice, Total: i.RetailTotalPrice},
	}
}
