package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	"github.com/angelmondragon/fulfillment-backend/pkg/types"
)

// Order is the fulfillment aggregate. DeliveryStatus, ProductionStatus and the
// final totals are derived from Items and must only change through a refresh.
type Order struct {
	ID                    uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber           int64                     `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	UserID                uuid.UUID                 `gorm:"column:user_id;type:uuid;not null"`
	Notes                 *string                   `gorm:"column:notes"`
	AttachmentRef         *string                   `gorm:"column:attachment_ref"`
	DeliveryStatus        enums.OrderDeliveryStatus `gorm:"column:delivery_status;type:text;not null"`
	ProductionStatus      enums.ProductionStatus    `gorm:"column:production_status;type:text;not null"`
	InitialWholesaleTotal decimal.Decimal           `gorm:"column:initial_wholesale_total;type:numeric(12,2);not null"`
	InitialRetailTotal    decimal.Decimal           `gorm:"column:initial_retail_total;type:numeric(12,2);not null"`
	FinalWholesaleTotal   decimal.Decimal           `gorm:"column:final_wholesale_total;type:numeric(12,2);not null"`
	FinalRetailTotal      decimal.Decimal           `gorm:"column:final_retail_total;type:numeric(12,2);not null"`
	DriverID              *uuid.UUID                `gorm:"column:driver_id;type:uuid"`
	ClaimedAt             *time.Time                `gorm:"column:claimed_at"`
	DeliveryOutcome       *enums.DeliveryOutcome    `gorm:"column:delivery_outcome;type:text"`
	DeliveredAt           *time.Time                `gorm:"column:delivered_at"`
	DeliveryNotes         *string                   `gorm:"column:delivery_notes"`
	CanceledAt            *time.Time                `gorm:"column:canceled_at"`
	CanceledBy            *uuid.UUID                `gorm:"column:canceled_by;type:uuid"`
	Items                 []OrderItem               `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT"`
	CreatedAt             time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) IsCanceled() bool {
	return o != nil && o.CanceledAt != nil
}

func (o *Order) IsClaimed() bool {
	return o != nil && o.DriverID != nil
}

// Item returns a pointer into Items so callers can mutate in place.
func (o *Order) Item(id uuid.UUID) *OrderItem {
	if o == nil {
		return nil
	}
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i]
		}
	}
	return nil
}

func (o *Order) InitialTotals() types.TotalsSnapshot {
	return types.TotalsSnapshot{Wholesale: o.InitialWholesaleTotal, Retail: o.InitialRetailTotal}
}

func (o *Order) FinalTotals() types.TotalsSnapshot {
	return types.TotalsSnapshot{Wholesale: o.FinalWholesaleTotal, Retail: o.FinalRetailTotal}
}
