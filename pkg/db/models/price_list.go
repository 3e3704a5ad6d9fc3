package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
)

// PriceList overrides option pricing for one basis, optionally scoped to a
// distributor. At most one default list exists per type.
type PriceList struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string           `gorm:"column:name;not null"`
	Type          enums.PriceBasis `gorm:"column:type;type:text;not null"`
	DistributorID *uuid.UUID       `gorm:"column:distributor_id;type:uuid"`
	IsDefault     bool             `gorm:"column:is_default;not null"`
	Items         []PriceListItem  `gorm:"foreignKey:PriceListID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Entry returns the override for optionItemID, if any.
func (p *PriceList) Entry(optionItemID uuid.UUID) (PriceListItem, bool) {
	if p == nil {
		return PriceListItem{}, false
	}
	for _, item := range p.Items {
		if item.OptionItemID == optionItemID {
			return item, true
		}
	}
	return PriceListItem{}, false
}

// PriceListItem is unique per (price_list_id, option_item_id). Null columns
// mean "use the option's own value".
type PriceListItem struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PriceListID  uuid.UUID           `gorm:"column:price_list_id;type:uuid;not null"`
	OptionItemID uuid.UUID           `gorm:"column:option_item_id;type:uuid;not null"`
	Price        decimal.NullDecimal `gorm:"column:price;type:numeric(12,2)"`
	Multiplier   decimal.NullDecimal `gorm:"column:multiplier;type:numeric(8,4)"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
