package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
)

// Product is catalog reference data. Orders reference it by id and snapshot
// prices, so edits never reach placed orders.
type Product struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string             `gorm:"column:name;not null"`
	Unit         enums.ProductUnit  `gorm:"column:unit;type:text;not null"`
	ProductGroup enums.ProductGroup `gorm:"column:product_group;type:text;not null"`
	BasePrice    decimal.Decimal    `gorm:"column:base_price;type:numeric(12,2);not null"`
	OptionGroups []OptionGroup      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// OptionGroup is an ordered set of choices on a product.
type OptionGroup struct {
	ID            uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID    `gorm:"column:product_id;type:uuid;not null"`
	Name          string       `gorm:"column:name;not null"`
	IsRequired    bool         `gorm:"column:is_required;not null"`
	AllowMultiple bool         `gorm:"column:allow_multiple;not null"`
	Position      int          `gorm:"column:position;not null"`
	Items         []OptionItem `gorm:"foreignKey:OptionGroupID;constraint:OnDelete:CASCADE"`
}

// OptionItem adjusts the base unit price additively (PriceAdjustment) and
// multiplicatively (Multiplier).
type OptionItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OptionGroupID   uuid.UUID       `gorm:"column:option_group_id;type:uuid;not null"`
	Name            string          `gorm:"column:name;not null"`
	PriceAdjustment decimal.Decimal `gorm:"column:price_adjustment;type:numeric(12,2);not null"`
	Multiplier      decimal.Decimal `gorm:"column:multiplier;type:numeric(8,4);not null"`
	Position        int             `gorm:"column:position;not null"`
}
