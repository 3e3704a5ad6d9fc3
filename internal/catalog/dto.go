package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
)

// CreateProductInput describes a product and its option tree.
type CreateProductInput struct {
	Name         string             `json:"name" validate:"required,notblank,max=200"`
	Unit         enums.ProductUnit  `json:"unit" validate:"required"`
	ProductGroup enums.ProductGroup `json:"product_group" validate:"required"`
	BasePrice    decimal.Decimal    `json:"base_price"`
	OptionGroups []OptionGroupInput `json:"option_groups" validate:"dive"`
}

type OptionGroupInput struct {
	Name          string            `json:"name" validate:"required,notblank"`
	IsRequired    bool              `json:"is_required"`
	AllowMultiple bool              `json:"allow_multiple"`
	Items         []OptionItemInput `json:"items" validate:"required,min=1,dive"`
}

type OptionItemInput struct {
	Name            string              `json:"name" validate:"required,notblank"`
	PriceAdjustment decimal.Decimal     `json:"price_adjustment"`
	Multiplier      decimal.NullDecimal `json:"multiplier"`
}

func (in CreateProductInput) toModel() *models.Product {
	product := &models.Product{
		Name:         strings.TrimSpace(in.Name),
		Unit:         in.Unit,
		ProductGroup: in.ProductGroup,
		BasePrice:    in.BasePrice,
	}
	for gi, g := range in.OptionGroups {
		group := models.OptionGroup{
			Name:          strings.TrimSpace(g.Name),
			IsRequired:    g.IsRequired,
			AllowMultiple: g.AllowMultiple,
			Position:      gi,
		}
		for ii, it := range g.Items {
			multiplier := decimal.NewFromInt(1)
			if it.Multiplier.Valid {
				multiplier = it.Multiplier.Decimal
			}
			group.Items = append(group.Items, models.OptionItem{
				Name:            strings.TrimSpace(it.Name),
				PriceAdjustment: it.PriceAdjustment,
				Multiplier:      multiplier,
				Position:        ii,
			})
		}
		product.OptionGroups = append(product.OptionGroups, group)
	}
	return product
}

// CreatePriceListInput names a new list. DistributorID scopes a WHOLESALE
// list to one distributor.
type CreatePriceListInput struct {
	Name          string           `json:"name" validate:"required,notblank,max=120"`
	Type          enums.PriceBasis `json:"type" validate:"required"`
	DistributorID *uuid.UUID       `json:"distributor_id"`
}

// SetPriceListItemInput overrides one option on a list. A null field keeps the
// option's own value.
type SetPriceListItemInput struct {
	PriceListID  uuid.UUID           `json:"price_list_id" validate:"required"`
	OptionItemID uuid.UUID           `json:"option_item_id" validate:"required"`
	Price        decimal.NullDecimal `json:"price"`
	Multiplier   decimal.NullDecimal `json:"multiplier"`
}
