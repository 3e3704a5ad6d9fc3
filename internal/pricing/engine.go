// Package pricing computes item prices from catalog data and derives the
// settlement totals of an order. Everything here is pure.
package pricing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fulfillment-backend/pkg/errors"
	"github.com/angelmondragon/fulfillment-backend/pkg/types"
)

const moneyPlaces = 2

var one = decimal.NewFromInt(1)

// ItemPrice is the unit/total pair for one basis.
type ItemPrice = types.PriceAmount

// ComputeItemPrice prices quantity units of product with the selected options
// against an optional price list:
//
//	unit  = (basePrice + Σadjustment) × Πmultiplier
//	total = round(unit × quantity, 2)
//
// A list entry overrides the option's adjustment and multiplier field by
// field; a null entry field keeps the option's own value.
func ComputeItemPrice(product *models.Product, selectedOptionIDs []uuid.UUID, quantity int, list *models.PriceList) (ItemPrice, error) {
	if product == nil {
		return ItemPrice{}, pkgerrors.New(pkgerrors.CodeValidation, "product required")
	}
	if quantity <= 0 {
		return ItemPrice{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than 0")
	}
	options, err := ValidateSelection(product, selectedOptionIDs)
	if err != nil {
		return ItemPrice{}, err
	}

	adjustments := decimal.Zero
	multiplier := one
	for _, option := range options {
		adj, mult := optionTerms(option, list)
		adjustments = adjustments.Add(adj)
		multiplier = multiplier.Mul(mult)
	}

	unit := product.BasePrice.Add(adjustments).Mul(multiplier).Round(moneyPlaces)
	if unit.IsNegative() {
		unit = decimal.Zero
	}
	total := unit.Mul(decimal.NewFromInt(int64(quantity))).Round(moneyPlaces)
	return ItemPrice{Unit: unit, Total: total}, nil
}

func optionTerms(option models.OptionItem, list *models.PriceList) (decimal.Decimal, decimal.Decimal) {
	adj, mult := option.PriceAdjustment, option.Multiplier
	if entry, ok := list.Entry(option.ID); ok {
		if entry.Price.Valid {
			adj = entry.Price.Decimal
		}
		if entry.Multiplier.Valid {
			mult = entry.Multiplier.Decimal
		}
	}
	return adj, mult
}

// ValidateSelection checks selected ids against the product's option groups
// and returns the matching option items in selection order. Every problem is
// reported in one validation error.
func ValidateSelection(product *models.Product, selectedOptionIDs []uuid.UUID) ([]models.OptionItem, error) {
	type located struct {
		item  models.OptionItem
		group *models.OptionGroup
	}
	index := make(map[uuid.UUID]located)
	for gi := range product.OptionGroups {
		group := &product.OptionGroups[gi]
		for _, item := range group.Items {
			index[item.ID] = located{item: item, group: group}
		}
	}

	var errs error
	seen := make(map[uuid.UUID]struct{}, len(selectedOptionIDs))
	perGroup := make(map[uuid.UUID]int)
	options := make([]models.OptionItem, 0, len(selectedOptionIDs))
	for _, id := range selectedOptionIDs {
		if _, dup := seen[id]; dup {
			errs = multierr.Append(errs, fmt.Errorf("option %s selected more than once", id))
			continue
		}
		seen[id] = struct{}{}
		loc, ok := index[id]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("option %s does not belong to product", id))
			continue
		}
		perGroup[loc.group.ID]++
		options = append(options, loc.item)
	}

	for _, group := range product.OptionGroups {
		count := perGroup[group.ID]
		if group.IsRequired && count == 0 {
			errs = multierr.Append(errs, fmt.Errorf("option group %q requires a selection", group.Name))
		}
		if !group.AllowMultiple && count > 1 {
			errs = multierr.Append(errs, fmt.Errorf("option group %q allows a single selection", group.Name))
		}
	}

	if errs != nil {
		return nil, SelectionError(errs)
	}
	return options, nil
}

// SelectionError converts accumulated selection problems into a validation
// error listing each one.
func SelectionError(errs error) error {
	messages := []string{}
	for _, err := range multierr.Errors(errs) {
		messages = append(messages, err.Error())
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid option selection").
		WithDetails(map[string]any{"options": messages})
}
