package types

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
)

// PriceAmount is a unit/total pair computed for one price basis.
type PriceAmount struct {
	Unit  decimal.Decimal `json:"unit"`
	Total decimal.Decimal `json:"total"`
}

func (p PriceAmount) IsZero() bool {
	return p.Unit.IsZero() && p.Total.IsZero()
}

// PriceSnapshot holds both price bases of an order item as fixed at placement.
type PriceSnapshot struct {
	Wholesale PriceAmount `json:"wholesale"`
	Retail    PriceAmount `json:"retail"`
}

// For returns the amount stored for basis without fallback.
func (s PriceSnapshot) For(basis enums.PriceBasis) PriceAmount {
	if basis == enums.PriceBasisWholesale {
		return s.Wholesale
	}
	return s.Retail
}

// Resolve returns the amount for basis, falling back to the other basis when
// the requested one was never populated (rows written before dual pricing).
func (s PriceSnapshot) Resolve(basis enums.PriceBasis) PriceAmount {
	amount := s.For(basis)
	if amount.IsZero() {
		if other := s.For(basis.Other()); !other.IsZero() {
			return other
		}
	}
	return amount
}

// TotalsSnapshot holds order-level totals for both price bases.
type TotalsSnapshot struct {
	Wholesale decimal.Decimal `json:"wholesale"`
	Retail    decimal.Decimal `json:"retail"`
}

func (t TotalsSnapshot) Resolve(basis enums.PriceBasis) decimal.Decimal {
	primary, fallback := t.Retail, t.Wholesale
	if basis == enums.PriceBasisWholesale {
		primary, fallback = t.Wholesale, t.Retail
	}
	if primary.IsZero() && !fallback.IsZero() {
		return fallback
	}
	return primary
}
