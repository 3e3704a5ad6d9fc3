package enums

import "fmt"

// PriceBasis selects one of the two parallel price computations. It also types price lists.
type PriceBasis string

const (
	PriceBasisWholesale PriceBasis = "WHOLESALE"
	PriceBasisRetail    PriceBasis = "RETAIL"
)

var validPriceBases = []PriceBasis{
	PriceBasisWholesale,
	PriceBasisRetail,
}

// String implements fmt.Stringer.
func (b PriceBasis) String() string {
	return string(b)
}

// IsValid reports whether the value is a known PriceBasis.
func (b PriceBasis) IsValid() bool {
	for _, candidate := range validPriceBases {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParsePriceBasis converts raw input into a PriceBasis.
func ParsePriceBasis(value string) (PriceBasis, error) {
	for _, candidate := range validPriceBases {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price basis %q", value)
}

// Other returns the opposite basis.
func (b PriceBasis) Other() PriceBasis {
	if b == PriceBasisWholesale {
		return PriceBasisRetail
	}
	return PriceBasisWholesale
}
