package enums

import "fmt"

// ProductUnit is the unit a product is sold and produced in.
type ProductUnit string

const (
	ProductUnitPiece ProductUnit = "PIECE"
	ProductUnitKG    ProductUnit = "KG"
	ProductUnitTray  ProductUnit = "TRAY"
)

var validProductUnits = []ProductUnit{
	ProductUnitPiece,
	ProductUnitKG,
	ProductUnitTray,
}

// String implements fmt.Stringer.
func (u ProductUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known ProductUnit.
func (u ProductUnit) IsValid() bool {
	for _, candidate := range validProductUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseProductUnit converts raw input into a ProductUnit.
func ParseProductUnit(value string) (ProductUnit, error) {
	for _, candidate := range validProductUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product unit %q", value)
}

// ProductGroup partitions the catalog by kitchen line; chefs work one group.
type ProductGroup string

const (
	ProductGroupSweets ProductGroup = "SWEETS"
	ProductGroupBakery ProductGroup = "BAKERY"
)

var validProductGroups = []ProductGroup{
	ProductGroupSweets,
	ProductGroupBakery,
}

// String implements fmt.Stringer.
func (g ProductGroup) String() string {
	return string(g)
}

// IsValid reports whether the value is a known ProductGroup.
func (g ProductGroup) IsValid() bool {
	for _, candidate := range validProductGroups {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseProductGroup converts raw input into a ProductGroup.
func ParseProductGroup(value string) (ProductGroup, error) {
	for _, candidate := range validProductGroups {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product group %q", value)
}
