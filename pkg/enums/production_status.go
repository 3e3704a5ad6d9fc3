package enums

import "fmt"

// ProductionStatus is the kitchen-side state shared by orders and order items.
type ProductionStatus string

const (
	ProductionStatusPending            ProductionStatus = "PENDING"
	ProductionStatusPartiallyCompleted ProductionStatus = "PARTIALLY_COMPLETED"
	ProductionStatusCompleted          ProductionStatus = "COMPLETED"
	ProductionStatusCancelled          ProductionStatus = "CANCELLED"
)

var validProductionStatuses = []ProductionStatus{
	ProductionStatusPending,
	ProductionStatusPartiallyCompleted,
	ProductionStatusCompleted,
	ProductionStatusCancelled,
}

// String implements fmt.Stringer.
func (s ProductionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductionStatus.
func (s ProductionStatus) IsValid() bool {
	for _, candidate := range validProductionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProductionStatus converts raw input into a ProductionStatus.
func ParseProductionStatus(value string) (ProductionStatus, error) {
	for _, candidate := range validProductionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid production status %q", value)
}

// IsTerminal reports whether no further production transition is allowed.
func (s ProductionStatus) IsTerminal() bool {
	return s == ProductionStatusCompleted || s == ProductionStatusCancelled
}
