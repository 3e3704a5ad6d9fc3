package enums

import "fmt"

// OrderDeliveryStatus is the order-level delivery state derived from its items.
type OrderDeliveryStatus string

const (
	OrderDeliveryStatusPending            OrderDeliveryStatus = "PENDING"
	OrderDeliveryStatusReadyForDelivery   OrderDeliveryStatus = "READY_FOR_DELIVERY"
	OrderDeliveryStatusDelivered          OrderDeliveryStatus = "DELIVERED"
	OrderDeliveryStatusPartiallyDelivered OrderDeliveryStatus = "PARTIALLY_DELIVERED"
	OrderDeliveryStatusFailed             OrderDeliveryStatus = "FAILED"
	OrderDeliveryStatusCancelled          OrderDeliveryStatus = "CANCELLED"
)

var validOrderDeliveryStatuses = []OrderDeliveryStatus{
	OrderDeliveryStatusPending,
	OrderDeliveryStatusReadyForDelivery,
	OrderDeliveryStatusDelivered,
	OrderDeliveryStatusPartiallyDelivered,
	OrderDeliveryStatusFailed,
	OrderDeliveryStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderDeliveryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderDeliveryStatus.
func (s OrderDeliveryStatus) IsValid() bool {
	for _, candidate := range validOrderDeliveryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderDeliveryStatus converts raw input into a OrderDeliveryStatus.
func ParseOrderDeliveryStatus(value string) (OrderDeliveryStatus, error) {
	for _, candidate := range validOrderDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order delivery status %q", value)
}

// IsCancellable reports whether an admin may still cancel an order in this state.
func (s OrderDeliveryStatus) IsCancellable() bool {
	return s == OrderDeliveryStatusPending || s == OrderDeliveryStatusReadyForDelivery
}

// DeliveryOutcome is a whole-order delivery result recorded by a driver.
type DeliveryOutcome string

const (
	DeliveryOutcomeDelivered DeliveryOutcome = "DELIVERED"
	DeliveryOutcomeFailed    DeliveryOutcome = "FAILED"
)

var validDeliveryOutcomes = []DeliveryOutcome{
	DeliveryOutcomeDelivered,
	DeliveryOutcomeFailed,
}

// String implements fmt.Stringer.
func (o DeliveryOutcome) String() string {
	return string(o)
}

// IsValid reports whether the value is a known DeliveryOutcome.
func (o DeliveryOutcome) IsValid() bool {
	for _, candidate := range validDeliveryOutcomes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseDeliveryOutcome converts raw input into a DeliveryOutcome.
func ParseDeliveryOutcome(value string) (DeliveryOutcome, error) {
	for _, candidate := range validDeliveryOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery outcome %q", value)
}
