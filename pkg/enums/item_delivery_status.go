package enums

import "fmt"

// ItemDeliveryStatus is the driver-side state of a single order item.
type ItemDeliveryStatus string

const (
	ItemDeliveryStatusReadyForDelivery ItemDeliveryStatus = "READY_FOR_DELIVERY"
	ItemDeliveryStatusPartial          ItemDeliveryStatus = "PARTIAL"
	ItemDeliveryStatusDelivered        ItemDeliveryStatus = "DELIVERED"
	ItemDeliveryStatusFailed           ItemDeliveryStatus = "FAILED"
)

var validItemDeliveryStatuses = []ItemDeliveryStatus{
	ItemDeliveryStatusReadyForDelivery,
	ItemDeliveryStatusPartial,
	ItemDeliveryStatusDelivered,
	ItemDeliveryStatusFailed,
}

// String implements fmt.Stringer.
func (s ItemDeliveryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemDeliveryStatus.
func (s ItemDeliveryStatus) IsValid() bool {
	for _, candidate := range validItemDeliveryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseItemDeliveryStatus converts raw input into a ItemDeliveryStatus.
func ParseItemDeliveryStatus(value string) (ItemDeliveryStatus, error) {
	for _, candidate := range validItemDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item delivery status %q", value)
}

// IsTerminal reports whether the item can no longer receive deliveries.
func (s ItemDeliveryStatus) IsTerminal() bool {
	return s == ItemDeliveryStatusDelivered || s == ItemDeliveryStatusFailed
}
