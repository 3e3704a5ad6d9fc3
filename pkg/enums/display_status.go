package enums

import "fmt"

// DisplayStatus is the single user-facing classification of an order.
type DisplayStatus string

const (
	DisplayStatusCancelled               DisplayStatus = "CANCELLED"
	DisplayStatusDeliveryFailed          DisplayStatus = "DELIVERY_FAILED"
	DisplayStatusDelivered               DisplayStatus = "DELIVERED"
	DisplayStatusPartiallyDelivered      DisplayStatus = "PARTIALLY_DELIVERED"
	DisplayStatusItemsPartiallyFulfilled DisplayStatus = "ITEMS_PARTIALLY_FULFILLED"
	DisplayStatusItemsUnavailable        DisplayStatus = "ITEMS_UNAVAILABLE"
	DisplayStatusReadyForDelivery        DisplayStatus = "READY_FOR_DELIVERY"
	DisplayStatusPending                 DisplayStatus = "PENDING"
)

var validDisplayStatuses = []DisplayStatus{
	DisplayStatusCancelled,
	DisplayStatusDeliveryFailed,
	DisplayStatusDelivered,
	DisplayStatusPartiallyDelivered,
	DisplayStatusItemsPartiallyFulfilled,
	DisplayStatusItemsUnavailable,
	DisplayStatusReadyForDelivery,
	DisplayStatusPending,
}

// String implements fmt.Stringer.
func (d DisplayStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DisplayStatus.
func (d DisplayStatus) IsValid() bool {
	for _, candidate := range validDisplayStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDisplayStatus converts raw input into a DisplayStatus.
func ParseDisplayStatus(value string) (DisplayStatus, error) {
	for _, candidate := range validDisplayStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid display status %q", value)
}

// Severity drives how a display status is emphasised.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityNeutral Severity = "neutral"
)

var validSeverities = []Severity{
	SeverityError,
	SeverityWarning,
	SeveritySuccess,
	SeverityInfo,
	SeverityNeutral,
}

// String implements fmt.Stringer.
func (s Severity) String() string {
	return string(s)
}

// IsValid reports whether the value is a known Severity.
func (s Severity) IsValid() bool {
	for _, candidate := range validSeverities {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSeverity converts raw input into a Severity.
func ParseSeverity(value string) (Severity, error) {
	for _, candidate := range validSeverities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid severity %q", value)
}
