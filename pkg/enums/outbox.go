package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateOrder     OutboxAggregateType = "order"
	AggregateOrderItem OutboxAggregateType = "order_item"
	AggregatePriceList OutboxAggregateType = "price_list"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateOrderItem,
	AggregatePriceList,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventOrderPlaced                  OutboxEventType = "order.placed"
	EventOrderClaimed                 OutboxEventType = "order.claimed"
	EventOrderCanceled                OutboxEventType = "order.canceled"
	EventOrderDeliveryOutcomeRecorded OutboxEventType = "order.delivery_outcome_recorded"
	EventOrderStatusChanged           OutboxEventType = "order.status_changed"
	EventItemProductionRecorded       OutboxEventType = "order_item.production_recorded"
	EventItemDeliveryRecorded         OutboxEventType = "order_item.delivery_recorded"
	EventPriceListDefaultChanged      OutboxEventType = "price_list.default_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPlaced,
	EventOrderClaimed,
	EventOrderCanceled,
	EventOrderDeliveryOutcomeRecorded,
	EventOrderStatusChanged,
	EventItemProductionRecorded,
	EventItemDeliveryRecorded,
	EventPriceListDefaultChanged,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
