package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks an order from open cart to its terminal state.
type OrderStatus string

const (
	OrderStatusCart           OrderStatus = "CART"
	OrderStatusPlaced         OrderStatus = "PLACED"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusReady          OrderStatus = "READY"
	OrderStatusCompleted      OrderStatus = "COMPLETED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusCart,
	OrderStatusPlaced,
	OrderStatusPreparing,
	OrderStatusOutForDelivery,
	OrderStatusReady,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// progression rank; READY and OUT_FOR_DELIVERY are alternatives for pickup and delivery.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPlaced:         1,
	OrderStatusPreparing:      2,
	OrderStatusOutForDelivery: 3,
	OrderStatusReady:          3,
	OrderStatusCompleted:      4,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further progress is expected.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// IsExpectedTransition reports whether moving from -> to follows the usual
// kitchen progression. Unexpected transitions are still applied by callers.
func IsExpectedTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	if from == OrderStatusCart || to == OrderStatusCart || from.IsTerminal() {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	fromRank, okFrom := orderStatusRank[from]
	toRank, okTo := orderStatusRank[to]
	if !okFrom || !okTo {
		return false
	}
	return toRank > fromRank
}

// ParseOrderStatus converts raw input into an OrderStatus. Matching is case-insensitive.
func ParseOrderStatus(value string) (OrderStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validOrderStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
