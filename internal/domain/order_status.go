package domain

import "errors"

type OrderStatus string

// remember to add new statuses to the validOrderStatuses map
const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:   {},
	OrderStatusPaid:      {},
	OrderStatusConfirmed: {},
	OrderStatusShipped:   {},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid order status")
}

// OrderStatuses lists every status in lifecycle order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusPaid,
		OrderStatusConfirmed,
		OrderStatusShipped,
		OrderStatusCompleted,
		OrderStatusCancelled,
	}
}

// IsTerminal is true for statuses without outgoing transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// NextStatuses lists every status reachable from s in one transition.
func (s OrderStatus) NextStatuses() []OrderStatus {
	var result []OrderStatus
	for _, event := range OrderEvents() {
		if next, ok := NextStatus(s, event); ok {
			result = append(result, next)
		}
	}
	return result
}
