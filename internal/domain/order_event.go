package domain

import "errors"

type OrderEvent string

const (
	OrderEventPay            OrderEvent = "pay"
	OrderEventConfirm        OrderEvent = "confirm"
	OrderEventShip           OrderEvent = "ship"
	OrderEventConfirmReceipt OrderEvent = "confirm_receipt"
	OrderEventCancel         OrderEvent = "cancel"
)

type transition struct {
	from []OrderStatus
	to   OrderStatus
}

// transitions is the complete lifecycle; COMPLETED and CANCELLED never appear in from.
var transitions = map[OrderEvent]transition{
	OrderEventPay: {
		from: []OrderStatus{OrderStatusPending},
		to:   OrderStatusPaid,
	},
	OrderEventConfirm: {
		from: []OrderStatus{OrderStatusPending, OrderStatusPaid},
		to:   OrderStatusConfirmed,
	},
	OrderEventShip: {
		from: []OrderStatus{OrderStatusConfirmed},
		to:   OrderStatusShipped,
	},
	OrderEventConfirmReceipt: {
		from: []OrderStatus{OrderStatusShipped},
		to:   OrderStatusCompleted,
	},
	OrderEventCancel: {
		from: []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusConfirmed},
		to:   OrderStatusCancelled,
	},
}

func ToOrderEvent(s string) (OrderEvent, error) {
	event := OrderEvent(s)
	if _, ok := transitions[event]; ok {
		return event, nil
	}

	return "", errors.New("invalid order event")
}

func OrderEvents() []OrderEvent {
	return []OrderEvent{
		OrderEventPay,
		OrderEventConfirm,
		OrderEventShip,
		OrderEventConfirmReceipt,
		OrderEventCancel,
	}
}

// NextStatus returns the status event leads to from, and false when the guard is not met.
func NextStatus(from OrderStatus, event OrderEvent) (OrderStatus, bool) {
	t, ok := transitions[event]
	if !ok {
		return "", false
	}

	for _, s := range t.from {
		if s == from {
			return t.to, true
		}
	}

	return "", false
}

// SourceStatuses are the statuses event is allowed from.
func SourceStatuses(event OrderEvent) []OrderStatus {
	t, ok := transitions[event]
	if !ok {
		return nil
	}

	result := make([]OrderStatus, len(t.from))
	copy(result, t.from)
	return result
}

func TargetStatus(event OrderEvent) (OrderStatus, bool) {
	t, ok := transitions[event]
	return t.to, ok
}
