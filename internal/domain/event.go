package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBookStockChanged   EventType = "BookStockChanged"
	EventBookPriceChanged   EventType = "BookPriceChanged"
	EventOrderCreated       EventType = "OrderCreated"
	EventOrderStatusChanged EventType = "OrderStatusChanged"
	EventOrderPurged        EventType = "OrderPurged"
)

// Event is emitted after every committed mutation of a book or an order.
// Cache invalidation and outbound publishing are both driven by it.
type Event struct {
	ID         uuid.UUID
	Type       EventType
	OccurredAt time.Time

	BookID uuid.UUID
	// Delta is the signed stock change for EventBookStockChanged.
	Delta int

	OrderID     uuid.UUID
	OrderNumber string
	BuyerID     string
	From        OrderStatus
	To          OrderStatus
}

func newEvent(t EventType) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
	}
}

func StockChanged(bookID uuid.UUID, delta int) Event {
	e := newEvent(EventBookStockChanged)
	e.BookID = bookID
	e.Delta = delta
	return e
}

func PriceChanged(bookID uuid.UUID) Event {
	e := newEvent(EventBookPriceChanged)
	e.BookID = bookID
	return e
}

func OrderCreated(o Order) Event {
	e := newEvent(EventOrderCreated)
	e.OrderID = o.ID
	e.OrderNumber = o.OrderNumber
	e.BuyerID = o.BuyerID
	e.To = o.Status
	return e
}

func OrderStatusChanged(o Order, from OrderStatus) Event {
	e := newEvent(EventOrderStatusChanged)
	e.OrderID = o.ID
	e.OrderNumber = o.OrderNumber
	e.BuyerID = o.BuyerID
	e.From = from
	e.To = o.Status
	return e
}

func OrderPurged(o Order) Event {
	e := newEvent(EventOrderPurged)
	e.OrderID = o.ID
	e.OrderNumber = o.OrderNumber
	e.BuyerID = o.BuyerID
	e.From = o.Status
	return e
}

// Key is the partition key for outbound publishing: all events of one aggregate stay ordered.
func (e Event) Key() string {
	if e.OrderID != uuid.Nil {
		return e.OrderID.String()
	}
	return e.BookID.String()
}
