package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Order struct {
	ID          uuid.UUID
	OrderNumber string
	BuyerID     string
	// Total is a snapshot taken at checkout and is never recomputed.
	Total  Money
	Status OrderStatus
	Lines  []OrderLine

	StockRestored bool
	CancelledBy   *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderLine struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	BookID    uuid.UUID
	Quantity  int
	UnitPrice Money
}

func (l OrderLine) Subtotal() Money {
	return l.UnitPrice.Mul(l.Quantity)
}

// MaxQuantity is the largest quantity a line or a stock change may carry; stock is stored as int4.
const MaxQuantity = math.MaxInt32

// CartLine is checkout input held by the caller's session, never persisted.
type CartLine struct {
	BookID   uuid.UUID
	Quantity int
}
