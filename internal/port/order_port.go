package port

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nikolayk812/bookstore/internal/domain"
)

// ErrDuplicateOrderNumber is returned by InsertOrder when the order number is already taken.
var ErrDuplicateOrderNumber = errors.New("duplicate order number")

type OrderRepository interface {
	// GetOrder returns the order with its lines.
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	GetOrderLines(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error)

	// SearchOrders returns orders without lines.
	SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	// CountOrdersByStatus counts all orders when buyerID is nil.
	CountOrdersByStatus(ctx context.Context, buyerID *string) (map[domain.OrderStatus]int, error)
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)

	// InsertOrder persists the order in PENDING together with its lines.
	InsertOrder(ctx context.Context, order domain.Order) (domain.Order, error)

	// TransitionStatus moves the order to `to` only if its current status is one of `from`.
	TransitionStatus(ctx context.Context, orderID uuid.UUID, from []domain.OrderStatus, to domain.OrderStatus) (bool, error)
	// MarkCancelled cancels the order only if its status is one of `from` and its stock
	// has not been restored yet, flagging it as restored.
	MarkCancelled(ctx context.Context, orderID uuid.UUID, from []domain.OrderStatus, actorID string) (bool, error)

	// DeleteOrder purges a CANCELLED or COMPLETED order and its lines.
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}
