package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/bookstore/internal/cache"
	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/nikolayk812/bookstore/internal/port"
	"github.com/samber/lo"
)

const (
	ordersByIDPrefix     = "orders_id"
	ordersByNumberPrefix = "orders_number"
	ordersByBuyerPrefix  = "orders_buyer"
	ordersStatsPrefix    = "orders_stats"

	DefaultOrdersTTL = 30 * time.Second

	// a compare-and-set transition re-reads the order when a concurrent writer won
	maxTransitionAttempts = 3
)

var errStatusChanged = errors.New("order status changed concurrently")

type OrderCaches struct {
	Orders port.ReadThroughCache[domain.Order]
	Lists  port.ReadThroughCache[[]domain.Order]
	Stats  port.ReadThroughCache[map[domain.OrderStatus]int]
	TTL    time.Duration
}

// Orders drives the order lifecycle. Every transition is a conditional update on the
// status observed just before, so a lost race is never applied.
type Orders struct {
	orders    port.OrderRepository
	tx        port.Transactor
	publisher port.EventPublisher
	caches    OrderCaches
}

func NewOrders(orders port.OrderRepository, tx port.Transactor, publisher port.EventPublisher, caches OrderCaches) *Orders {
	if caches.TTL <= 0 {
		caches.TTL = DefaultOrdersTTL
	}

	return &Orders{
		orders:    orders,
		tx:        tx,
		publisher: publisher,
		caches:    caches,
	}
}

// Transition applies event to the order and returns it in its new status.
// An unmet guard is reported as *domain.TransitionError with the order unchanged.
func (s *Orders) Transition(ctx context.Context, orderID uuid.UUID, event domain.OrderEvent) (domain.Order, error) {
	if event == domain.OrderEventCancel {
		return s.Cancel(ctx, orderID, "")
	}

	var o domain.Order

	if _, ok := domain.TargetStatus(event); !ok {
		return o, domain.NewValidationError("event", fmt.Sprintf("%q is unknown", event))
	}

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		current, err := s.orders.GetOrder(ctx, orderID)
		if err != nil {
			return o, infraError("orders.GetOrder", err)
		}

		next, ok := domain.NextStatus(current.Status, event)
		if !ok {
			return o, &domain.TransitionError{OrderID: orderID, From: current.Status, Event: event}
		}

		swapped, err := s.orders.TransitionStatus(ctx, orderID, []domain.OrderStatus{current.Status}, next)
		if err != nil {
			return o, infraError("orders.TransitionStatus", err)
		}

		if !swapped {
			continue
		}

		updated := current
		updated.Status = next

		publish(ctx, s.publisher, "Orders.Transition", domain.OrderStatusChanged(updated, current.Status))

		return s.reload(ctx, updated), nil
	}

	return o, infraError("Orders.Transition", fmt.Errorf("order[%s]: %w", orderID, errStatusChanged))
}

// TryTransition reports an unmet guard as false instead of an error.
func (s *Orders) TryTransition(ctx context.Context, orderID uuid.UUID, event domain.OrderEvent) (bool, error) {
	if _, err := s.Transition(ctx, orderID, event); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (s *Orders) Pay(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return s.Transition(ctx, orderID, domain.OrderEventPay)
}

func (s *Orders) Confirm(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return s.Transition(ctx, orderID, domain.OrderEventConfirm)
}

func (s *Orders) Ship(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return s.Transition(ctx, orderID, domain.OrderEventShip)
}

func (s *Orders) ConfirmReceipt(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return s.Transition(ctx, orderID, domain.OrderEventConfirmReceipt)
}

// Cancel flips the order to CANCELLED and restores the stock of every line in one
// transaction. The stock_restored flag makes a second cancel a guard violation.
func (s *Orders) Cancel(ctx context.Context, orderID uuid.UUID, actorID string) (domain.Order, error) {
	var (
		o        domain.Order
		previous domain.Order
	)

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		err := s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
			current, err := repos.Orders.GetOrder(ctx, orderID)
			if err != nil {
				return fmt.Errorf("orders.GetOrder: %w", err)
			}

			if _, ok := domain.NextStatus(current.Status, domain.OrderEventCancel); !ok || current.StockRestored {
				return &domain.TransitionError{OrderID: orderID, From: current.Status, Event: domain.OrderEventCancel}
			}

			marked, err := repos.Orders.MarkCancelled(ctx, orderID, []domain.OrderStatus{current.Status}, actorID)
			if err != nil {
				return fmt.Errorf("orders.MarkCancelled: %w", err)
			}
			if !marked {
				return errStatusChanged
			}

			for _, line := range current.Lines {
				restored, err := repos.Books.IncrementStock(ctx, line.BookID, line.Quantity)
				if err != nil {
					return fmt.Errorf("books.IncrementStock: %w", err)
				}
				if !restored {
					return fmt.Errorf("books.IncrementStock: book[%s]: %w", line.BookID, domain.ErrNotFound)
				}
			}

			previous = current
			return nil
		})
		if errors.Is(err, errStatusChanged) {
			continue
		}
		if err != nil {
			return o, infraError("Orders.Cancel", err)
		}

		cancelled := previous
		cancelled.Status = domain.OrderStatusCancelled
		cancelled.StockRestored = true
		cancelled.CancelledBy = lo.EmptyableToPtr(actorID)

		events := []domain.Event{domain.OrderStatusChanged(cancelled, previous.Status)}
		for _, line := range previous.Lines {
			events = append(events, domain.StockChanged(line.BookID, line.Quantity))
		}
		publish(ctx, s.publisher, "Orders.Cancel", events...)

		return s.reload(ctx, cancelled), nil
	}

	return o, infraError("Orders.Cancel", fmt.Errorf("order[%s]: %w", orderID, errStatusChanged))
}

// reload re-reads a just-mutated order for its store timestamps, falling back to the
// locally updated copy.
func (s *Orders) reload(ctx context.Context, fallback domain.Order) domain.Order {
	order, err := s.orders.GetOrder(ctx, fallback.ID)
	if err != nil {
		return fallback
	}
	return order
}

func (s *Orders) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	key := cache.Key(ordersByIDPrefix, orderID)

	order, err := s.caches.Orders.GetOrLoad(ctx, key, s.caches.TTL, func(ctx context.Context) (domain.Order, error) {
		return s.orders.GetOrder(ctx, orderID)
	})
	if err != nil {
		return order, infraError("orders.GetOrder", err)
	}

	return order, nil
}

func (s *Orders) GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	var o domain.Order

	if strings.TrimSpace(orderNumber) == "" {
		return o, domain.NewValidationError("order_number", "is empty")
	}

	key := cache.Key(ordersByNumberPrefix, orderNumber)

	order, err := s.caches.Orders.GetOrLoad(ctx, key, s.caches.TTL, func(ctx context.Context) (domain.Order, error) {
		return s.orders.GetOrderByNumber(ctx, orderNumber)
	})
	if err != nil {
		return o, infraError("orders.GetOrderByNumber", err)
	}

	return order, nil
}

// GetOrderLines returns ErrNotFound for a missing order rather than an empty list.
func (s *Orders) GetOrderLines(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return order.Lines, nil
}

// ListOrdersFor lists the newest orders of a buyer, optionally narrowed to statuses.
func (s *Orders) ListOrdersFor(ctx context.Context, buyerID string, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	if strings.TrimSpace(buyerID) == "" {
		return nil, domain.NewValidationError("buyer_id", "is empty")
	}

	filter := domain.OrderFilter{
		BuyerIDs: []string{buyerID},
		Statuses: statuses,
		Limit:    domain.MaxOrderLimit,
	}
	if err := filter.Validate(); err != nil {
		return nil, domain.NewValidationError("filter", err.Error())
	}

	parts := lo.Map(statuses, func(st domain.OrderStatus, _ int) any { return st })
	key := cache.Key(ordersByBuyerPrefix, append([]any{buyerID}, parts...)...)

	orders, err := s.caches.Lists.GetOrLoad(ctx, key, s.caches.TTL, func(ctx context.Context) ([]domain.Order, error) {
		return s.orders.SearchOrders(ctx, filter)
	})
	if err != nil {
		return nil, infraError("orders.SearchOrders", err)
	}

	return orders, nil
}

// SearchOrders is the uncached administrative listing.
func (s *Orders) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, domain.NewValidationError("filter", err.Error())
	}

	orders, err := s.orders.SearchOrders(ctx, filter)
	if err != nil {
		return nil, infraError("orders.SearchOrders", err)
	}

	return orders, nil
}

// Statistics counts orders per status, for one buyer or for everybody when buyerID is empty.
// Every status is present in the result.
func (s *Orders) Statistics(ctx context.Context, buyerID string) (map[domain.OrderStatus]int, error) {
	scope := buyerID
	if scope == "" {
		scope = "*"
	}

	key := cache.Key(ordersStatsPrefix, scope)

	counts, err := s.caches.Stats.GetOrLoad(ctx, key, s.caches.TTL, func(ctx context.Context) (map[domain.OrderStatus]int, error) {
		return s.orders.CountOrdersByStatus(ctx, lo.EmptyableToPtr(buyerID))
	})
	if err != nil {
		return nil, infraError("orders.CountOrdersByStatus", err)
	}

	result := make(map[domain.OrderStatus]int, len(domain.OrderStatuses()))
	for _, status := range domain.OrderStatuses() {
		result[status] = counts[status]
	}

	return result, nil
}

func (s *Orders) PendingCount(ctx context.Context) (int, error) {
	stats, err := s.Statistics(ctx, "")
	if err != nil {
		return 0, err
	}

	return stats[domain.OrderStatusPending], nil
}

// Purge deletes a CANCELLED or COMPLETED order together with its lines.
func (s *Orders) Purge(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return infraError("orders.GetOrder", err)
	}

	if !order.Status.IsTerminal() {
		return domain.NewValidationError("status", fmt.Sprintf("%s order cannot be purged", order.Status))
	}

	if err := s.orders.DeleteOrder(ctx, orderID); err != nil {
		return infraError("orders.DeleteOrder", err)
	}

	publish(ctx, s.publisher, "Orders.Purge", domain.OrderPurged(order))

	return nil
}
