package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/nikolayk812/bookstore/internal/port"
	"github.com/samber/lo"
)

const (
	DefaultMaxNumberAttempts   = 10
	DefaultMaxCheckoutAttempts = 3
)

type CheckoutOption func(*Checkout)

func WithOrderNumbers(fn OrderNumberFunc) CheckoutOption {
	return func(c *Checkout) {
		c.newNumber = fn
	}
}

func WithMaxAttempts(numbers, checkouts int) CheckoutOption {
	return func(c *Checkout) {
		if numbers > 0 {
			c.maxNumberAttempts = numbers
		}
		if checkouts > 0 {
			c.maxCheckoutAttempts = checkouts
		}
	}
}

// Checkout turns a cart into a PENDING order. Persisting the order, its lines and the
// stock decrements happens in a single transaction.
type Checkout struct {
	books     port.BookRepository
	orders    port.OrderRepository
	tx        port.Transactor
	inventory *Inventory
	orderSvc  *Orders
	publisher port.EventPublisher

	newNumber           OrderNumberFunc
	maxNumberAttempts   int
	maxCheckoutAttempts int
}

func NewCheckout(
	books port.BookRepository,
	orders port.OrderRepository,
	tx port.Transactor,
	inventory *Inventory,
	orderSvc *Orders,
	publisher port.EventPublisher,
	opts ...CheckoutOption,
) *Checkout {
	c := &Checkout{
		books:               books,
		orders:              orders,
		tx:                  tx,
		inventory:           inventory,
		orderSvc:            orderSvc,
		publisher:           publisher,
		newNumber:           NewOrderNumber,
		maxNumberAttempts:   DefaultMaxNumberAttempts,
		maxCheckoutAttempts: DefaultMaxCheckoutAttempts,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Checkout) CheckAvailability(ctx context.Context, bookID uuid.UUID, qty int) (bool, error) {
	return c.inventory.HasSufficientStock(ctx, bookID, qty)
}

func (c *Checkout) Cancel(ctx context.Context, orderID uuid.UUID, actorID string) (domain.Order, error) {
	return c.orderSvc.Cancel(ctx, orderID, actorID)
}

// CreateOrder fails with *domain.ValidationError or *domain.InsufficientStockError without
// persisting anything. *domain.PartialCommitError means the commit outcome is unknown and
// the order number must be reconciled.
func (c *Checkout) CreateOrder(ctx context.Context, buyerID string, cart []domain.CartLine) (domain.Order, error) {
	var o domain.Order

	lines, err := validateCart(buyerID, cart)
	if err != nil {
		return o, err
	}

	order, err := c.priceOrder(ctx, buyerID, lines)
	if err != nil {
		return o, err
	}

	var created domain.Order

	for attempt := 1; ; attempt++ {
		order.OrderNumber, err = c.uniqueOrderNumber(ctx)
		if err != nil {
			return o, err
		}

		created, err = c.persist(ctx, order)
		if err == nil {
			break
		}

		if errors.Is(err, port.ErrDuplicateOrderNumber) && attempt < c.maxCheckoutAttempts {
			slog.Warn("order number taken, retrying", "method", "Checkout.CreateOrder", "orderNumber", order.OrderNumber, "attempt", attempt)
			continue
		}

		if errors.Is(err, port.ErrCommitUnknown) {
			slog.Error("checkout commit outcome unknown", "method", "Checkout.CreateOrder", "orderNumber", order.OrderNumber, "buyerID", buyerID, "error", err)
			return o, &domain.PartialCommitError{OrderNumber: order.OrderNumber, Err: err}
		}

		return o, infraError("Checkout.CreateOrder", err)
	}

	events := []domain.Event{domain.OrderCreated(created)}
	for _, line := range created.Lines {
		events = append(events, domain.StockChanged(line.BookID, -line.Quantity))
	}
	publish(ctx, c.publisher, "Checkout.CreateOrder", events...)

	slog.Info("order created", "method", "Checkout.CreateOrder", "orderID", created.ID, "orderNumber", created.OrderNumber, "buyerID", buyerID, "total", created.Total.String())

	return created, nil
}

// validateCart merges repeated books by summing their quantities, keeping first-seen order.
func validateCart(buyerID string, cart []domain.CartLine) ([]domain.CartLine, error) {
	if strings.TrimSpace(buyerID) == "" {
		return nil, domain.NewValidationError("buyer_id", "is empty")
	}

	if len(cart) == 0 {
		return nil, domain.NewValidationError("cart", "is empty")
	}

	index := make(map[uuid.UUID]int, len(cart))
	merged := make([]domain.CartLine, 0, len(cart))

	for _, line := range cart {
		if line.BookID == uuid.Nil {
			return nil, domain.NewValidationError("book_id", "is empty")
		}
		if line.Quantity <= 0 {
			return nil, domain.NewValidationError("quantity", fmt.Sprintf("must be positive for book %s", line.BookID))
		}
		if line.Quantity > domain.MaxQuantity {
			return nil, domain.NewValidationError("quantity", fmt.Sprintf("must not exceed %d for book %s", domain.MaxQuantity, line.BookID))
		}

		if i, ok := index[line.BookID]; ok {
			if line.Quantity > domain.MaxQuantity-merged[i].Quantity {
				return nil, domain.NewValidationError("quantity", fmt.Sprintf("total must not exceed %d for book %s", domain.MaxQuantity, line.BookID))
			}
			merged[i].Quantity += line.Quantity
			continue
		}

		index[line.BookID] = len(merged)
		merged = append(merged, line)
	}

	return merged, nil
}

// priceOrder checks availability of every line and snapshots current unit prices.
func (c *Checkout) priceOrder(ctx context.Context, buyerID string, lines []domain.CartLine) (domain.Order, error) {
	var o domain.Order

	orderLines := make([]domain.OrderLine, 0, len(lines))

	for _, line := range lines {
		book, err := c.books.GetBook(ctx, line.BookID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return o, &domain.InsufficientStockError{BookID: line.BookID, Requested: line.Quantity, Available: lo.ToPtr(0)}
			}
			return o, infraError("books.GetBook", err)
		}

		if !book.InStock(line.Quantity) {
			return o, &domain.InsufficientStockError{BookID: line.BookID, Requested: line.Quantity, Available: lo.ToPtr(book.Stock)}
		}

		orderLines = append(orderLines, domain.OrderLine{
			BookID:    book.ID,
			Quantity:  line.Quantity,
			UnitPrice: book.Price,
		})
	}

	total := domain.ZeroMoney(orderLines[0].UnitPrice.Currency)
	for _, line := range orderLines {
		var err error
		total, err = total.Add(line.Subtotal())
		if err != nil {
			return o, domain.NewValidationError("currency", "cart mixes currencies")
		}
	}

	return domain.Order{
		BuyerID: buyerID,
		Total:   total,
		Status:  domain.OrderStatusPending,
		Lines:   orderLines,
	}, nil
}

func (c *Checkout) uniqueOrderNumber(ctx context.Context) (string, error) {
	for i := 0; i < c.maxNumberAttempts; i++ {
		number := c.newNumber()

		exists, err := c.orders.OrderNumberExists(ctx, number)
		if err != nil {
			return "", infraError("orders.OrderNumberExists", err)
		}

		if !exists {
			return number, nil
		}
	}

	return "", infraError("Checkout.uniqueOrderNumber", fmt.Errorf("no free order number after %d attempts", c.maxNumberAttempts))
}

// persist inserts the order with its lines and decrements stock for every line. A short
// decrement rolls everything back.
func (c *Checkout) persist(ctx context.Context, order domain.Order) (domain.Order, error) {
	var created domain.Order

	err := c.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		inserted, err := repos.Orders.InsertOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("orders.InsertOrder: %w", err)
		}

		for _, line := range order.Lines {
			ok, err := repos.Books.DecrementStock(ctx, line.BookID, line.Quantity)
			if err != nil {
				return fmt.Errorf("books.DecrementStock: %w", err)
			}

			if !ok {
				return &domain.InsufficientStockError{BookID: line.BookID, Requested: line.Quantity}
			}
		}

		created = inserted
		return nil
	})
	if err != nil {
		return created, err
	}

	return created, nil
}
