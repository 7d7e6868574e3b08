package service_test

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/nikolayk812/bookstore/internal/port"
)

// memState is the whole store; a transaction works on a clone and swaps it in on commit.
type memState struct {
	books  map[uuid.UUID]domain.Book
	orders map[uuid.UUID]domain.Order
}

func (s memState) clone() memState {
	c := memState{
		books:  make(map[uuid.UUID]domain.Book, len(s.books)),
		orders: make(map[uuid.UUID]domain.Order, len(s.orders)),
	}
	for id, b := range s.books {
		c.books[id] = b
	}
	for id, o := range s.orders {
		c.orders[id] = copyOrder(o)
	}
	return c
}

func copyOrder(o domain.Order) domain.Order {
	o.Lines = slices.Clone(o.Lines)
	return o
}

// memDB is an in-memory BookRepository, OrderRepository and Transactor.
// Transactions are serialized.
type memDB struct {
	mu    sync.Mutex
	state memState
	now   time.Time

	// commitErr makes every commit fail after fn succeeded, without applying anything.
	commitErr error
	commits   int
	rollbacks int
}

func newMemDB() *memDB {
	return &memDB{
		state: memState{
			books:  make(map[uuid.UUID]domain.Book),
			orders: make(map[uuid.UUID]domain.Order),
		},
		now: time.Date(2024, 1, 31, 15, 30, 0, 0, time.UTC),
	}
}

func (d *memDB) Books() port.BookRepository {
	return &memBooks{db: d}
}

func (d *memDB) Orders() port.OrderRepository {
	return &memOrders{db: d}
}

func (d *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx := d.state.clone()

	if err := fn(ctx, port.Repositories{
		Books:  &memBooks{db: d, tx: &tx},
		Orders: &memOrders{db: d, tx: &tx},
	}); err != nil {
		d.rollbacks++
		return err
	}

	if d.commitErr != nil {
		d.rollbacks++
		return fmt.Errorf("tx.Commit: %w: %w", port.ErrCommitUnknown, d.commitErr)
	}

	d.state = tx
	d.commits++
	return nil
}

// run executes fn against the transaction state, or the committed state under the lock.
func (d *memDB) run(tx *memState, fn func(s *memState)) {
	if tx != nil {
		fn(tx)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.state)
}

func (d *memDB) tick() time.Time {
	d.now = d.now.Add(time.Second)
	return d.now
}

func (d *memDB) addBook(price domain.Money, stock int) domain.Book {
	d.mu.Lock()
	defer d.mu.Unlock()

	book := domain.Book{
		ID:    uuid.New(),
		ISBN:  uuid.NewString()[:13],
		Title: "title",
		Price: price,
		Stock: stock,
	}
	d.state.books[book.ID] = book
	return book
}

func (d *memDB) stock(id uuid.UUID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.books[id].Stock
}

func (d *memDB) orderCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.state.orders)
}

func (d *memDB) setStatus(id uuid.UUID, status domain.OrderStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	o := d.state.orders[id]
	o.Status = status
	d.state.orders[id] = o
}

type memBooks struct {
	db *memDB
	tx *memState
}

func (r *memBooks) GetBook(_ context.Context, bookID uuid.UUID) (b domain.Book, err error) {
	r.db.run(r.tx, func(s *memState) {
		var ok bool
		if b, ok = s.books[bookID]; !ok {
			err = fmt.Errorf("q.GetBook: %w", domain.ErrNotFound)
		}
	})
	return b, err
}

func (r *memBooks) InsertBook(_ context.Context, book domain.Book) (uuid.UUID, error) {
	if err := book.Validate(); err != nil {
		return uuid.Nil, err
	}

	book.ID = uuid.New()
	r.db.run(r.tx, func(s *memState) {
		s.books[book.ID] = book
	})
	return book.ID, nil
}

func (r *memBooks) UpdateBookPrice(_ context.Context, bookID uuid.UUID, price domain.Money) (err error) {
	r.db.run(r.tx, func(s *memState) {
		b, ok := s.books[bookID]
		if !ok {
			err = fmt.Errorf("q.UpdateBookPrice: %w", domain.ErrNotFound)
			return
		}
		b.Price = price
		s.books[bookID] = b
	})
	return err
}

func (r *memBooks) ListBooks(_ context.Context, limit, offset int) (result []domain.Book, _ error) {
	r.db.run(r.tx, func(s *memState) {
		for _, b := range s.books {
			result = append(result, b)
		}
	})

	slices.SortFunc(result, func(a, b domain.Book) int { return bytes.Compare(a.ID[:], b.ID[:]) })

	if offset >= len(result) {
		return nil, nil
	}
	return result[offset:min(offset+limit, len(result))], nil
}

func (r *memBooks) CountBooks(_ context.Context) (n int, _ error) {
	r.db.run(r.tx, func(s *memState) {
		n = len(s.books)
	})
	return n, nil
}

func (r *memBooks) ListLowStockBooks(_ context.Context, threshold int) (result []domain.Book, _ error) {
	r.db.run(r.tx, func(s *memState) {
		for _, b := range s.books {
			if b.Stock <= threshold {
				result = append(result, b)
			}
		}
	})
	return result, nil
}

func (r *memBooks) GetStock(ctx context.Context, bookID uuid.UUID) (int, error) {
	b, err := r.GetBook(ctx, bookID)
	if err != nil {
		return 0, err
	}
	return b.Stock, nil
}

func (r *memBooks) DecrementStock(_ context.Context, bookID uuid.UUID, qty int) (ok bool, _ error) {
	r.db.run(r.tx, func(s *memState) {
		b, found := s.books[bookID]
		if !found || b.Stock < qty {
			return
		}
		b.Stock -= qty
		s.books[bookID] = b
		ok = true
	})
	return ok, nil
}

func (r *memBooks) IncrementStock(_ context.Context, bookID uuid.UUID, qty int) (ok bool, _ error) {
	r.db.run(r.tx, func(s *memState) {
		b, found := s.books[bookID]
		if !found {
			return
		}
		b.Stock += qty
		s.books[bookID] = b
		ok = true
	})
	return ok, nil
}

type memOrders struct {
	db *memDB
	tx *memState
}

func (r *memOrders) GetOrder(_ context.Context, orderID uuid.UUID) (o domain.Order, err error) {
	r.db.run(r.tx, func(s *memState) {
		found, ok := s.orders[orderID]
		if !ok {
			err = fmt.Errorf("q.GetOrder: %w", domain.ErrNotFound)
			return
		}
		o = copyOrder(found)
	})
	return o, err
}

func (r *memOrders) GetOrderByNumber(_ context.Context, orderNumber string) (o domain.Order, err error) {
	r.db.run(r.tx, func(s *memState) {
		for _, found := range s.orders {
			if found.OrderNumber == orderNumber {
				o = copyOrder(found)
				return
			}
		}
		err = fmt.Errorf("q.GetOrderByNumber: %w", domain.ErrNotFound)
	})
	return o, err
}

func (r *memOrders) GetOrderLines(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error) {
	o, err := r.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return o.Lines, nil
}

func (r *memOrders) SearchOrders(_ context.Context, filter domain.OrderFilter) (result []domain.Order, _ error) {
	r.db.run(r.tx, func(s *memState) {
		for _, o := range s.orders {
			if len(filter.BuyerIDs) > 0 && !slices.Contains(filter.BuyerIDs, o.BuyerID) {
				continue
			}
			if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, o.Status) {
				continue
			}
			o.Lines = nil
			result = append(result, o)
		}
	})

	slices.SortFunc(result, func(a, b domain.Order) int { return b.CreatedAt.Compare(a.CreatedAt) })

	if filter.Offset >= len(result) {
		return nil, nil
	}
	return result[filter.Offset:min(filter.Offset+filter.EffectiveLimit(), len(result))], nil
}

func (r *memOrders) CountOrdersByStatus(_ context.Context, buyerID *string) (map[domain.OrderStatus]int, error) {
	counts := make(map[domain.OrderStatus]int)
	r.db.run(r.tx, func(s *memState) {
		for _, o := range s.orders {
			if buyerID != nil && o.BuyerID != *buyerID {
				continue
			}
			counts[o.Status]++
		}
	})
	return counts, nil
}

func (r *memOrders) OrderNumberExists(_ context.Context, orderNumber string) (exists bool, _ error) {
	r.db.run(r.tx, func(s *memState) {
		for _, o := range s.orders {
			if o.OrderNumber == orderNumber {
				exists = true
				return
			}
		}
	})
	return exists, nil
}

func (r *memOrders) InsertOrder(_ context.Context, order domain.Order) (created domain.Order, err error) {
	r.db.run(r.tx, func(s *memState) {
		for _, o := range s.orders {
			if o.OrderNumber == order.OrderNumber {
				err = fmt.Errorf("q.InsertOrder: %w", port.ErrDuplicateOrderNumber)
				return
			}
		}

		created = copyOrder(order)
		created.ID = uuid.New()
		created.Status = domain.OrderStatusPending
		created.CreatedAt = r.db.tick()
		created.UpdatedAt = created.CreatedAt
		for i := range created.Lines {
			created.Lines[i].ID = uuid.New()
			created.Lines[i].OrderID = created.ID
		}

		s.orders[created.ID] = created
		created = copyOrder(created)
	})
	return created, err
}

func (r *memOrders) TransitionStatus(_ context.Context, orderID uuid.UUID, from []domain.OrderStatus, to domain.OrderStatus) (ok bool, _ error) {
	r.db.run(r.tx, func(s *memState) {
		o, found := s.orders[orderID]
		if !found || !slices.Contains(from, o.Status) {
			return
		}
		o.Status = to
		o.UpdatedAt = r.db.tick()
		s.orders[orderID] = o
		ok = true
	})
	return ok, nil
}

func (r *memOrders) MarkCancelled(_ context.Context, orderID uuid.UUID, from []domain.OrderStatus, actorID string) (ok bool, _ error) {
	r.db.run(r.tx, func(s *memState) {
		o, found := s.orders[orderID]
		if !found || o.StockRestored || !slices.Contains(from, o.Status) {
			return
		}
		o.Status = domain.OrderStatusCancelled
		o.StockRestored = true
		if actorID != "" {
			o.CancelledBy = &actorID
		}
		o.UpdatedAt = r.db.tick()
		s.orders[orderID] = o
		ok = true
	})
	return ok, nil
}

func (r *memOrders) DeleteOrder(_ context.Context, orderID uuid.UUID) (err error) {
	r.db.run(r.tx, func(s *memState) {
		o, found := s.orders[orderID]
		if !found || !o.Status.IsTerminal() {
			err = fmt.Errorf("q.DeleteTerminalOrder: %w", domain.ErrNotFound)
			return
		}
		delete(s.orders, orderID)
	})
	return err
}

// recorder keeps every published event.
type recorder struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, events ...domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return r.err
}

func (r *recorder) types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.EventType, 0, len(r.events))
	for _, e := range r.events {
		result = append(result, e.Type)
	}
	return result
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
