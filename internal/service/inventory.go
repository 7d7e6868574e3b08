package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/bookstore/internal/cache"
	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/nikolayk812/bookstore/internal/port"
)

const (
	booksPagePrefix = "books_page"
	booksCountKey   = "books_total_count"

	DefaultBooksPageTTL  = 60 * time.Second
	DefaultBooksCountTTL = 120 * time.Second
)

type InventoryCaches struct {
	Pages    port.ReadThroughCache[[]domain.Book]
	Counts   port.ReadThroughCache[int]
	PageTTL  time.Duration
	CountTTL time.Duration
}

// Inventory owns book stock. Availability is always read from the store, only
// catalog listings go through the cache.
type Inventory struct {
	books     port.BookRepository
	publisher port.EventPublisher
	caches    InventoryCaches
}

func NewInventory(books port.BookRepository, publisher port.EventPublisher, caches InventoryCaches) *Inventory {
	if caches.PageTTL <= 0 {
		caches.PageTTL = DefaultBooksPageTTL
	}
	if caches.CountTTL <= 0 {
		caches.CountTTL = DefaultBooksCountTTL
	}

	return &Inventory{
		books:     books,
		publisher: publisher,
		caches:    caches,
	}
}

// HasSufficientStock reports false for a missing book.
func (s *Inventory) HasSufficientStock(ctx context.Context, bookID uuid.UUID, qty int) (bool, error) {
	if err := validateQuantity(qty); err != nil {
		return false, err
	}

	stock, err := s.books.GetStock(ctx, bookID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, infraError("books.GetStock", err)
	}

	return stock >= qty, nil
}

// Decrement is the compare-and-decrement: false means stock was short and nothing changed.
func (s *Inventory) Decrement(ctx context.Context, bookID uuid.UUID, qty int) (bool, error) {
	if err := validateQuantity(qty); err != nil {
		return false, err
	}

	ok, err := s.books.DecrementStock(ctx, bookID, qty)
	if err != nil {
		return false, infraError("books.DecrementStock", err)
	}

	if ok {
		publish(ctx, s.publisher, "Inventory.Decrement", domain.StockChanged(bookID, -qty))
	}

	return ok, nil
}

// Increment restores stock unconditionally; callers guard against restoring twice.
func (s *Inventory) Increment(ctx context.Context, bookID uuid.UUID, qty int) (bool, error) {
	if err := validateQuantity(qty); err != nil {
		return false, err
	}

	ok, err := s.books.IncrementStock(ctx, bookID, qty)
	if err != nil {
		return false, infraError("books.IncrementStock", err)
	}

	if ok {
		publish(ctx, s.publisher, "Inventory.Increment", domain.StockChanged(bookID, qty))
	}

	return ok, nil
}

func (s *Inventory) GetBook(ctx context.Context, bookID uuid.UUID) (domain.Book, error) {
	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		return book, infraError("books.GetBook", err)
	}

	return book, nil
}

func (s *Inventory) ListBooks(ctx context.Context, page domain.Page) ([]domain.Book, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	key := cache.Key(booksPagePrefix, page.Number, page.Size)

	books, err := s.caches.Pages.GetOrLoad(ctx, key, s.caches.PageTTL, func(ctx context.Context) ([]domain.Book, error) {
		slog.Debug("books page cache miss", "method", "Inventory.ListBooks", "key", key)
		return s.books.ListBooks(ctx, page.Size, page.Offset())
	})
	if err != nil {
		return nil, infraError("books.ListBooks", err)
	}

	return books, nil
}

func (s *Inventory) CountBooks(ctx context.Context) (int, error) {
	count, err := s.caches.Counts.GetOrLoad(ctx, booksCountKey, s.caches.CountTTL, s.books.CountBooks)
	if err != nil {
		return 0, infraError("books.CountBooks", err)
	}

	return count, nil
}

func (s *Inventory) UpdatePrice(ctx context.Context, bookID uuid.UUID, price domain.Money) error {
	if !price.IsPositive() {
		return domain.NewValidationError("price", "must be positive")
	}

	if err := s.books.UpdateBookPrice(ctx, bookID, price); err != nil {
		return infraError("books.UpdateBookPrice", err)
	}

	publish(ctx, s.publisher, "Inventory.UpdatePrice", domain.PriceChanged(bookID))

	return nil
}

func (s *Inventory) LowStockBooks(ctx context.Context, threshold int) ([]domain.Book, error) {
	if threshold < 0 {
		return nil, domain.NewValidationError("threshold", "must not be negative")
	}

	books, err := s.books.ListLowStockBooks(ctx, threshold)
	if err != nil {
		return nil, infraError("books.ListLowStockBooks", err)
	}

	return books, nil
}
