package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/bookstore/internal/domain"
)

type BookRepository interface {
	GetBook(ctx context.Context, bookID uuid.UUID) (domain.Book, error)
	InsertBook(ctx context.Context, book domain.Book) (uuid.UUID, error)
	UpdateBookPrice(ctx context.Context, bookID uuid.UUID, price domain.Money) error

	ListBooks(ctx context.Context, limit, offset int) ([]domain.Book, error)
	CountBooks(ctx context.Context) (int, error)
	ListLowStockBooks(ctx context.Context, threshold int) ([]domain.Book, error)

	GetStock(ctx context.Context, bookID uuid.UUID) (int, error)
	// DecrementStock is a single compare-and-decrement; false means the stock was short
	// or the book does not exist.
	DecrementStock(ctx context.Context, bookID uuid.UUID, qty int) (bool, error)
	IncrementStock(ctx context.Context, bookID uuid.UUID, qty int) (bool, error)
}
