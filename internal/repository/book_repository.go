package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/bookstore/internal/db"
	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/nikolayk812/bookstore/internal/port"
	"github.com/samber/lo"
	"golang.org/x/text/currency"
)

type bookRepository struct {
	q *db.Queries
}

func NewBook(pool *pgxpool.Pool) port.BookRepository {
	return &bookRepository{
		q: db.New(pool),
	}
}

func NewBookWithTx(tx pgx.Tx) port.BookRepository {
	return &bookRepository{
		q: db.New(tx),
	}
}

func (r *bookRepository) GetBook(ctx context.Context, bookID uuid.UUID) (domain.Book, error) {
	var b domain.Book

	dbBook, err := r.q.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return b, fmt.Errorf("q.GetBook: %w", ErrNotFound)
		}
		return b, fmt.Errorf("q.GetBook: %w", err)
	}

	book, err := mapDBBookToDomain(dbBook)
	if err != nil {
		return b, fmt.Errorf("mapDBBookToDomain: %w", err)
	}

	return book, nil
}

func (r *bookRepository) InsertBook(ctx context.Context, book domain.Book) (uuid.UUID, error) {
	if err := book.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("book.Validate: %w", err)
	}

	stock, err := toInt32(book.Stock)
	if err != nil {
		return uuid.Nil, fmt.Errorf("stock: %w", err)
	}

	bookID, err := r.q.InsertBook(ctx, db.InsertBookParams{
		Isbn:          book.ISBN,
		Title:         book.Title,
		Author:        book.Author,
		Publisher:     book.Publisher,
		PriceAmount:   book.Price.Amount,
		PriceCurrency: book.Price.Currency.String(),
		Stock:         stock,
		Description:   book.Description,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("q.InsertBook: %w", err)
	}

	return bookID, nil
}

func (r *bookRepository) UpdateBookPrice(ctx context.Context, bookID uuid.UUID, price domain.Money) error {
	if bookID == uuid.Nil {
		return fmt.Errorf("bookID is empty")
	}

	if !price.IsPositive() {
		return fmt.Errorf("price must be positive")
	}

	rowsAffected, err := r.q.UpdateBookPrice(ctx, db.UpdateBookPriceParams{
		ID:            bookID,
		PriceAmount:   price.Amount,
		PriceCurrency: price.Currency.String(),
	})
	if err != nil {
		return fmt.Errorf("q.UpdateBookPrice: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("q.UpdateBookPrice: %w", ErrNotFound)
	}

	return nil
}

func (r *bookRepository) ListBooks(ctx context.Context, limit, offset int) ([]domain.Book, error) {
	dbLimit, err := toInt32(limit)
	if err != nil {
		return nil, fmt.Errorf("limit: %w", err)
	}

	dbOffset, err := toInt32(offset)
	if err != nil {
		return nil, fmt.Errorf("offset: %w", err)
	}

	dbBooks, err := r.q.ListBooks(ctx, db.ListBooksParams{Limit: dbLimit, Offset: dbOffset})
	if err != nil {
		return nil, fmt.Errorf("q.ListBooks: %w", err)
	}

	books, err := mapDBBooksToDomain(dbBooks)
	if err != nil {
		return nil, fmt.Errorf("mapDBBooksToDomain: %w", err)
	}

	return books, nil
}

func (r *bookRepository) CountBooks(ctx context.Context) (int, error) {
	count, err := r.q.CountBooks(ctx)
	if err != nil {
		return 0, fmt.Errorf("q.CountBooks: %w", err)
	}

	return int(count), nil
}

func (r *bookRepository) ListLowStockBooks(ctx context.Context, threshold int) ([]domain.Book, error) {
	dbThreshold, err := toInt32(threshold)
	if err != nil {
		return nil, fmt.Errorf("threshold: %w", err)
	}

	dbBooks, err := r.q.ListLowStockBooks(ctx, dbThreshold)
	if err != nil {
		return nil, fmt.Errorf("q.ListLowStockBooks: %w", err)
	}

	books, err := mapDBBooksToDomain(dbBooks)
	if err != nil {
		return nil, fmt.Errorf("mapDBBooksToDomain: %w", err)
	}

	return books, nil
}

func (r *bookRepository) GetStock(ctx context.Context, bookID uuid.UUID) (int, error) {
	stock, err := r.q.GetBookStock(ctx, bookID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("q.GetBookStock: %w", ErrNotFound)
		}
		return 0, fmt.Errorf("q.GetBookStock: %w", err)
	}

	return int(stock), nil
}

func (r *bookRepository) DecrementStock(ctx context.Context, bookID uuid.UUID, qty int) (bool, error) {
	quantity, err := toPositiveInt32(qty)
	if err != nil {
		return false, fmt.Errorf("quantity: %w", err)
	}

	rowsAffected, err := r.q.DecrementStock(ctx, db.DecrementStockParams{
		Quantity: quantity,
		ID:       bookID,
	})
	if err != nil {
		return false, fmt.Errorf("q.DecrementStock: %w", err)
	}

	return rowsAffected == 1, nil
}

func (r *bookRepository) IncrementStock(ctx context.Context, bookID uuid.UUID, qty int) (bool, error) {
	quantity, err := toPositiveInt32(qty)
	if err != nil {
		return false, fmt.Errorf("quantity: %w", err)
	}

	rowsAffected, err := r.q.IncrementStock(ctx, db.IncrementStockParams{
		Quantity: quantity,
		ID:       bookID,
	})
	if err != nil {
		return false, fmt.Errorf("q.IncrementStock: %w", err)
	}

	return rowsAffected == 1, nil
}

func mapDBBookToDomain(b db.Book) (domain.Book, error) {
	price, err := toMoney(b.PriceAmount, b.PriceCurrency)
	if err != nil {
		return domain.Book{}, fmt.Errorf("toMoney: %w", err)
	}

	return domain.Book{
		ID:          b.ID,
		ISBN:        b.Isbn,
		Title:       b.Title,
		Author:      b.Author,
		Publisher:   b.Publisher,
		Price:       price,
		Stock:       int(b.Stock),
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}, nil
}

func mapDBBooksToDomain(rows []db.Book) ([]domain.Book, error) {
	books := make([]domain.Book, 0, len(rows))

	for _, row := range rows {
		book, err := mapDBBookToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapDBBookToDomain: %w", err)
		}

		books = append(books, book)
	}

	return books, nil
}

func toInt32(v int) (int32, error) {
	if v < 0 || v > math.MaxInt32 {
		return 0, fmt.Errorf("value %d is out of range", v)
	}
	return int32(v), nil
}

func toPositiveInt32(v int) (int32, error) {
	if v <= 0 {
		return 0, fmt.Errorf("value %d must be positive", v)
	}
	return toInt32(v)
}

func parseCurrency(code string) (currency.Unit, error) {
	parsed, err := currency.ParseISO(code)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}
	return parsed, nil
}

func nilSliceIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

func statusesToStrings(statuses []domain.OrderStatus) []string {
	return lo.Map(statuses, func(s domain.OrderStatus, _ int) string {
		return string(s)
	})
}
