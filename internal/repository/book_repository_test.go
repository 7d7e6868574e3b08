package repository_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/nikolayk812/bookstore/internal/port"
	"github.com/nikolayk812/bookstore/internal/repository"
	"github.com/nikolayk812/bookstore/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"golang.org/x/text/currency"
)

type bookRepositorySuite struct {
	suite.Suite

	pool      *pgxpool.Pool
	repo      port.BookRepository
	container testcontainers.Container
}

// entry point to run the tests in the suite
func TestBookRepositorySuite(t *testing.T) {
	suite.Run(t, new(bookRepositorySuite))
}

// before all tests in the suite
func (suite *bookRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	var err error

	suite.container, suite.pool, err = testutil.StartPostgres(ctx)
	suite.Require().NoError(err)

	suite.repo = repository.NewBook(suite.pool)
}

// after all tests in the suite
func (suite *bookRepositorySuite) TearDownSuite() {
	ctx := suite.T().Context()

	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(suite.container.Terminate(ctx))
	}
}

func (suite *bookRepositorySuite) TestInsertBook() {
	defer suite.deleteAll()

	tests := []struct {
		name      string
		bookFunc  func() domain.Book
		wantError string
	}{
		{
			name:     "valid book: ok",
			bookFunc: randomBook,
		},
		{
			name: "zero stock: ok",
			bookFunc: func() domain.Book {
				b := randomBook()
				b.Stock = 0
				return b
			},
		},
		{
			name: "empty isbn: fail",
			bookFunc: func() domain.Book {
				b := randomBook()
				b.ISBN = ""
				return b
			},
			wantError: "book.Validate: isbn is empty",
		},
		{
			name: "zero price: fail",
			bookFunc: func() domain.Book {
				b := randomBook()
				b.Price = domain.ZeroMoney(currency.USD)
				return b
			},
			wantError: "book.Validate: price must be positive",
		},
		{
			name: "negative stock: fail",
			bookFunc: func() domain.Book {
				b := randomBook()
				b.Stock = -1
				return b
			},
			wantError: "book.Validate: stock must not be negative",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			book := tt.bookFunc()

			bookID, err := suite.repo.InsertBook(ctx, book)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			actual, err := suite.repo.GetBook(ctx, bookID)
			require.NoError(t, err)

			assertBook(t, book, actual)
		})
	}
}

func (suite *bookRepositorySuite) TestGetBook_NotFound() {
	t := suite.T()

	_, err := suite.repo.GetBook(t.Context(), uuid.New())
	require.EqualError(t, err, "q.GetBook: not found")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = suite.repo.GetStock(t.Context(), uuid.New())
	require.EqualError(t, err, "q.GetBookStock: not found")
}

func (suite *bookRepositorySuite) TestUpdateBookPrice() {
	defer suite.deleteAll()

	bookID := suite.insertBook(randomBook())

	tests := []struct {
		name      string
		bookID    uuid.UUID
		price     domain.Money
		wantError string
	}{
		{
			name:   "existing book: ok",
			bookID: bookID,
			price:  domain.MustMoney("42.50", currency.USD),
		},
		{
			name:      "non-existing book: not found",
			bookID:    uuid.New(),
			price:     domain.MustMoney("1.00", currency.USD),
			wantError: "q.UpdateBookPrice: not found",
		},
		{
			name:      "empty book ID: fail",
			bookID:    uuid.Nil,
			price:     domain.MustMoney("1.00", currency.USD),
			wantError: "bookID is empty",
		},
		{
			name:      "zero price: fail",
			bookID:    bookID,
			price:     domain.ZeroMoney(currency.USD),
			wantError: "price must be positive",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			err := suite.repo.UpdateBookPrice(ctx, tt.bookID, tt.price)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			actual, err := suite.repo.GetBook(ctx, tt.bookID)
			require.NoError(t, err)
			assert.True(t, tt.price.Equal(actual.Price), "price %s, got %s", tt.price, actual.Price)
		})
	}
}

func (suite *bookRepositorySuite) TestListBooks() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	for i := 0; i < 5; i++ {
		suite.insertBook(randomBook())
	}

	count, err := suite.repo.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	firstPage, err := suite.repo.ListBooks(ctx, 3, 0)
	require.NoError(t, err)
	assert.Len(t, firstPage, 3)

	secondPage, err := suite.repo.ListBooks(ctx, 3, 3)
	require.NoError(t, err)
	assert.Len(t, secondPage, 2)

	seen := make(map[uuid.UUID]struct{})
	for _, b := range append(firstPage, secondPage...) {
		seen[b.ID] = struct{}{}
	}
	assert.Len(t, seen, 5)

	_, err = suite.repo.ListBooks(ctx, -1, 0)
	require.EqualError(t, err, "limit: value -1 is out of range")
}

func (suite *bookRepositorySuite) TestListLowStockBooks() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	low := randomBook()
	low.Stock = 2
	lowID := suite.insertBook(low)

	high := randomBook()
	high.Stock = 50
	suite.insertBook(high)

	books, err := suite.repo.ListLowStockBooks(ctx, 5)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, lowID, books[0].ID)
}

func (suite *bookRepositorySuite) TestDecrementStock() {
	defer suite.deleteAll()

	tests := []struct {
		name      string
		stock     int
		qty       int
		missing   bool
		wantOK    bool
		wantStock int
		wantError string
	}{
		{
			name:      "enough stock: ok",
			stock:     5,
			qty:       3,
			wantOK:    true,
			wantStock: 2,
		},
		{
			name:      "exact stock: ok",
			stock:     5,
			qty:       5,
			wantOK:    true,
			wantStock: 0,
		},
		{
			name:      "short stock: unchanged",
			stock:     2,
			qty:       3,
			wantOK:    false,
			wantStock: 2,
		},
		{
			name:    "missing book: false",
			stock:   5,
			qty:     1,
			missing: true,
			wantOK:  false,
		},
		{
			name:      "zero qty: fail",
			stock:     5,
			qty:       0,
			wantError: "quantity: value 0 must be positive",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			book := randomBook()
			book.Stock = tt.stock
			bookID := suite.insertBook(book)

			target := bookID
			if tt.missing {
				target = uuid.New()
			}

			ok, err := suite.repo.DecrementStock(ctx, target, tt.qty)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)

			if !tt.missing {
				stock, err := suite.repo.GetStock(ctx, bookID)
				require.NoError(t, err)
				assert.Equal(t, tt.wantStock, stock)
			}
		})
	}
}

func (suite *bookRepositorySuite) TestIncrementStock() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	book := randomBook()
	book.Stock = 1
	bookID := suite.insertBook(book)

	ok, err := suite.repo.IncrementStock(ctx, bookID, 4)
	require.NoError(t, err)
	assert.True(t, ok)

	stock, err := suite.repo.GetStock(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 5, stock)

	ok, err = suite.repo.IncrementStock(ctx, uuid.New(), 4)
	require.NoError(t, err)
	assert.False(t, ok)
}

func (suite *bookRepositorySuite) TestDecrementStock_ConcurrentSameBook() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	book := randomBook()
	book.Stock = 5
	bookID := suite.insertBook(book)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ok, err := suite.repo.DecrementStock(ctx, bookID, 5)
			assert.NoError(t, err)
			if ok {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())

	stock, err := suite.repo.GetStock(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)
}

func (suite *bookRepositorySuite) TestDecrementStock_NeverNegative() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	const (
		initialStock = 10
		buyers       = 25
	)

	book := randomBook()
	book.Stock = initialStock
	bookID := suite.insertBook(book)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ok, err := suite.repo.DecrementStock(ctx, bookID, 1)
			assert.NoError(t, err)
			if ok {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(initialStock), succeeded.Load())

	stock, err := suite.repo.GetStock(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)
}

func (suite *bookRepositorySuite) insertBook(book domain.Book) uuid.UUID {
	id, err := suite.repo.InsertBook(suite.T().Context(), book)
	suite.Require().NoError(err)
	return id
}

func (suite *bookRepositorySuite) deleteAll() {
	suite.NoError(testutil.Truncate(suite.T().Context(), suite.pool))
}
