package repository_test

import (
	"fmt"
	"sort"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func randomBook() domain.Book {
	return domain.Book{
		ISBN:        fmt.Sprintf("978%010d", gofakeit.Number(0, 999_999_999)),
		Title:       gofakeit.BookTitle(),
		Author:      gofakeit.BookAuthor(),
		Publisher:   gofakeit.Company(),
		Price:       randomPrice(currency.USD),
		Stock:       gofakeit.Number(1, 100),
		Description: gofakeit.BookGenre(),
	}
}

func randomPrice(cur currency.Unit) domain.Money {
	return domain.Money{
		Amount:   decimal.NewFromFloat(gofakeit.Price(1, 100)).Round(2),
		Currency: cur,
	}
}

// randomOrder builds a PENDING-to-be order with one line per book.
func randomOrder(books ...domain.Book) domain.Order {
	cur := currency.USD
	total := domain.ZeroMoney(cur)

	var lines []domain.OrderLine
	for _, b := range books {
		line := domain.OrderLine{
			BookID:    b.ID,
			Quantity:  gofakeit.Number(1, 3),
			UnitPrice: b.Price,
		}
		total, _ = total.Add(line.Subtotal())
		lines = append(lines, line)
	}

	return domain.Order{
		OrderNumber: fmt.Sprintf("ORD%s%04d", gofakeit.Date().Format("20060102150405"), gofakeit.Number(0, 9999)),
		BuyerID:     gofakeit.UUID(),
		Total:       total,
		Lines:       lines,
	}
}

var currencyComparer = cmp.Comparer(func(x, y currency.Unit) bool {
	return x.String() == y.String()
})

func assertBook(t *testing.T, expected, actual domain.Book) {
	t.Helper()

	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.Book{}, "ID", "CreatedAt", "UpdatedAt"),
		currencyComparer,
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)

	assert.NotEqual(t, uuid.Nil, actual.ID)
	assert.False(t, actual.CreatedAt.IsZero())
	assert.False(t, actual.UpdatedAt.IsZero())
}

func assertOrder(t *testing.T, expected, actual domain.Order) {
	t.Helper()

	sortLines := func(lines []domain.OrderLine) []domain.OrderLine {
		sorted := append([]domain.OrderLine(nil), lines...)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].BookID.String() < sorted[j].BookID.String()
		})
		return sorted
	}

	expected.Lines = sortLines(expected.Lines)
	actual.Lines = sortLines(actual.Lines)

	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.Order{}, "ID", "Status", "CreatedAt", "UpdatedAt"),
		cmpopts.IgnoreFields(domain.OrderLine{}, "ID", "OrderID"),
		cmpopts.EquateEmpty(),
		currencyComparer,
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)

	assert.NotEqual(t, uuid.Nil, actual.ID)
	assert.False(t, actual.CreatedAt.IsZero())
	assert.False(t, actual.UpdatedAt.IsZero())
	for _, line := range actual.Lines {
		require.Equal(t, actual.ID, line.OrderID)
	}
}
