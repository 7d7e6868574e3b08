package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID          uuid.UUID
	ISBN        string
	Title       string
	Author      string
	Publisher   string
	Price       Money
	Stock       int
	Description string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b Book) Validate() error {
	if strings.TrimSpace(b.ISBN) == "" {
		return NewValidationError("isbn", "is empty")
	}
	if strings.TrimSpace(b.Title) == "" {
		return NewValidationError("title", "is empty")
	}
	if !b.Price.IsPositive() {
		return NewValidationError("price", "must be positive")
	}
	if b.Stock < 0 {
		return NewValidationError("stock", "must not be negative")
	}

	return nil
}

func (b Book) InStock(qty int) bool {
	return qty > 0 && b.Stock >= qty
}

// Page is a 1-based page request used by cached listing reads.
type Page struct {
	Number int
	Size   int
}

func (p Page) Validate() error {
	if p.Number < 1 || p.Size < 1 {
		return NewValidationError("page", "number and size must be positive")
	}
	return nil
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}
