package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/nikolayk812/bookstore/internal/port"
)

const (
	BooksPrefix  = "books_"
	OrdersPrefix = "orders_"
)

// prefixesByType lists the cached read families each event makes stale.
var prefixesByType = map[domain.EventType][]string{
	domain.EventBookStockChanged:   {BooksPrefix},
	domain.EventBookPriceChanged:   {BooksPrefix},
	domain.EventOrderCreated:       {OrdersPrefix},
	domain.EventOrderStatusChanged: {OrdersPrefix},
	domain.EventOrderPurged:        {OrdersPrefix},
}

// Invalidator clears cached reads made stale by committed mutations.
type Invalidator struct {
	targets []port.PrefixInvalidator
}

func NewInvalidator(targets ...port.PrefixInvalidator) *Invalidator {
	return &Invalidator{targets: targets}
}

func (i *Invalidator) Register(targets ...port.PrefixInvalidator) {
	i.targets = append(i.targets, targets...)
}

func (i *Invalidator) Publish(ctx context.Context, events ...domain.Event) error {
	var errs []error

	for _, prefix := range prefixesFor(events) {
		for _, target := range i.targets {
			removed, err := target.ClearByPrefix(ctx, prefix)
			if err != nil {
				errs = append(errs, fmt.Errorf("ClearByPrefix[%s]: %w", prefix, err))
				continue
			}

			slog.Debug("cache invalidated", "method", "Invalidator.Publish", "prefix", prefix, "removed", removed)
		}
	}

	return errors.Join(errs...)
}

// prefixesFor dedupes prefixes, keeping first-seen order.
func prefixesFor(events []domain.Event) []string {
	seen := make(map[string]struct{})

	var result []string
	for _, e := range events {
		for _, prefix := range prefixesByType[e.Type] {
			if _, ok := seen[prefix]; ok {
				continue
			}
			seen[prefix] = struct{}{}
			result = append(result, prefix)
		}
	}

	return result
}
