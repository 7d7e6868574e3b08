package service_test

import (
	"testing"

	"github.com/nikolayk812/bookstore/internal/cache"
	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/nikolayk812/bookstore/internal/events"
	"github.com/nikolayk812/bookstore/internal/port"
	"github.com/nikolayk812/bookstore/internal/service"
	"golang.org/x/text/currency"
)

type fixture struct {
	db        *memDB
	rec       *recorder
	inventory *service.Inventory
	orders    *service.Orders
	checkout  *service.Checkout
}

func newFixture(t *testing.T, opts ...service.CheckoutOption) *fixture {
	t.Helper()

	db := newMemDB()
	return newFixtureWith(t, db, db.Orders(), opts...)
}

// newFixtureWith lets a test replace the order repository seen outside transactions.
func newFixtureWith(t *testing.T, db *memDB, orders port.OrderRepository, opts ...service.CheckoutOption) *fixture {
	t.Helper()

	pages := newReadThrough[[]domain.Book](t)
	counts := newReadThrough[int](t)
	byID := newReadThrough[domain.Order](t)
	lists := newReadThrough[[]domain.Order](t)
	stats := newReadThrough[map[domain.OrderStatus]int](t)

	rec := &recorder{}
	publisher := events.Multi{
		events.NewInvalidator(pages, counts, byID, lists, stats),
		rec,
	}

	inventory := service.NewInventory(db.Books(), publisher, service.InventoryCaches{
		Pages:  pages,
		Counts: counts,
	})
	orderSvc := service.NewOrders(orders, db, publisher, service.OrderCaches{
		Orders: byID,
		Lists:  lists,
		Stats:  stats,
	})

	return &fixture{
		db:        db,
		rec:       rec,
		inventory: inventory,
		orders:    orderSvc,
		checkout:  service.NewCheckout(db.Books(), orders, db, inventory, orderSvc, publisher, opts...),
	}
}

func newReadThrough[V any](t *testing.T) *cache.ReadThrough[V] {
	m := cache.NewMemory[V]()
	t.Cleanup(m.Close)
	return cache.NewReadThrough[V](m)
}

func usd(amount string) domain.Money {
	return domain.MustMoney(amount, currency.USD)
}
