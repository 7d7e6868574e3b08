package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nikolayk812/bookstore/internal/cache"
	"github.com/nikolayk812/bookstore/internal/config"
	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/nikolayk812/bookstore/internal/events"
	"github.com/nikolayk812/bookstore/internal/httpx"
	"github.com/nikolayk812/bookstore/internal/kafka"
	"github.com/nikolayk812/bookstore/internal/port"
	"github.com/nikolayk812/bookstore/internal/postgres"
	"github.com/nikolayk812/bookstore/internal/repository"
	"github.com/nikolayk812/bookstore/internal/service"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 5 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config.Load", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})).
		With("service", cfg.ServiceName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("run", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	pool, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		return fmt.Errorf("postgres.Connect: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("postgres.Migrate: %w", err)
	}

	var rdb redis.UniversalClient
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis.Ping: %w", err)
		}
	}

	stores := &storeFactory{cfg: cfg, rdb: rdb}
	defer stores.Close()

	pages := cache.NewReadThrough(newStore[[]domain.Book](stores, "books_pages"))
	counts := cache.NewReadThrough(newStore[int](stores, "books_counts"))
	ordersByID := cache.NewReadThrough(newStore[domain.Order](stores, "orders"))
	orderLists := cache.NewReadThrough(newStore[[]domain.Order](stores, "order_lists"))
	orderStats := cache.NewReadThrough(newStore[map[domain.OrderStatus]int](stores, "order_stats"))

	publisher := events.Multi{events.NewInvalidator(pages, counts, ordersByID, orderLists, orderStats)}

	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ServiceName, 1024)
		defer kp.Close()

		publisher = append(publisher, kp)
	}

	books := repository.NewBook(pool)
	orders := repository.NewOrder(pool)
	tx := repository.NewTransactor(pool)

	inventory := service.NewInventory(books, publisher, service.InventoryCaches{
		Pages:    pages,
		Counts:   counts,
		PageTTL:  cfg.BooksPageTTL,
		CountTTL: cfg.BooksCountTTL,
	})
	orderSvc := service.NewOrders(orders, tx, publisher, service.OrderCaches{
		Orders: ordersByID,
		Lists:  orderLists,
		Stats:  orderStats,
		TTL:    cfg.OrdersTTL,
	})
	checkout := service.NewCheckout(books, orders, tx, inventory, orderSvc, publisher)

	router := httpx.NewRouter(httpx.DefaultRequestTimeout)
	handler := &httpx.Handler{Catalog: inventory, Checkout: checkout, Orders: orderSvc}
	handler.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr, "redis", rdb != nil, "kafka", len(cfg.KafkaBrokers) > 0)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("srv.ListenAndServe: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown: %w", err)
	}

	return nil
}

// storeFactory builds the backing store of each cache: redis when configured, process memory otherwise.
type storeFactory struct {
	cfg     config.Config
	rdb     redis.UniversalClient
	closers []func()
}

func newStore[V any](f *storeFactory, name string) port.Cache[V] {
	if f.rdb != nil {
		return cache.NewRedis[V](f.rdb, f.cfg.ServiceName+":"+name, f.cfg.CacheDefaultTTL)
	}

	m := cache.NewMemory[V](
		cache.WithDefaultTTL(f.cfg.CacheDefaultTTL),
		cache.WithSweepInterval(f.cfg.CacheSweepInterval),
	)
	f.closers = append(f.closers, m.Close)
	return m
}

func (f *storeFactory) Close() {
	for _, c := range f.closers {
		c()
	}
}
