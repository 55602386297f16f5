// Package app builds the client stack once and hands out the pieces.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"commerce-storefront/internal/apiclient"
	"commerce-storefront/internal/checkout"
	"commerce-storefront/internal/config"
	"commerce-storefront/internal/db"
	"commerce-storefront/internal/domain"
	"commerce-storefront/internal/migrate"
	"commerce-storefront/internal/nav"
	"commerce-storefront/internal/session"
	"commerce-storefront/internal/storage"
	"commerce-storefront/internal/store/cart"
	"commerce-storefront/internal/store/discount"
	"commerce-storefront/internal/store/order"
	"commerce-storefront/internal/store/product"
	"github.com/redis/go-redis/v9"
)

// App owns every store and the shared client. Construct it with New or
// NewWithStorage; there are no package-level instances.
type App struct {
	Config  config.Config
	Storage storage.Storage
	Nav     *nav.History
	Client  *apiclient.Client

	Session     *session.Service
	Cart        *cart.Store
	Orders      *order.Store
	AdminOrders *order.Store
	Products    *product.Store
	Discounts   *discount.Store
	Checkout    *checkout.Flow

	closers []func()
}

// New opens the configured storage backend and builds the stack on it.
func New(ctx context.Context, cfg config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	st, closeStorage, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := NewWithStorage(cfg, st, logger)
	a.closers = append(a.closers, closeStorage)
	return a, nil
}

// NewWithStorage builds the stack on an already opened storage.
func NewWithStorage(cfg config.Config, st storage.Storage, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	history := nav.NewHistory(nav.PathHome)
	history.OnNavigate(func(from, to string) {
		logger.Printf("nav: %s -> %s", from, to)
	})

	client := apiclient.New(apiclient.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.RequestTimeout,
	}, st, history, logger)

	cartStore := cart.New(client, st, logger)
	discounts := discount.New(client, logger)
	orders := order.New(client, order.ScopeCustomer, logger)
	sess := session.New(client, st, history, logger)
	client.OnUnauthenticated(sess.Forget)

	return &App{
		Config:      cfg,
		Storage:     st,
		Nav:         history,
		Client:      client,
		Session:     sess,
		Cart:        cartStore,
		Orders:      orders,
		AdminOrders: order.New(client, order.ScopeAdmin, logger),
		Products:    product.New(client, logger),
		Discounts:   discounts,
		Checkout:    checkout.New(cartStore, discounts, orders, st, history, logger),
	}
}

// Restore reloads the persisted session and cart snapshot. A missing session
// is not an error.
func (a *App) Restore(ctx context.Context) error {
	if _, err := a.Session.Current(ctx); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("restore session: %w", err)
	}
	return a.Cart.Restore(ctx)
}

// Close releases the storage backend.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// OpenStorage connects the backend named by cfg.StorageBackend. The returned
// func closes it.
func OpenStorage(ctx context.Context, cfg config.Config, logger *log.Logger) (storage.Storage, func(), error) {
	switch cfg.StorageBackend {
	case "", config.StorageMemory:
		return storage.NewMemory(), func() {}, nil
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		return storage.NewRedis(client, cfg.StorageNamespace), func() { _ = client.Close() }, nil
	case config.StoragePostgres:
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
		if err := migrate.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		return storage.NewPostgres(pool, cfg.StorageNamespace, logger), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q: %w", cfg.StorageBackend, domain.ErrInvalidInput)
	}
}
