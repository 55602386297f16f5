// Package fakeapi is an in-memory implementation of the storefront REST
// backend. It serves local development and the client's integration tests.
// Its pricing, stock and discount rules are fixtures, not a reference.
package fakeapi

import (
	"errors"
	"sync"
	"time"

	"commerce-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the bearer token is unknown or expired.
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden is returned for admin operations by non-admins.
	ErrForbidden = errors.New("forbidden")
)

type user struct {
	summary      domain.UserSummary
	passwordHash string
}

type cartLine struct {
	id        int64
	productID int64
	quantity  int
	addedAt   time.Time
}

type cart struct {
	id        int64
	userID    int64
	lines     []cartLine
	createdAt time.Time
	updatedAt time.Time
}

type order struct {
	detail domain.OrderDetail
	userID int64
}

// Backend holds every resource behind one mutex.
type Backend struct {
	mu sync.Mutex

	now    func() time.Time
	tokens *tokenManager

	users      map[int64]*user
	emails     map[string]int64
	products   map[int64]*domain.Product
	categories map[int64]domain.Category
	carts      map[int64]*cart
	orders     map[int64]*order
	discounts  map[int64]*domain.Discount

	nextUser     int64
	nextProduct  int64
	nextCategory int64
	nextCart     int64
	nextLine     int64
	nextOrder    int64
	nextDiscount int64
}

// Option customises a Backend.
type Option func(*Backend)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(b *Backend) { b.tokens.ttl = ttl }
}

func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		now:        func() time.Time { return time.Now().UTC() },
		users:      make(map[int64]*user),
		emails:     make(map[string]int64),
		products:   make(map[int64]*domain.Product),
		categories: make(map[int64]domain.Category),
		carts:      make(map[int64]*cart),
		orders:     make(map[int64]*order),
		discounts:  make(map[int64]*domain.Discount),
	}
	b.tokens = newTokenManager(48 * time.Hour)
	for _, opt := range opts {
		opt(b)
	}
	b.tokens.now = b.now
	return b
}

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
