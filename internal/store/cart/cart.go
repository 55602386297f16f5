// Package cart mirrors the authenticated user's server-side cart.
package cart

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"commerce-storefront/internal/apiclient"
	"commerce-storefront/internal/domain"
	"commerce-storefront/internal/storage"
	"commerce-storefront/internal/store"
	"github.com/shopspring/decimal"
)

const (
	msgFetch  = "Không thể tải giỏ hàng"
	msgAdd    = "Không thể thêm sản phẩm vào giỏ hàng"
	msgUpdate = "Không thể cập nhật số lượng sản phẩm"
	msgRemove = "Không thể xóa sản phẩm khỏi giỏ hàng"
	msgClear  = "Không thể xóa giỏ hàng"
)

// State is a read-only snapshot of the cart store.
type State struct {
	Cart      *domain.CartSnapshot `json:"cart"`
	IsLoading bool                 `json:"isLoading"`
	Error     string               `json:"error,omitempty"`
}

type addItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// Store holds the last cart snapshot the backend returned. Every mutation
// answers with the full cart, which replaces the local one.
type Store struct {
	api     store.API
	storage storage.Storage
	logger  *log.Logger

	mu       sync.Mutex
	state    State
	inflight int
	seq      uint64
	subs     map[int]func(State)
	nextSub  int
	version  uint64

	notifyMu  sync.Mutex
	delivered uint64
}

func New(api store.API, st storage.Storage, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{
		api:     api,
		storage: st,
		logger:  logger,
		subs:    make(map[int]func(State)),
	}
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	out := s.state
	if s.state.Cart != nil {
		c := *s.state.Cart
		c.Items = append([]domain.CartItem(nil), s.state.Cart.Items...)
		out.Cart = &c
	}
	return out
}

// Subscribe registers fn for every state change. States arrive in order;
// fn must not call actions of the same store synchronously.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// unlockAndNotify releases the lock and delivers the guarded state unless a
// newer one has already been delivered.
func (s *Store) unlockAndNotify() {
	s.version++
	version := s.version
	snap := s.snapshotLocked()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if version < s.delivered {
		return
	}
	s.delivered = version
	for _, fn := range subs {
		fn(snap)
	}
}

// Subtotal is the backend-computed subtotal, zero without a cart.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Cart == nil {
		return decimal.Zero
	}
	return s.state.Cart.Subtotal
}

// ItemCount is the total quantity across lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Cart == nil {
		return 0
	}
	return s.state.Cart.TotalItems
}

func (s *Store) Fetch(ctx context.Context) error {
	return s.run(ctx, msgFetch, func(ctx context.Context, out **domain.CartSnapshot) error {
		return s.api.Get(ctx, "/api/cart", nil, out)
	})
}

func (s *Store) AddItem(ctx context.Context, productID int64, quantity int) error {
	if productID <= 0 || quantity <= 0 {
		return fmt.Errorf("add item product=%d quantity=%d: %w", productID, quantity, domain.ErrInvalidInput)
	}
	return s.run(ctx, msgAdd, func(ctx context.Context, out **domain.CartSnapshot) error {
		return s.api.Post(ctx, "/api/cart/items", addItemRequest{ProductID: productID, Quantity: quantity}, out)
	})
}

func (s *Store) UpdateItem(ctx context.Context, itemID int64, quantity int) error {
	if itemID <= 0 || quantity <= 0 {
		return fmt.Errorf("update item id=%d quantity=%d: %w", itemID, quantity, domain.ErrInvalidInput)
	}
	return s.run(ctx, msgUpdate, func(ctx context.Context, out **domain.CartSnapshot) error {
		return s.api.Put(ctx, fmt.Sprintf("/api/cart/items/%d", itemID), updateItemRequest{Quantity: quantity}, out)
	})
}

func (s *Store) RemoveItem(ctx context.Context, itemID int64) error {
	return s.run(ctx, msgRemove, func(ctx context.Context, out **domain.CartSnapshot) error {
		return s.api.Delete(ctx, fmt.Sprintf("/api/cart/items/%d", itemID), out)
	})
}

// Clear empties the cart on the server.
func (s *Store) Clear(ctx context.Context) error {
	return s.run(ctx, msgClear, func(ctx context.Context, out **domain.CartSnapshot) error {
		return s.api.Delete(ctx, "/api/cart", out)
	})
}

// Reset drops the local snapshot without calling the backend and supersedes
// any request still in flight.
func (s *Store) Reset() {
	s.mu.Lock()
	s.seq++
	s.state.Cart = nil
	s.state.Error = ""
	s.unlockAndNotify()
}

// Restore loads the snapshot persisted by a previous run. A later Fetch
// replaces it with the server's view.
func (s *Store) Restore(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}
	var snap domain.CartSnapshot
	found, err := storage.GetJSON(ctx, s.storage, storage.KeyCart, &snap)
	if err != nil {
		return fmt.Errorf("restore cart: %w", err)
	}
	if !found {
		return nil
	}
	s.mu.Lock()
	s.state.Cart = &snap
	s.unlockAndNotify()
	return nil
}

func (s *Store) run(ctx context.Context, fallback string, call func(ctx context.Context, out **domain.CartSnapshot) error) error {
	s.mu.Lock()
	s.inflight++
	s.seq++
	seq := s.seq
	s.state.IsLoading = true
	s.state.Error = ""
	s.unlockAndNotify()

	var snap *domain.CartSnapshot
	err := call(ctx, &snap)
	if err == nil && snap == nil {
		snap = &domain.CartSnapshot{Items: []domain.CartItem{}, Subtotal: decimal.Zero, IsEmpty: true}
	}
	if err == nil {
		if verr := snap.Verify(); verr != nil {
			s.logger.Printf("cart: inconsistent snapshot from backend error=%v", verr)
		}
	}

	s.mu.Lock()
	s.inflight--
	s.state.IsLoading = s.inflight > 0
	stale := seq != s.seq
	switch {
	case stale:
		s.logger.Printf("cart: dropped stale response seq=%d latest=%d", seq, s.seq)
	case err != nil:
		s.state.Error = apiclient.Message(err, fallback)
		s.logger.Printf("cart: request failed error=%v", err)
	default:
		s.state.Cart = snap
	}
	s.unlockAndNotify()

	if err == nil && !stale {
		s.persist(ctx, snap)
	}
	return err
}

// persist is best effort; the server stays the source of truth.
func (s *Store) persist(ctx context.Context, snap *domain.CartSnapshot) {
	if s.storage == nil {
		return
	}
	if err := storage.SetJSON(ctx, s.storage, storage.KeyCart, snap); err != nil {
		s.logger.Printf("cart: persist snapshot error=%v", err)
	}
}
