// Package order mirrors the order collection in the customer or admin scope.
package order

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"commerce-storefront/internal/domain"
	"commerce-storefront/internal/store"
)

// Scope picks which backend collection the store mirrors.
type Scope string

const (
	ScopeCustomer Scope = "customer"
	ScopeAdmin    Scope = "admin"
)

const (
	customerBase = "/api/orders"
	adminBase    = "/api/admin/orders"

	msgList   = "Không thể tải danh sách đơn hàng"
	msgDetail = "Không thể tải thông tin đơn hàng"
	msgCreate = "Không thể tạo đơn hàng"
	msgCancel = "Không thể hủy đơn hàng"
	msgStatus = "Không thể cập nhật trạng thái đơn hàng"
)

// Criteria filters the order list.
type Criteria struct {
	Status domain.OrderStatus `json:"status,omitempty"`
}

func (c Criteria) Apply(q url.Values) {
	if c.Status != "" {
		q.Set("status", string(c.Status))
	}
}

type Store struct {
	*store.Resource[domain.OrderSummary, domain.OrderDetail, Criteria]

	api   store.API
	scope Scope
	base  string
}

func New(api store.API, scope Scope, logger *log.Logger) *Store {
	base := customerBase
	if scope == ScopeAdmin {
		base = adminBase
	} else {
		scope = ScopeCustomer
	}
	s := &Store{api: api, scope: scope, base: base}
	s.Resource = store.NewResource[domain.OrderSummary, domain.OrderDetail, Criteria](s.list, store.Options[Criteria]{
		Name: "orders-" + string(scope),
		Defaults: store.Filters[Criteria]{
			Size:          store.DefaultPageSize,
			SortBy:        "createdAt",
			SortDirection: store.SortDesc,
		},
		ListFallback: msgList,
		Logger:       logger,
	})
	return s
}

func (s *Store) Scope() Scope {
	return s.scope
}

func (s *Store) list(ctx context.Context, f store.Filters[Criteria]) (domain.Page[domain.OrderSummary], error) {
	var page domain.Page[domain.OrderSummary]
	err := s.api.Get(ctx, s.base, f.Query(), &page)
	return page, err
}

func (s *Store) FetchByID(ctx context.Context, id int64) (*domain.OrderDetail, error) {
	return s.LoadCurrent(ctx, msgDetail, func(ctx context.Context) (*domain.OrderDetail, error) {
		var detail domain.OrderDetail
		if err := s.api.Get(ctx, fmt.Sprintf("%s/%d", s.base, id), nil, &detail); err != nil {
			return nil, err
		}
		return &detail, nil
	})
}

// Create places an order for the caller's current cart. Only the raw
// discount code travels with the request; the backend prices the order.
func (s *Store) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.OrderDetail, error) {
	req.ShippingAddress = strings.TrimSpace(req.ShippingAddress)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.DiscountCode = strings.TrimSpace(req.DiscountCode)
	if req.ShippingAddress == "" || req.CustomerName == "" || req.CustomerEmail == "" {
		return nil, fmt.Errorf("create order: shipping address, name and email are required: %w", domain.ErrInvalidInput)
	}
	return s.MutateCurrent(ctx, msgCreate, func(ctx context.Context) (*domain.OrderDetail, error) {
		var detail domain.OrderDetail
		if err := s.api.Post(ctx, customerBase, req, &detail); err != nil {
			return nil, err
		}
		return &detail, nil
	})
}

// Cancel asks the backend to cancel order id. When the order is loaded and
// already past the cancellable statuses no request is sent.
func (s *Store) Cancel(ctx context.Context, id int64) (*domain.OrderDetail, error) {
	if cur := s.Snapshot().Current; cur != nil && cur.OrderID == id && !domain.CanCancelOrder(cur.Status) {
		return nil, fmt.Errorf("cancel order %d in status %s: %w", id, cur.Status, domain.ErrInvalidInput)
	}
	return s.MutateCurrent(ctx, msgCancel, func(ctx context.Context) (*domain.OrderDetail, error) {
		var detail domain.OrderDetail
		if err := s.api.Put(ctx, fmt.Sprintf("%s/%d/cancel", customerBase, id), nil, &detail); err != nil {
			return nil, err
		}
		return &detail, nil
	})
}

// UpdateStatus is the admin status transition. The backend decides whether
// the transition is allowed.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, notes string) (*domain.OrderDetail, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("update order %d: unknown status %q: %w", id, status, domain.ErrInvalidInput)
	}
	body := domain.UpdateOrderStatusRequest{Status: status, Notes: strings.TrimSpace(notes)}
	return s.MutateCurrent(ctx, msgStatus, func(ctx context.Context) (*domain.OrderDetail, error) {
		var detail domain.OrderDetail
		if err := s.api.Put(ctx, fmt.Sprintf("%s/%d/status", adminBase, id), body, &detail); err != nil {
			return nil, err
		}
		return &detail, nil
	})
}
