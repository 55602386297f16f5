package fakeapi

import (
	"cmp"
	"context"
	"fmt"
	"sort"
	"strings"

	"commerce-storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderQuery filters order lists. A nil UserID lists every user's orders.
type OrderQuery struct {
	UserID *int64
	Status domain.OrderStatus
	Paging
}

// transitions lists the admin status moves the fake backend accepts.
var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderPending:   {domain.OrderConfirmed, domain.OrderCancelled},
	domain.OrderConfirmed: {domain.OrderShipped, domain.OrderCancelled},
	domain.OrderShipped:   {domain.OrderDelivered},
}

func (b *Backend) ListOrders(_ context.Context, q OrderQuery) domain.Page[domain.OrderSummary] {
	b.mu.Lock()
	defer b.mu.Unlock()
	matched := make([]domain.OrderDetail, 0, len(b.orders))
	for _, o := range b.orders {
		if q.UserID != nil && o.userID != *q.UserID {
			continue
		}
		if q.Status != "" && o.detail.Status != q.Status {
			continue
		}
		matched = append(matched, o.detail)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		var c int
		switch q.SortBy {
		case "totalAmount":
			c = matched[i].TotalAmount.Cmp(matched[j].TotalAmount)
		case "orderNumber":
			c = cmp.Compare(matched[i].OrderNumber, matched[j].OrderNumber)
		case "status":
			c = cmp.Compare(matched[i].Status, matched[j].Status)
		}
		if c == 0 {
			c = cmp.Compare(matched[i].OrderID, matched[j].OrderID)
		}
		return q.order(c)
	})
	items := make([]domain.OrderSummary, 0, len(matched))
	for _, d := range matched {
		items = append(items, d.Summary())
	}
	return domain.NewPage(items, q.Page, q.Size)
}

// GetOrder returns an order. A non-nil userID restricts it to that owner.
func (b *Backend) GetOrder(_ context.Context, userID *int64, id int64) (*domain.OrderDetail, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, err := b.orderLocked(userID, id)
	if err != nil {
		return nil, err
	}
	out := o.detail
	return &out, nil
}

// CreateOrder turns the user's cart into an order. The discount amount is
// derived here from the code; the client never sends an amount.
func (b *Backend) CreateOrder(_ context.Context, userID int64, req domain.CreateOrderRequest) (*domain.OrderDetail, error) {
	req.ShippingAddress = strings.TrimSpace(req.ShippingAddress)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	if req.ShippingAddress == "" || req.CustomerName == "" || req.CustomerEmail == "" {
		return nil, fmt.Errorf("vui lòng nhập đầy đủ thông tin giao hàng: %w", domain.ErrInvalidInput)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.cartLocked(userID)
	if len(c.lines) == 0 {
		return nil, fmt.Errorf("giỏ hàng trống: %w", domain.ErrInvalidInput)
	}
	for _, line := range c.lines {
		p := b.products[line.productID]
		if !p.Active {
			return nil, fmt.Errorf("sản phẩm %s không còn bán: %w", p.Name, domain.ErrInvalidInput)
		}
		if line.quantity > p.StockQuantity {
			return nil, stockError(p)
		}
	}

	snap := b.snapshotLocked(c)
	var discount *domain.Discount
	total := snap.Subtotal
	var discountAmount *decimal.Decimal
	if code := strings.TrimSpace(req.DiscountCode); code != "" {
		d, amount, reason := b.priceDiscountLocked(code, snap.Subtotal)
		if reason != "" {
			return nil, fmt.Errorf("%s: %w", reason, domain.ErrInvalidInput)
		}
		discount = d
		discountAmount = &amount
		total = total.Sub(amount)
		if total.IsNegative() {
			total = decimal.Zero
		}
	}

	now := b.now()
	b.nextOrder++
	detail := domain.OrderDetail{
		OrderID:         b.nextOrder,
		OrderNumber:     "ORD-" + strings.ToUpper(uuid.NewString()[:8]),
		Status:          domain.OrderPending,
		Subtotal:        snap.Subtotal,
		DiscountAmount:  discountAmount,
		TotalAmount:     total,
		Items:           make([]domain.OrderItem, 0, len(snap.Items)),
		ShippingAddress: req.ShippingAddress,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		PhoneNumber:     strings.TrimSpace(req.PhoneNumber),
		Notes:           strings.TrimSpace(req.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if discount != nil {
		detail.DiscountCode = discount.Code
		discount.UsedCount++
	}
	for _, item := range snap.Items {
		detail.Items = append(detail.Items, domain.OrderItem{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductPrice: item.ProductPrice,
			Quantity:     item.Quantity,
			Subtotal:     item.Subtotal,
		})
		b.products[item.ProductID].StockQuantity -= item.Quantity
	}
	b.orders[detail.OrderID] = &order{detail: detail, userID: userID}
	c.lines = nil
	c.updatedAt = now

	out := detail
	return &out, nil
}

// CancelOrder cancels the user's own order while it has not shipped.
func (b *Backend) CancelOrder(_ context.Context, userID, id int64) (*domain.OrderDetail, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, err := b.orderLocked(&userID, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanCancelOrder(o.detail.Status) {
		return nil, fmt.Errorf("không thể hủy đơn hàng ở trạng thái %s: %w", o.detail.Status, domain.ErrInvalidInput)
	}
	b.setStatusLocked(o, domain.OrderCancelled, "")
	out := o.detail
	return &out, nil
}

// UpdateOrderStatus is the admin transition.
func (b *Backend) UpdateOrderStatus(_ context.Context, id int64, req domain.UpdateOrderStatusRequest) (*domain.OrderDetail, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("trạng thái không hợp lệ %q: %w", req.Status, domain.ErrInvalidInput)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	o, err := b.orderLocked(nil, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, next := range transitions[o.detail.Status] {
		if next == req.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("không thể chuyển từ %s sang %s: %w", o.detail.Status, req.Status, domain.ErrInvalidInput)
	}
	b.setStatusLocked(o, req.Status, req.Notes)
	out := o.detail
	return &out, nil
}

func (b *Backend) orderLocked(userID *int64, id int64) (*order, error) {
	o, ok := b.orders[id]
	if !ok || (userID != nil && o.userID != *userID) {
		return nil, fmt.Errorf("không tìm thấy đơn hàng %d: %w", id, domain.ErrNotFound)
	}
	return o, nil
}

// setStatusLocked applies a status change and returns stock on cancellation.
func (b *Backend) setStatusLocked(o *order, status domain.OrderStatus, notes string) {
	if status == domain.OrderCancelled {
		for _, item := range o.detail.Items {
			if p, ok := b.products[item.ProductID]; ok {
				p.StockQuantity += item.Quantity
			}
		}
	}
	o.detail.Status = status
	if notes = strings.TrimSpace(notes); notes != "" {
		o.detail.Notes = notes
	}
	o.detail.UpdatedAt = b.now()
}
