package fakeapi

import (
	"context"
	"fmt"

	"commerce-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// GetCart returns the user's cart, creating an empty one on first use.
func (b *Backend) GetCart(_ context.Context, userID int64) domain.CartSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked(b.cartLocked(userID))
}

func (b *Backend) AddCartItem(_ context.Context, userID, productID int64, quantity int) (domain.CartSnapshot, error) {
	if quantity <= 0 {
		return domain.CartSnapshot{}, fmt.Errorf("số lượng phải lớn hơn 0: %w", domain.ErrInvalidInput)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[productID]
	if !ok || !p.Active {
		return domain.CartSnapshot{}, fmt.Errorf("không tìm thấy sản phẩm %d: %w", productID, domain.ErrNotFound)
	}
	c := b.cartLocked(userID)
	now := b.now()
	for i := range c.lines {
		if c.lines[i].productID != productID {
			continue
		}
		total := c.lines[i].quantity + quantity
		if total > p.StockQuantity {
			return domain.CartSnapshot{}, stockError(p)
		}
		c.lines[i].quantity = total
		c.updatedAt = now
		return b.snapshotLocked(c), nil
	}
	if quantity > p.StockQuantity {
		return domain.CartSnapshot{}, stockError(p)
	}
	b.nextLine++
	c.lines = append(c.lines, cartLine{id: b.nextLine, productID: productID, quantity: quantity, addedAt: now})
	c.updatedAt = now
	return b.snapshotLocked(c), nil
}

func (b *Backend) UpdateCartItem(_ context.Context, userID, itemID int64, quantity int) (domain.CartSnapshot, error) {
	if quantity <= 0 {
		return domain.CartSnapshot{}, fmt.Errorf("số lượng phải lớn hơn 0: %w", domain.ErrInvalidInput)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.cartLocked(userID)
	for i := range c.lines {
		if c.lines[i].id != itemID {
			continue
		}
		p := b.products[c.lines[i].productID]
		if quantity > p.StockQuantity {
			return domain.CartSnapshot{}, stockError(p)
		}
		c.lines[i].quantity = quantity
		c.updatedAt = b.now()
		return b.snapshotLocked(c), nil
	}
	return domain.CartSnapshot{}, fmt.Errorf("không tìm thấy sản phẩm trong giỏ hàng %d: %w", itemID, domain.ErrNotFound)
}

func (b *Backend) RemoveCartItem(_ context.Context, userID, itemID int64) (domain.CartSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.cartLocked(userID)
	for i := range c.lines {
		if c.lines[i].id == itemID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			c.updatedAt = b.now()
			return b.snapshotLocked(c), nil
		}
	}
	return domain.CartSnapshot{}, fmt.Errorf("không tìm thấy sản phẩm trong giỏ hàng %d: %w", itemID, domain.ErrNotFound)
}

func (b *Backend) ClearCart(_ context.Context, userID int64) domain.CartSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.cartLocked(userID)
	c.lines = nil
	c.updatedAt = b.now()
	return b.snapshotLocked(c)
}

func (b *Backend) cartLocked(userID int64) *cart {
	if c, ok := b.carts[userID]; ok {
		return c
	}
	now := b.now()
	b.nextCart++
	c := &cart{id: b.nextCart, userID: userID, createdAt: now, updatedAt: now}
	b.carts[userID] = c
	return c
}

// snapshotLocked prices the cart with current product prices.
func (b *Backend) snapshotLocked(c *cart) domain.CartSnapshot {
	snap := domain.CartSnapshot{
		CartID:    c.id,
		Items:     make([]domain.CartItem, 0, len(c.lines)),
		ItemCount: len(c.lines),
		Subtotal:  decimal.Zero,
		IsEmpty:   len(c.lines) == 0,
		CreatedAt: c.createdAt,
		UpdatedAt: c.updatedAt,
	}
	for _, line := range c.lines {
		p := b.products[line.productID]
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(line.quantity)))
		snap.Items = append(snap.Items, domain.CartItem{
			ID:           line.id,
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductPrice: p.Price,
			Quantity:     line.quantity,
			Subtotal:     subtotal,
		})
		snap.TotalItems += line.quantity
		snap.Subtotal = snap.Subtotal.Add(subtotal)
	}
	return snap
}

func stockError(p *domain.Product) error {
	return fmt.Errorf("sản phẩm %s chỉ còn %d trong kho: %w", p.Name, p.StockQuantity, domain.ErrInvalidInput)
}
