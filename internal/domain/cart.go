package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CartSnapshot mirrors the backend cart. It is always replaced wholesale.
type CartSnapshot struct {
	CartID     int64           `json:"cartId"`
	Items      []CartItem      `json:"items"`
	ItemCount  int             `json:"itemCount"`
	TotalItems int             `json:"totalItems"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	IsEmpty    bool            `json:"isEmpty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type CartItem struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"productId"`
	ProductName  string          `json:"productName"`
	ProductPrice decimal.Decimal `json:"productPrice"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// Verify checks the totals the backend is expected to uphold:
// item.subtotal = productPrice * quantity and subtotal = sum(item.subtotal).
// The client never corrects a snapshot that fails this check.
func (c CartSnapshot) Verify() error {
	sum := decimal.Zero
	for _, item := range c.Items {
		want := item.ProductPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if !item.Subtotal.Equal(want) {
			return fmt.Errorf("cart item %d: subtotal %s != %s x %d", item.ID, item.Subtotal, item.ProductPrice, item.Quantity)
		}
		sum = sum.Add(item.Subtotal)
	}
	if !c.Subtotal.Equal(sum) {
		return fmt.Errorf("cart %d: subtotal %s != sum of items %s", c.CartID, c.Subtotal, sum)
	}
	return nil
}
