package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	SKU           string          `json:"sku,omitempty"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	CategoryID    *int64          `json:"categoryId,omitempty"`
	CategoryName  string          `json:"categoryName,omitempty"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProductInput is the admin create/update body.
type ProductInput struct {
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	SKU           string          `json:"sku,omitempty"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	CategoryID    *int64          `json:"categoryId,omitempty"`
}
