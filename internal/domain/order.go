package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is owned by the backend; the client only reads it.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// CanCancelOrder gates the cancel action: only orders that have not shipped.
func CanCancelOrder(status OrderStatus) bool {
	return status == OrderPending || status == OrderConfirmed
}

type OrderSummary struct {
	OrderID       int64           `json:"orderId"`
	OrderNumber   string          `json:"orderNumber"`
	Status        OrderStatus     `json:"status"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	ItemCount     int             `json:"itemCount"`
	CustomerName  string          `json:"customerName,omitempty"`
	CustomerEmail string          `json:"customerEmail,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type OrderItem struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"productId"`
	ProductName  string          `json:"productName"`
	ProductPrice decimal.Decimal `json:"productPrice"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type OrderDetail struct {
	OrderID         int64            `json:"orderId"`
	OrderNumber     string           `json:"orderNumber"`
	Status          OrderStatus      `json:"status"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	DiscountAmount  *decimal.Decimal `json:"discountAmount,omitempty"`
	DiscountCode    string           `json:"discountCode,omitempty"`
	TotalAmount     decimal.Decimal  `json:"totalAmount"`
	Items           []OrderItem      `json:"items"`
	ShippingAddress string           `json:"shippingAddress"`
	CustomerName    string           `json:"customerName"`
	CustomerEmail   string           `json:"customerEmail"`
	PhoneNumber     string           `json:"phoneNumber,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Summary projects a detail record onto the list shape.
func (o OrderDetail) Summary() OrderSummary {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return OrderSummary{
		OrderID:       o.OrderID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		TotalAmount:   o.TotalAmount,
		ItemCount:     count,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		CreatedAt:     o.CreatedAt,
	}
}

// CreateOrderRequest is the order-create body. It carries the raw discount
// code only; the backend derives the discount amount itself.
type CreateOrderRequest struct {
	ShippingAddress string `json:"shippingAddress"`
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	Notes           string `json:"notes,omitempty"`
	DiscountCode    string `json:"discountCode,omitempty"`
}

// UpdateOrderStatusRequest is the admin status change body.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
	Notes  string      `json:"notes,omitempty"`
}
