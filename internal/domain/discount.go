package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED_AMOUNT"
)

type Discount struct {
	ID                int64            `json:"id"`
	Code              string           `json:"code"`
	Description       string           `json:"description,omitempty"`
	Type              DiscountType     `json:"discountType"`
	Value             decimal.Decimal  `json:"discountValue"`
	MinOrderAmount    *decimal.Decimal `json:"minOrderAmount,omitempty"`
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount,omitempty"`
	UsageLimit        *int             `json:"usageLimit,omitempty"`
	UsedCount         int              `json:"usedCount"`
	StartDate         *time.Time       `json:"startDate,omitempty"`
	EndDate           *time.Time       `json:"endDate,omitempty"`
	Active            bool             `json:"active"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// DiscountInput is the admin create/update body.
type DiscountInput struct {
	Code              string           `json:"code"`
	Description       string           `json:"description,omitempty"`
	Type              DiscountType     `json:"discountType"`
	Value             decimal.Decimal  `json:"discountValue"`
	MinOrderAmount    *decimal.Decimal `json:"minOrderAmount,omitempty"`
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount,omitempty"`
	UsageLimit        *int             `json:"usageLimit,omitempty"`
	StartDate         *time.Time       `json:"startDate,omitempty"`
	EndDate           *time.Time       `json:"endDate,omitempty"`
	Active            bool             `json:"active"`
}

// ValidateDiscountRequest asks the backend to check a code against an amount.
type ValidateDiscountRequest struct {
	Code        string          `json:"code"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
}

// DiscountValidationResult is ephemeral and advisory.
type DiscountValidationResult struct {
	IsValid        bool             `json:"isValid"`
	DiscountAmount *decimal.Decimal `json:"discountAmount,omitempty"`
	Discount       *Discount        `json:"discount,omitempty"`
	Message        string           `json:"message,omitempty"`
}
