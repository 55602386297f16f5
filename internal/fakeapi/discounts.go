package fakeapi

import (
	"cmp"
	"context"
	"fmt"
	"sort"
	"strings"

	"commerce-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// DiscountQuery filters the admin discount list.
type DiscountQuery struct {
	Code   string
	Active *bool
	Paging
}

var hundred = decimal.NewFromInt(100)

func (b *Backend) ListDiscounts(_ context.Context, q DiscountQuery) domain.Page[domain.Discount] {
	b.mu.Lock()
	defer b.mu.Unlock()
	code := strings.ToUpper(strings.TrimSpace(q.Code))
	items := make([]domain.Discount, 0, len(b.discounts))
	for _, d := range b.discounts {
		if code != "" && !strings.Contains(d.Code, code) {
			continue
		}
		if q.Active != nil && d.Active != *q.Active {
			continue
		}
		items = append(items, *d)
	}
	sort.SliceStable(items, func(i, j int) bool {
		var c int
		switch q.SortBy {
		case "code":
			c = cmp.Compare(items[i].Code, items[j].Code)
		case "createdAt":
			c = items[i].CreatedAt.Compare(items[j].CreatedAt)
		}
		if c != 0 {
			return q.order(c)
		}
		return q.order(cmp.Compare(items[i].ID, items[j].ID))
	})
	return domain.NewPage(items, q.Page, q.Size)
}

func (b *Backend) GetDiscount(_ context.Context, id int64) (*domain.Discount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.discounts[id]
	if !ok {
		return nil, fmt.Errorf("không tìm thấy mã giảm giá %d: %w", id, domain.ErrNotFound)
	}
	out := *d
	return &out, nil
}

func (b *Backend) CreateDiscount(_ context.Context, in domain.DiscountInput) (*domain.Discount, error) {
	if err := validateDiscount(in); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if b.discountByCodeLocked(code) != nil {
		return nil, fmt.Errorf("mã %s đã tồn tại: %w", code, domain.ErrAlreadyExists)
	}
	b.nextDiscount++
	d := &domain.Discount{ID: b.nextDiscount, CreatedAt: b.now()}
	applyDiscount(d, in)
	b.discounts[d.ID] = d
	out := *d
	return &out, nil
}

func (b *Backend) UpdateDiscount(_ context.Context, id int64, in domain.DiscountInput) (*domain.Discount, error) {
	if err := validateDiscount(in); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.discounts[id]
	if !ok {
		return nil, fmt.Errorf("không tìm thấy mã giảm giá %d: %w", id, domain.ErrNotFound)
	}
	if other := b.discountByCodeLocked(strings.ToUpper(strings.TrimSpace(in.Code))); other != nil && other.ID != id {
		return nil, fmt.Errorf("mã %s đã tồn tại: %w", other.Code, domain.ErrAlreadyExists)
	}
	applyDiscount(d, in)
	out := *d
	return &out, nil
}

func (b *Backend) DeleteDiscount(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.discounts[id]; !ok {
		return fmt.Errorf("không tìm thấy mã giảm giá %d: %w", id, domain.ErrNotFound)
	}
	delete(b.discounts, id)
	return nil
}

// ValidateDiscount answers the checkout's advisory check. A refused code is
// a normal result with IsValid=false, not an error.
func (b *Backend) ValidateDiscount(_ context.Context, req domain.ValidateDiscountRequest) domain.DiscountValidationResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, amount, reason := b.priceDiscountLocked(req.Code, req.OrderAmount)
	if reason != "" {
		return domain.DiscountValidationResult{IsValid: false, Message: reason}
	}
	out := *d
	return domain.DiscountValidationResult{IsValid: true, DiscountAmount: &amount, Discount: &out, Message: "Áp dụng mã giảm giá thành công"}
}

// priceDiscountLocked returns the discount and its amount for orderAmount, or
// the reason the code does not apply.
func (b *Backend) priceDiscountLocked(code string, orderAmount decimal.Decimal) (*domain.Discount, decimal.Decimal, string) {
	d := b.discountByCodeLocked(strings.ToUpper(strings.TrimSpace(code)))
	if d == nil {
		return nil, decimal.Zero, "Mã giảm giá không tồn tại"
	}
	now := b.now()
	switch {
	case !d.Active:
		return nil, decimal.Zero, "Mã giảm giá đã bị vô hiệu hóa"
	case d.StartDate != nil && now.Before(*d.StartDate):
		return nil, decimal.Zero, "Mã giảm giá chưa có hiệu lực"
	case d.EndDate != nil && now.After(*d.EndDate):
		return nil, decimal.Zero, "Mã giảm giá đã hết hạn"
	case d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit:
		return nil, decimal.Zero, "Mã giảm giá đã hết lượt sử dụng"
	case d.MinOrderAmount != nil && orderAmount.LessThan(*d.MinOrderAmount):
		return nil, decimal.Zero, fmt.Sprintf("Đơn hàng tối thiểu %s để dùng mã này", d.MinOrderAmount.StringFixed(2))
	}
	var amount decimal.Decimal
	if d.Type == domain.DiscountPercentage {
		amount = orderAmount.Mul(d.Value).Div(hundred).Round(2)
		if d.MaxDiscountAmount != nil && amount.GreaterThan(*d.MaxDiscountAmount) {
			amount = *d.MaxDiscountAmount
		}
	} else {
		amount = decimal.Min(d.Value, orderAmount)
	}
	return d, amount, ""
}

func (b *Backend) discountByCodeLocked(code string) *domain.Discount {
	for _, d := range b.discounts {
		if d.Code == code {
			return d
		}
	}
	return nil
}

func applyDiscount(d *domain.Discount, in domain.DiscountInput) {
	d.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	d.Description = strings.TrimSpace(in.Description)
	d.Type = in.Type
	d.Value = in.Value
	d.MinOrderAmount = in.MinOrderAmount
	d.MaxDiscountAmount = in.MaxDiscountAmount
	d.UsageLimit = in.UsageLimit
	d.StartDate = in.StartDate
	d.EndDate = in.EndDate
	d.Active = in.Active
}

func validateDiscount(in domain.DiscountInput) error {
	if strings.TrimSpace(in.Code) == "" {
		return fmt.Errorf("mã giảm giá là bắt buộc: %w", domain.ErrInvalidInput)
	}
	switch in.Type {
	case domain.DiscountPercentage:
		if !in.Value.IsPositive() || in.Value.GreaterThan(hundred) {
			return fmt.Errorf("phần trăm giảm phải trong khoảng 0-100: %w", domain.ErrInvalidInput)
		}
	case domain.DiscountFixed:
		if !in.Value.IsPositive() {
			return fmt.Errorf("số tiền giảm phải lớn hơn 0: %w", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("loại giảm giá không hợp lệ %q: %w", in.Type, domain.ErrInvalidInput)
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return fmt.Errorf("ngày kết thúc phải sau ngày bắt đầu: %w", domain.ErrInvalidInput)
	}
	return nil
}
