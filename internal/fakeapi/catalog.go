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

// ProductQuery is the catalog filter accepted by ListProducts.
type ProductQuery struct {
	Keyword    string
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	ActiveOnly bool
	Paging
}

// Paging is the zero-based page request shared by every list endpoint.
type Paging struct {
	Page          int
	Size          int
	SortBy        string
	SortDirection string
}

// order turns a comparison into a less-than answer in the requested direction.
func (p Paging) order(c int) bool {
	if strings.EqualFold(p.SortDirection, "desc") {
		return c > 0
	}
	return c < 0
}

func (b *Backend) ListProducts(_ context.Context, q ProductQuery) domain.Page[domain.Product] {
	b.mu.Lock()
	defer b.mu.Unlock()
	kw := strings.ToLower(strings.TrimSpace(q.Keyword))
	items := make([]domain.Product, 0, len(b.products))
	for _, p := range b.products {
		if q.ActiveOnly && !p.Active {
			continue
		}
		if kw != "" && !strings.Contains(strings.ToLower(p.Name), kw) && !strings.Contains(strings.ToLower(p.Description), kw) {
			continue
		}
		if q.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *q.CategoryID) {
			continue
		}
		if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
			continue
		}
		items = append(items, *p)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if c := compareProducts(items[i], items[j], q.SortBy); c != 0 {
			return q.order(c)
		}
		return items[i].ID < items[j].ID
	})
	return domain.NewPage(items, q.Page, q.Size)
}

func compareProducts(a, c domain.Product, key string) int {
	switch key {
	case "price":
		return a.Price.Cmp(c.Price)
	case "createdAt":
		return a.CreatedAt.Compare(c.CreatedAt)
	case "stockQuantity":
		return cmp.Compare(a.StockQuantity, c.StockQuantity)
	case "name":
		return cmp.Compare(a.Name, c.Name)
	default:
		return cmp.Compare(a.ID, c.ID)
	}
}

func (b *Backend) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[id]
	if !ok {
		return nil, fmt.Errorf("không tìm thấy sản phẩm %d: %w", id, domain.ErrNotFound)
	}
	out := *p
	return &out, nil
}

func (b *Backend) ListCategories(_ context.Context) []domain.Category {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Category, 0, len(b.categories))
	for _, c := range b.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddCategory registers a category and returns it.
func (b *Backend) AddCategory(_ context.Context, name, description string) domain.Category {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextCategory++
	c := domain.Category{ID: b.nextCategory, Name: name, Description: description}
	b.categories[c.ID] = c
	return c
}

// CreateProduct adds a product; a product whose SKU already exists is
// updated in place instead, which keeps catalog imports idempotent.
func (b *Backend) CreateProduct(_ context.Context, in domain.ProductInput) (*domain.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkCategoryLocked(in.CategoryID); err != nil {
		return nil, err
	}
	if sku := strings.TrimSpace(in.SKU); sku != "" {
		for _, p := range b.products {
			if p.SKU == sku {
				b.applyProductLocked(p, in)
				out := *p
				return &out, nil
			}
		}
	}
	now := b.now()
	b.nextProduct++
	p := &domain.Product{ID: b.nextProduct, Active: true, CreatedAt: now}
	b.applyProductLocked(p, in)
	b.products[p.ID] = p
	out := *p
	return &out, nil
}

func (b *Backend) UpdateProduct(_ context.Context, id int64, in domain.ProductInput) (*domain.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[id]
	if !ok {
		return nil, fmt.Errorf("không tìm thấy sản phẩm %d: %w", id, domain.ErrNotFound)
	}
	if err := b.checkCategoryLocked(in.CategoryID); err != nil {
		return nil, err
	}
	b.applyProductLocked(p, in)
	out := *p
	return &out, nil
}

// DeleteProduct deactivates the product so that past orders keep their
// references.
func (b *Backend) DeleteProduct(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[id]
	if !ok {
		return fmt.Errorf("không tìm thấy sản phẩm %d: %w", id, domain.ErrNotFound)
	}
	p.Active = false
	p.UpdatedAt = b.now()
	return nil
}

func (b *Backend) checkCategoryLocked(id *int64) error {
	if id == nil {
		return nil
	}
	if _, ok := b.categories[*id]; !ok {
		return fmt.Errorf("danh mục %d không tồn tại: %w", *id, domain.ErrInvalidInput)
	}
	return nil
}

func (b *Backend) applyProductLocked(p *domain.Product, in domain.ProductInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Price = in.Price
	p.StockQuantity = in.StockQuantity
	p.SKU = strings.TrimSpace(in.SKU)
	p.ImageURL = strings.TrimSpace(in.ImageURL)
	p.CategoryID = in.CategoryID
	p.CategoryName = ""
	if in.CategoryID != nil {
		p.CategoryName = b.categories[*in.CategoryID].Name
	}
	p.Active = true
	p.UpdatedAt = b.now()
}

func validateProduct(in domain.ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("tên sản phẩm là bắt buộc: %w", domain.ErrInvalidInput)
	}
	if !in.Price.IsPositive() {
		return fmt.Errorf("giá sản phẩm phải lớn hơn 0: %w", domain.ErrInvalidInput)
	}
	if in.StockQuantity < 0 {
		return fmt.Errorf("số lượng tồn kho không hợp lệ: %w", domain.ErrInvalidInput)
	}
	return nil
}
