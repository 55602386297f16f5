// Package product mirrors the product catalog and its admin operations.
package product

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"commerce-storefront/internal/domain"
	"commerce-storefront/internal/store"
	"github.com/shopspring/decimal"
)

const (
	publicBase = "/api/products"
	adminBase  = "/api/admin/products"

	msgList       = "Không thể tải danh sách sản phẩm"
	msgDetail     = "Không thể tải thông tin sản phẩm"
	msgCreate     = "Không thể tạo sản phẩm"
	msgUpdate     = "Không thể cập nhật sản phẩm"
	msgDelete     = "Không thể xóa sản phẩm"
	msgCategories = "Không thể tải danh mục"
)

// Criteria filters the catalog.
type Criteria struct {
	Keyword    string           `json:"keyword,omitempty"`
	CategoryID *int64           `json:"categoryId,omitempty"`
	MinPrice   *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice   *decimal.Decimal `json:"maxPrice,omitempty"`
}

func (c Criteria) Apply(q url.Values) {
	if kw := strings.TrimSpace(c.Keyword); kw != "" {
		q.Set("keyword", kw)
	}
	if c.CategoryID != nil {
		q.Set("categoryId", strconv.FormatInt(*c.CategoryID, 10))
	}
	if c.MinPrice != nil {
		q.Set("minPrice", c.MinPrice.String())
	}
	if c.MaxPrice != nil {
		q.Set("maxPrice", c.MaxPrice.String())
	}
}

type Store struct {
	*store.Resource[domain.Product, domain.Product, Criteria]

	api store.API
}

func New(api store.API, logger *log.Logger) *Store {
	s := &Store{api: api}
	s.Resource = store.NewResource[domain.Product, domain.Product, Criteria](s.list, store.Options[Criteria]{
		Name: "products",
		Defaults: store.Filters[Criteria]{
			Size:          12,
			SortBy:        "name",
			SortDirection: store.SortAsc,
		},
		ListFallback: msgList,
		Logger:       logger,
	})
	return s
}

func (s *Store) list(ctx context.Context, f store.Filters[Criteria]) (domain.Page[domain.Product], error) {
	var page domain.Page[domain.Product]
	err := s.api.Get(ctx, publicBase, f.Query(), &page)
	return page, err
}

func (s *Store) FetchByID(ctx context.Context, id int64) (*domain.Product, error) {
	return s.LoadCurrent(ctx, msgDetail, func(ctx context.Context) (*domain.Product, error) {
		var p domain.Product
		if err := s.api.Get(ctx, fmt.Sprintf("%s/%d", publicBase, id), nil, &p); err != nil {
			return nil, err
		}
		return &p, nil
	})
}

// Categories lists the categories used by the catalog filter.
func (s *Store) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := s.api.Get(ctx, "/api/categories", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", msgCategories, err)
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.MutateCurrent(ctx, msgCreate, func(ctx context.Context) (*domain.Product, error) {
		var p domain.Product
		if err := s.api.Post(ctx, adminBase, in, &p); err != nil {
			return nil, err
		}
		return &p, nil
	})
}

func (s *Store) Update(ctx context.Context, id int64, in domain.ProductInput) (*domain.Product, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.MutateCurrent(ctx, msgUpdate, func(ctx context.Context) (*domain.Product, error) {
		var p domain.Product
		if err := s.api.Put(ctx, fmt.Sprintf("%s/%d", adminBase, id), in, &p); err != nil {
			return nil, err
		}
		return &p, nil
	})
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.Mutate(ctx, msgDelete, func(ctx context.Context) error {
		return s.api.Delete(ctx, fmt.Sprintf("%s/%d", adminBase, id), nil)
	})
}

func validateInput(in domain.ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("product name is required: %w", domain.ErrInvalidInput)
	}
	if in.Price.IsNegative() || in.StockQuantity < 0 {
		return fmt.Errorf("product price and stock must not be negative: %w", domain.ErrInvalidInput)
	}
	return nil
}
