package product

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"commerce-storefront/internal/apiclient"
	"commerce-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	productPage = `{"success":true,"data":{"content":[{"id":7,"name":"Mug","price":10,"stockQuantity":5,"active":true}],"totalElements":1,"totalPages":1,"number":0,"size":12}}`
	productOne  = `{"success":true,"data":{"id":7,"name":"Mug","price":10,"stockQuantity":5,"active":true}}`
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(apiclient.New(apiclient.Config{BaseURL: srv.URL}, nil, nil, nil), nil)
}

func TestCriteriaApply(t *testing.T) {
	cat := int64(3)
	minPrice := decimal.RequireFromString("5.5")
	q := url.Values{}
	Criteria{Keyword: " mug ", CategoryID: &cat, MinPrice: &minPrice}.Apply(q)
	if q.Get("keyword") != "mug" || q.Get("categoryId") != "3" || q.Get("minPrice") != "5.5" || q.Has("maxPrice") {
		t.Fatalf("unexpected query %s", q.Encode())
	}
}

func TestFetchListAndDetail(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Path+"?"+r.URL.RawQuery)
		mu.Unlock()
		if r.URL.Path == "/api/products" {
			io.WriteString(w, productPage)
			return
		}
		io.WriteString(w, productOne)
	})
	ctx := context.Background()

	if err := s.SetFilters(ctx, Criteria{Keyword: "mug"}); err != nil {
		t.Fatalf("set filters: %v", err)
	}
	p, err := s.FetchByID(ctx, 7)
	if err != nil || p.Name != "Mug" {
		t.Fatalf("unexpected product %+v %v", p, err)
	}
	st := s.Snapshot()
	if len(st.Items) != 1 || st.Current == nil || st.Current.ID != 7 {
		t.Fatalf("unexpected state %+v", st)
	}
	mu.Lock()
	defer mu.Unlock()
	if queries[0] != "/api/products?keyword=mug&page=0&size=12&sortBy=name&sortDirection=asc" {
		t.Fatalf("unexpected list query %q", queries[0])
	}
	if queries[1] != "/api/products/7?" {
		t.Fatalf("unexpected detail request %q", queries[1])
	}
}

func TestAdminMutationsRefetch(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch {
		case r.Method == http.MethodGet:
			io.WriteString(w, productPage)
		case r.Method == http.MethodDelete:
			io.WriteString(w, `{"success":true,"message":"Đã xóa"}`)
		default:
			io.WriteString(w, productOne)
		}
	})
	ctx := context.Background()
	in := domain.ProductInput{Name: "Mug", Price: decimal.NewFromInt(10), StockQuantity: 5}

	if _, err := s.Create(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Update(ctx, 7, in); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Delete(ctx, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := []string{
		"POST /api/admin/products", "GET /api/products",
		"PUT /api/admin/products/7", "GET /api/products",
		"DELETE /api/admin/products/7", "GET /api/products",
	}
	mu.Lock()
	defer mu.Unlock()
	if len(calls) != len(want) {
		t.Fatalf("unexpected calls %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d: got %q want %q", i, calls[i], want[i])
		}
	}
}

func TestCreateValidatesInput(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	})
	_, err := s.Create(context.Background(), domain.ProductInput{Name: " ", Price: decimal.NewFromInt(1)})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	_, err = s.Create(context.Background(), domain.ProductInput{Name: "Mug", Price: decimal.NewFromInt(-1)})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestForbiddenKeepsItems(t *testing.T) {
	forbid := false
	var mu sync.Mutex
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		f := forbid
		mu.Unlock()
		if f {
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `{"success":false,"message":"Bạn không có quyền"}`)
			return
		}
		io.WriteString(w, productPage)
	})
	ctx := context.Background()
	_ = s.FetchList(ctx)

	mu.Lock()
	forbid = true
	mu.Unlock()
	err := s.Delete(ctx, 7)
	if !errors.Is(err, apiclient.ErrAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	st := s.Snapshot()
	if st.Error != "Bạn không có quyền" || len(st.Items) != 1 {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestCategories(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"data":[{"id":1,"name":"Kitchen"}]}`)
	})
	cats, err := s.Categories(context.Background())
	if err != nil || len(cats) != 1 || cats[0].Name != "Kitchen" {
		t.Fatalf("unexpected categories %+v %v", cats, err)
	}
}
