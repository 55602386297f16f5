package order

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"commerce-storefront/internal/apiclient"
	"commerce-storefront/internal/domain"
	"commerce-storefront/internal/nav"
	"commerce-storefront/internal/storage"
)

type recorded struct {
	method string
	path   string
	query  string
	body   map[string]interface{}
}

type backend struct {
	mu       sync.Mutex
	requests []recorded
	respond  func(w http.ResponseWriter, r *http.Request)
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
	}
	b.mu.Lock()
	b.requests = append(b.requests, rec)
	b.mu.Unlock()
	b.respond(w, r)
}

func (b *backend) all() []recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recorded(nil), b.requests...)
}

const (
	orderPage   = `{"success":true,"data":{"content":[{"orderId":1,"orderNumber":"ORD-1","status":"PENDING","totalAmount":20,"itemCount":2}],"totalElements":1,"totalPages":1,"number":0,"size":10}}`
	orderDetail = `{"success":true,"data":{"orderId":1,"orderNumber":"ORD-1","status":"%s","subtotal":20,"totalAmount":20,"items":[]}}`
)

func defaultRespond(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && (r.URL.Path == "/api/orders" || r.URL.Path == "/api/admin/orders") {
		io.WriteString(w, orderPage)
		return
	}
	status := "PENDING"
	switch {
	case strings.HasSuffix(r.URL.Path, "/cancel"):
		status = "CANCELLED"
	case strings.HasSuffix(r.URL.Path, "/status"):
		status = "SHIPPED"
	}
	io.WriteString(w, strings.Replace(orderDetail, "%s", status, 1))
}

func newTestStore(t *testing.T, scope Scope, respond func(http.ResponseWriter, *http.Request)) (*Store, *backend, *storage.Memory, *nav.History) {
	t.Helper()
	b := &backend{respond: respond}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	mem := storage.NewMemory()
	history := nav.NewHistory(nav.PathOrders)
	client := apiclient.New(apiclient.Config{BaseURL: srv.URL}, mem, history, nil)
	return New(client, scope, nil), b, mem, history
}

func TestFetchListSendsPagingAndSort(t *testing.T) {
	s, b, _, _ := newTestStore(t, ScopeCustomer, defaultRespond)
	if err := s.FetchList(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	reqs := b.all()
	if len(reqs) != 1 || reqs[0].path != "/api/orders" {
		t.Fatalf("unexpected requests %+v", reqs)
	}
	if reqs[0].query != "page=0&size=10&sortBy=createdAt&sortDirection=desc" {
		t.Fatalf("unexpected query %q", reqs[0].query)
	}
	st := s.Snapshot()
	if len(st.Items) != 1 || st.Items[0].OrderNumber != "ORD-1" || st.Pagination.TotalElements != 1 {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestSetFiltersStatusResetsPage(t *testing.T) {
	s, b, _, _ := newTestStore(t, ScopeCustomer, defaultRespond)
	ctx := context.Background()
	_ = s.SetPage(ctx, 3)
	_ = s.SetFilters(ctx, Criteria{Status: domain.OrderPending})

	reqs := b.all()
	last := reqs[len(reqs)-1]
	if !strings.Contains(last.query, "page=0") || !strings.Contains(last.query, "status=PENDING") {
		t.Fatalf("unexpected query %q", last.query)
	}
	if s.Snapshot().Filters.Page != 0 {
		t.Fatalf("filters page should be 0")
	}
}

func TestCreateSendsCodeOnlyAndRefetches(t *testing.T) {
	s, b, _, _ := newTestStore(t, ScopeCustomer, defaultRespond)
	detail, err := s.Create(context.Background(), domain.CreateOrderRequest{
		ShippingAddress: " 1 Le Loi ",
		CustomerName:    "An",
		CustomerEmail:   "an@example.com",
		DiscountCode:    "SALE10",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if detail.OrderNumber != "ORD-1" {
		t.Fatalf("unexpected detail %+v", detail)
	}
	reqs := b.all()
	if len(reqs) != 2 || reqs[0].method != http.MethodPost || reqs[1].method != http.MethodGet {
		t.Fatalf("expected create then list, got %+v", reqs)
	}
	body := reqs[0].body
	if body["discountCode"] != "SALE10" || body["shippingAddress"] != "1 Le Loi" {
		t.Fatalf("unexpected body %v", body)
	}
	if _, ok := body["discountAmount"]; ok {
		t.Fatalf("discount amount must not be sent")
	}
	st := s.Snapshot()
	if st.Current == nil || st.Current.OrderID != 1 || len(st.Items) != 1 {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestCreateRequiresContactFields(t *testing.T) {
	s, b, _, _ := newTestStore(t, ScopeCustomer, defaultRespond)
	_, err := s.Create(context.Background(), domain.CreateOrderRequest{CustomerName: "An"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(b.all()) != 0 {
		t.Fatalf("no request expected")
	}
}

func TestCancelIsGatedByLoadedStatus(t *testing.T) {
	shipped := func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, strings.Replace(orderDetail, "%s", "SHIPPED", 1))
	}
	s, b, _, _ := newTestStore(t, ScopeCustomer, shipped)
	ctx := context.Background()
	if _, err := s.FetchByID(ctx, 1); err != nil {
		t.Fatalf("fetch by id: %v", err)
	}
	if _, err := s.Cancel(ctx, 1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected gating error, got %v", err)
	}
	if len(b.all()) != 1 {
		t.Fatalf("cancel should not reach the backend")
	}
}

func TestCancelPendingOrder(t *testing.T) {
	s, b, _, _ := newTestStore(t, ScopeCustomer, defaultRespond)
	detail, err := s.Cancel(context.Background(), 1)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if detail.Status != domain.OrderCancelled {
		t.Fatalf("unexpected status %s", detail.Status)
	}
	if reqs := b.all(); reqs[0].method != http.MethodPut || reqs[0].path != "/api/orders/1/cancel" {
		t.Fatalf("unexpected request %+v", reqs[0])
	}
}

func TestAdminScopeAndStatusUpdate(t *testing.T) {
	s, b, _, _ := newTestStore(t, ScopeAdmin, defaultRespond)
	ctx := context.Background()
	_ = s.FetchList(ctx)
	detail, err := s.UpdateStatus(ctx, 1, domain.OrderShipped, " handed to courier ")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if detail.Status != domain.OrderShipped {
		t.Fatalf("unexpected status %s", detail.Status)
	}
	reqs := b.all()
	if reqs[0].path != "/api/admin/orders" {
		t.Fatalf("admin list should use the admin path, got %s", reqs[0].path)
	}
	if reqs[1].path != "/api/admin/orders/1/status" || reqs[1].body["status"] != "SHIPPED" || reqs[1].body["notes"] != "handed to courier" {
		t.Fatalf("unexpected status request %+v", reqs[1])
	}
	if _, err := s.UpdateStatus(ctx, 1, "LOST", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid status error, got %v", err)
	}
}

// A 401 from any store action clears the session and redirects to login.
// The store also records its fallback message.
func TestUnauthorizedClearsSessionAndRedirects(t *testing.T) {
	unauthorized := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}
	s, _, mem, history := newTestStore(t, ScopeCustomer, unauthorized)
	ctx := context.Background()
	_ = mem.Set(ctx, storage.KeyToken, "expired")
	_ = mem.Set(ctx, storage.KeyUser, `{"id":1}`)

	err := s.FetchList(ctx)
	if !errors.Is(err, apiclient.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if _, err := mem.Get(ctx, storage.KeyToken); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("token should be removed")
	}
	if _, err := mem.Get(ctx, storage.KeyUser); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("user should be removed")
	}
	if history.Location() != nav.PathLogin {
		t.Fatalf("expected redirect to login, at %s", history.Location())
	}
	if got := s.Snapshot().Error; got != msgList {
		t.Fatalf("unexpected store error %q", got)
	}
}
