package discount

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"commerce-storefront/internal/apiclient"
	"commerce-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(apiclient.New(apiclient.Config{BaseURL: srv.URL}, nil, nil, nil), nil)
}

func TestValidateValidCode(t *testing.T) {
	var body domain.ValidateDiscountRequest
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/discounts/validate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		io.WriteString(w, `{"success":true,"data":{"isValid":true,"discountAmount":8,"discount":{"id":1,"code":"SALE10","discountType":"PERCENTAGE","discountValue":10,"active":true}}}`)
	})

	v, err := s.Validate(context.Background(), " SALE10 ", decimal.NewFromInt(80))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if body.Code != "SALE10" || !body.OrderAmount.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("unexpected request %+v", body)
	}
	if !v.Valid() || v.Amount().String() != "8" || v.Result.Discount.Code != "SALE10" {
		t.Fatalf("unexpected validation %+v", v)
	}
	st := s.ValidationSnapshot()
	if st.IsLoading || st.Current == nil || st.Current.Outcome != OutcomeValid {
		t.Fatalf("unexpected validation state %+v", st)
	}
}

func TestValidateRejectedCode(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"data":{"isValid":false,"message":"Mã đã hết hạn"}}`)
	})
	v, err := s.Validate(context.Background(), "OLD", decimal.NewFromInt(80))
	if err != nil {
		t.Fatalf("a refused code is not an error: %v", err)
	}
	if v.Outcome != OutcomeInvalid || v.Reason != "Mã đã hết hạn" || v.Code != "OLD" {
		t.Fatalf("unexpected validation %+v", v)
	}
	if !v.Amount().IsZero() {
		t.Fatalf("invalid code has no amount")
	}
}

func TestValidateClientErrorIsInvalid(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"success":false,"message":"Đơn hàng chưa đạt giá trị tối thiểu"}`)
	})
	v, err := s.Validate(context.Background(), "BIG", decimal.NewFromInt(5))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if v.Outcome != OutcomeInvalid || v.Reason != "Đơn hàng chưa đạt giá trị tối thiểu" {
		t.Fatalf("unexpected validation %+v", v)
	}
}

func TestValidateServerErrorIsErrorOutcome(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	v, err := s.Validate(context.Background(), "SALE10", decimal.NewFromInt(80))
	if !errors.Is(err, apiclient.ErrServer) {
		t.Fatalf("expected server error, got %v", err)
	}
	if v.Outcome != OutcomeError || v.Reason != msgValidate {
		t.Fatalf("unexpected validation %+v", v)
	}
}

func TestValidateRequiresCode(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	})
	if _, err := s.Validate(context.Background(), "  ", decimal.Zero); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestClearValidation(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"data":{"isValid":true,"discountAmount":1}}`)
	})
	_, _ = s.Validate(context.Background(), "A", decimal.NewFromInt(10))
	s.ClearValidation()
	if s.ValidationSnapshot().Current != nil {
		t.Fatalf("validation should be cleared")
	}
}

func TestAdminListAndCreate(t *testing.T) {
	var paths []string
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		if r.Method == http.MethodGet {
			io.WriteString(w, `{"success":true,"data":{"content":[{"id":1,"code":"SALE10","discountType":"PERCENTAGE","discountValue":10,"active":true}],"totalElements":1,"totalPages":1,"number":0,"size":10}}`)
			return
		}
		io.WriteString(w, `{"success":true,"data":{"id":2,"code":"NEW5","discountType":"FIXED_AMOUNT","discountValue":5,"active":true}}`)
	})
	ctx := context.Background()
	active := true
	if err := s.SetFilters(ctx, Criteria{Active: &active}); err != nil {
		t.Fatalf("set filters: %v", err)
	}
	d, err := s.Create(ctx, domain.DiscountInput{Code: "NEW5", Type: domain.DiscountFixed, Value: decimal.NewFromInt(5), Active: true})
	if err != nil || d.Code != "NEW5" {
		t.Fatalf("unexpected create %+v %v", d, err)
	}
	if paths[0] != "GET /api/admin/discounts?active=true&page=0&size=10&sortBy=createdAt&sortDirection=desc" {
		t.Fatalf("unexpected list request %q", paths[0])
	}
	if paths[1] != "POST /api/admin/discounts?" || len(paths) != 3 {
		t.Fatalf("unexpected requests %v", paths)
	}
	if st := s.Snapshot(); st.Current == nil || st.Current.ID != 2 || len(st.Items) != 1 {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	})
	cases := []domain.DiscountInput{
		{Code: "", Type: domain.DiscountFixed, Value: decimal.NewFromInt(5)},
		{Code: "P", Type: domain.DiscountPercentage, Value: decimal.NewFromInt(120)},
		{Code: "F", Type: domain.DiscountFixed, Value: decimal.Zero},
		{Code: "X", Type: "BOGUS", Value: decimal.NewFromInt(1)},
	}
	for _, in := range cases {
		if _, err := s.Create(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected invalid input for %+v, got %v", in, err)
		}
	}
}
