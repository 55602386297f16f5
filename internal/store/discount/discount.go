// Package discount holds the admin discount-code list and the checkout's
// code validation result.
package discount

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"commerce-storefront/internal/apiclient"
	"commerce-storefront/internal/domain"
	"commerce-storefront/internal/store"
	"github.com/shopspring/decimal"
)

const (
	adminBase    = "/api/admin/discounts"
	validatePath = "/api/discounts/validate"

	msgList     = "Không thể tải danh sách mã giảm giá"
	msgDetail   = "Không thể tải thông tin mã giảm giá"
	msgCreate   = "Không thể tạo mã giảm giá"
	msgUpdate   = "Không thể cập nhật mã giảm giá"
	msgDelete   = "Không thể xóa mã giảm giá"
	msgInvalid  = "Mã giảm giá không hợp lệ"
	msgValidate = "Không thể kiểm tra mã giảm giá"
)

// Outcome of a validation attempt.
type Outcome string

const (
	OutcomeValid   Outcome = "valid"
	OutcomeInvalid Outcome = "invalid"
	OutcomeError   Outcome = "error"
)

// Validation is the advisory result shown at checkout. It is never sent back
// to the backend.
type Validation struct {
	Code    string                           `json:"code"`
	Outcome Outcome                          `json:"outcome"`
	Result  *domain.DiscountValidationResult `json:"result,omitempty"`
	Reason  string                           `json:"reason,omitempty"`
}

// Valid reports whether the code was accepted.
func (v Validation) Valid() bool {
	return v.Outcome == OutcomeValid
}

// Amount is the advisory discount amount, zero unless valid.
func (v Validation) Amount() decimal.Decimal {
	if !v.Valid() || v.Result == nil || v.Result.DiscountAmount == nil {
		return decimal.Zero
	}
	return *v.Result.DiscountAmount
}

// ValidationState is the validation slice of the store.
type ValidationState struct {
	Current   *Validation `json:"current"`
	IsLoading bool        `json:"isLoading"`
}

// Criteria filters the admin list.
type Criteria struct {
	Code   string `json:"code,omitempty"`
	Active *bool  `json:"active,omitempty"`
}

func (c Criteria) Apply(q url.Values) {
	if code := strings.TrimSpace(c.Code); code != "" {
		q.Set("code", code)
	}
	if c.Active != nil {
		q.Set("active", strconv.FormatBool(*c.Active))
	}
}

type Store struct {
	*store.Resource[domain.Discount, domain.Discount, Criteria]

	api    store.API
	logger *log.Logger

	vmu        sync.Mutex
	validation *Validation
	validating int
	vseq       uint64
}

func New(api store.API, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Store{api: api, logger: logger}
	s.Resource = store.NewResource[domain.Discount, domain.Discount, Criteria](s.list, store.Options[Criteria]{
		Name: "discounts",
		Defaults: store.Filters[Criteria]{
			Size:          store.DefaultPageSize,
			SortBy:        "createdAt",
			SortDirection: store.SortDesc,
		},
		ListFallback: msgList,
		Logger:       logger,
	})
	return s
}

func (s *Store) list(ctx context.Context, f store.Filters[Criteria]) (domain.Page[domain.Discount], error) {
	var page domain.Page[domain.Discount]
	err := s.api.Get(ctx, adminBase, f.Query(), &page)
	return page, err
}

func (s *Store) FetchByID(ctx context.Context, id int64) (*domain.Discount, error) {
	return s.LoadCurrent(ctx, msgDetail, func(ctx context.Context) (*domain.Discount, error) {
		var d domain.Discount
		if err := s.api.Get(ctx, fmt.Sprintf("%s/%d", adminBase, id), nil, &d); err != nil {
			return nil, err
		}
		return &d, nil
	})
}

func (s *Store) Create(ctx context.Context, in domain.DiscountInput) (*domain.Discount, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.MutateCurrent(ctx, msgCreate, func(ctx context.Context) (*domain.Discount, error) {
		var d domain.Discount
		if err := s.api.Post(ctx, adminBase, in, &d); err != nil {
			return nil, err
		}
		return &d, nil
	})
}

func (s *Store) Update(ctx context.Context, id int64, in domain.DiscountInput) (*domain.Discount, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.MutateCurrent(ctx, msgUpdate, func(ctx context.Context) (*domain.Discount, error) {
		var d domain.Discount
		if err := s.api.Put(ctx, fmt.Sprintf("%s/%d", adminBase, id), in, &d); err != nil {
			return nil, err
		}
		return &d, nil
	})
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.Mutate(ctx, msgDelete, func(ctx context.Context) error {
		return s.api.Delete(ctx, fmt.Sprintf("%s/%d", adminBase, id), nil)
	})
}

// Validate checks code against orderAmount. A code the backend refuses,
// either with isValid=false or with a 4xx, is OutcomeInvalid and returns no
// error. Transport and server failures are OutcomeError and return the error.
func (s *Store) Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (Validation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Validation{}, fmt.Errorf("discount code is required: %w", domain.ErrInvalidInput)
	}

	s.vmu.Lock()
	s.validating++
	s.vseq++
	seq := s.vseq
	s.vmu.Unlock()

	var result domain.DiscountValidationResult
	err := s.api.Post(ctx, validatePath, domain.ValidateDiscountRequest{Code: code, OrderAmount: orderAmount}, &result)

	v := Validation{Code: code}
	var apiErr *apiclient.Error
	switch {
	case err == nil && result.IsValid:
		v.Outcome = OutcomeValid
		v.Result = &result
	case err == nil:
		v.Outcome = OutcomeInvalid
		v.Result = &result
		v.Reason = result.Message
		if v.Reason == "" {
			v.Reason = msgInvalid
		}
	case errors.As(err, &apiErr) && apiErr.Kind == apiclient.KindClient:
		v.Outcome = OutcomeInvalid
		v.Reason = apiclient.Message(err, msgInvalid)
		err = nil
	default:
		v.Outcome = OutcomeError
		v.Reason = apiclient.Message(err, msgValidate)
	}

	s.vmu.Lock()
	s.validating--
	if seq == s.vseq {
		s.validation = &v
	} else {
		s.logger.Printf("discounts: dropped stale validation code=%s", code)
	}
	s.vmu.Unlock()
	return v, err
}

// ValidationSnapshot returns the validation slice.
func (s *Store) ValidationSnapshot() ValidationState {
	s.vmu.Lock()
	defer s.vmu.Unlock()
	out := ValidationState{IsLoading: s.validating > 0}
	if s.validation != nil {
		v := *s.validation
		out.Current = &v
	}
	return out
}

// ClearValidation forgets the last result and supersedes any validation in
// flight.
func (s *Store) ClearValidation() {
	s.vmu.Lock()
	s.vseq++
	s.validation = nil
	s.vmu.Unlock()
}

func validateInput(in domain.DiscountInput) error {
	if strings.TrimSpace(in.Code) == "" {
		return fmt.Errorf("discount code is required: %w", domain.ErrInvalidInput)
	}
	switch in.Type {
	case domain.DiscountPercentage:
		if in.Value.LessThanOrEqual(decimal.Zero) || in.Value.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("percentage must be in (0, 100]: %w", domain.ErrInvalidInput)
		}
	case domain.DiscountFixed:
		if in.Value.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("fixed amount must be positive: %w", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("unknown discount type %q: %w", in.Type, domain.ErrInvalidInput)
	}
	return nil
}
