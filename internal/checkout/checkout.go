// Package checkout drives the three-step checkout: contact details, optional
// discount code, order submission.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/mail"
	"strings"
	"sync"

	"commerce-storefront/internal/apiclient"
	"commerce-storefront/internal/domain"
	"commerce-storefront/internal/nav"
	"commerce-storefront/internal/storage"
	"commerce-storefront/internal/store/discount"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Step is a checkout stage. Steps only move forward.
type Step string

const (
	StepShipping Step = "shipping"
	StepDiscount Step = "discount"
	StepReview   Step = "review"
)

const (
	msgSubmit     = "Không thể đặt hàng"
	msgIncomplete = "Vui lòng nhập đầy đủ thông tin giao hàng"
	msgNoCode     = "Vui lòng nhập mã giảm giá"
)

// ErrWrongStep is returned when an action is not available at the current step.
var ErrWrongStep = errors.New("checkout: action not available at this step")

// ContactForm is the shipping step's local form.
type ContactForm struct {
	ShippingAddress string `json:"shippingAddress"`
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

func (f ContactForm) normalized() ContactForm {
	return ContactForm{
		ShippingAddress: strings.TrimSpace(f.ShippingAddress),
		CustomerName:    strings.TrimSpace(f.CustomerName),
		CustomerEmail:   strings.TrimSpace(f.CustomerEmail),
		PhoneNumber:     strings.TrimSpace(f.PhoneNumber),
		Notes:           strings.TrimSpace(f.Notes),
	}
}

func (f ContactForm) validate() error {
	if f.ShippingAddress == "" || f.CustomerName == "" || f.CustomerEmail == "" {
		return fmt.Errorf("shipping address, name and email are required: %w", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(f.CustomerEmail); err != nil {
		return fmt.Errorf("email %q: %w", f.CustomerEmail, domain.ErrInvalidInput)
	}
	return nil
}

// Cart is the part of the cart store checkout reads and resets.
type Cart interface {
	Subtotal() decimal.Decimal
	Reset()
}

// Discounts validates codes. Results are advisory.
type Discounts interface {
	Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (discount.Validation, error)
	ClearValidation()
}

// Orders places the order.
type Orders interface {
	Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.OrderDetail, error)
}

// State is a snapshot of the flow.
type State struct {
	Step         Step                 `json:"step"`
	Form         ContactForm          `json:"form"`
	DiscountCode string               `json:"discountCode,omitempty"`
	Validation   *discount.Validation `json:"validation,omitempty"`
	IsSubmitting bool                 `json:"isSubmitting"`
	Error        string               `json:"error,omitempty"`
	LastOrder    *domain.OrderDetail  `json:"lastOrder,omitempty"`
}

type Flow struct {
	cart      Cart
	discounts Discounts
	orders    Orders
	storage   storage.Storage
	navigator nav.Navigator
	logger    *log.Logger

	submits singleflight.Group

	mu    sync.Mutex
	state State
}

func New(cart Cart, discounts Discounts, orders Orders, st storage.Storage, navigator nav.Navigator, logger *log.Logger) *Flow {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Flow{
		cart:      cart,
		discounts: discounts,
		orders:    orders,
		storage:   st,
		navigator: navigator,
		logger:    logger,
		state:     State{Step: StepShipping},
	}
}

func (f *Flow) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.state
	if f.state.Validation != nil {
		v := *f.state.Validation
		out.Validation = &v
	}
	return out
}

// SetContact replaces the contact form. Local only.
func (f *Flow) SetContact(form ContactForm) {
	f.mu.Lock()
	f.state.Form = form
	f.mu.Unlock()
}

// Continue advances to the next step without any network call.
func (f *Flow) Continue() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state.Step {
	case StepShipping:
		f.state.Step = StepDiscount
	case StepDiscount:
		f.state.Step = StepReview
	}
	return f.state.Step
}

// SetDiscountCode edits the code field. A validation for a different code
// no longer applies and is dropped.
func (f *Flow) SetDiscountCode(code string) {
	code = strings.TrimSpace(code)
	f.mu.Lock()
	changed := !strings.EqualFold(code, f.state.DiscountCode)
	f.state.DiscountCode = code
	if changed {
		f.state.Validation = nil
	}
	f.mu.Unlock()
	if changed {
		f.discounts.ClearValidation()
	}
}

// ApplyDiscount validates the current code against the cart subtotal. It is
// rejected with ErrWrongStep before the discount step. Invalid and error
// outcomes both land in State.Validation with a reason; the code field is
// kept either way.
func (f *Flow) ApplyDiscount(ctx context.Context) (discount.Validation, error) {
	f.mu.Lock()
	if step := f.state.Step; step == StepShipping {
		f.mu.Unlock()
		return discount.Validation{}, fmt.Errorf("apply discount at step %s: %w", step, ErrWrongStep)
	}
	code := f.state.DiscountCode
	if code == "" {
		f.state.Error = msgNoCode
		f.mu.Unlock()
		return discount.Validation{}, fmt.Errorf("apply discount: %w", domain.ErrInvalidInput)
	}
	f.state.Error = ""
	f.mu.Unlock()

	v, err := f.discounts.Validate(ctx, code, f.cart.Subtotal())

	f.mu.Lock()
	if strings.EqualFold(f.state.DiscountCode, code) {
		f.state.Validation = &v
	}
	f.mu.Unlock()
	if err != nil {
		f.logger.Printf("checkout: validate discount code=%s error=%v", code, err)
	}
	return v, err
}

// DisplayTotal is the advisory total: cart subtotal minus the validated
// discount, never below zero. The backend computes the real total.
func (f *Flow) DisplayTotal() decimal.Decimal {
	subtotal := f.cart.Subtotal()
	f.mu.Lock()
	v := f.state.Validation
	f.mu.Unlock()
	if v == nil {
		return subtotal
	}
	total := subtotal.Sub(v.Amount())
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Submit places the order. Calls made while a submission is in flight share
// its result instead of sending a second request.
func (f *Flow) Submit(ctx context.Context) (*domain.OrderDetail, error) {
	res, err, shared := f.submits.Do("submit", func() (interface{}, error) {
		return f.submit(ctx)
	})
	if shared {
		f.logger.Printf("checkout: coalesced duplicate submit")
	}
	if err != nil {
		return nil, err
	}
	return res.(*domain.OrderDetail), nil
}

func (f *Flow) submit(ctx context.Context) (*domain.OrderDetail, error) {
	f.mu.Lock()
	if f.state.Step != StepReview {
		step := f.state.Step
		f.mu.Unlock()
		return nil, fmt.Errorf("submit at step %s: %w", step, ErrWrongStep)
	}
	form := f.state.Form.normalized()
	if err := form.validate(); err != nil {
		f.state.Error = msgIncomplete
		f.mu.Unlock()
		return nil, err
	}
	req := domain.CreateOrderRequest{
		ShippingAddress: form.ShippingAddress,
		CustomerName:    form.CustomerName,
		CustomerEmail:   form.CustomerEmail,
		PhoneNumber:     form.PhoneNumber,
		Notes:           form.Notes,
	}
	if v := f.state.Validation; v != nil && v.Valid() && strings.EqualFold(v.Code, f.state.DiscountCode) {
		req.DiscountCode = f.state.DiscountCode
	}
	f.state.IsSubmitting = true
	f.state.Error = ""
	f.mu.Unlock()

	detail, err := f.orders.Create(ctx, req)
	if err != nil {
		f.mu.Lock()
		f.state.IsSubmitting = false
		f.state.Error = apiclient.Message(err, msgSubmit)
		f.mu.Unlock()
		f.logger.Printf("checkout: submit order error=%v", err)
		return nil, err
	}

	f.cart.Reset()
	if f.storage != nil {
		if rmErr := f.storage.Remove(context.WithoutCancel(ctx), storage.KeyCart); rmErr != nil {
			f.logger.Printf("checkout: clear persisted cart error=%v", rmErr)
		}
	}
	f.discounts.ClearValidation()

	f.mu.Lock()
	f.state = State{Step: StepShipping, LastOrder: detail}
	f.mu.Unlock()

	f.logger.Printf("checkout: order placed number=%s", detail.OrderNumber)
	if f.navigator != nil {
		f.navigator.Navigate(nav.PathOrders)
	}
	return detail, nil
}
