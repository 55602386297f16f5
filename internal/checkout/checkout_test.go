package checkout

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"commerce-storefront/internal/apiclient"
	"commerce-storefront/internal/domain"
	"commerce-storefront/internal/nav"
	"commerce-storefront/internal/storage"
	"commerce-storefront/internal/store/discount"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCart struct {
	mu       sync.Mutex
	subtotal decimal.Decimal
	resets   int
}

func (c *stubCart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subtotal
}

func (c *stubCart) Reset() {
	c.mu.Lock()
	c.resets++
	c.subtotal = decimal.Zero
	c.mu.Unlock()
}

type stubDiscounts struct {
	result  discount.Validation
	err     error
	amounts []decimal.Decimal
	clears  int
}

func (d *stubDiscounts) Validate(_ context.Context, code string, amount decimal.Decimal) (discount.Validation, error) {
	d.amounts = append(d.amounts, amount)
	v := d.result
	v.Code = code
	return v, d.err
}

func (d *stubDiscounts) ClearValidation() { d.clears++ }

type stubOrders struct {
	calls   atomic.Int32
	mu      sync.Mutex
	last    domain.CreateOrderRequest
	err     error
	release chan struct{}
	entered chan struct{}
}

func (o *stubOrders) Create(_ context.Context, req domain.CreateOrderRequest) (*domain.OrderDetail, error) {
	o.calls.Add(1)
	o.mu.Lock()
	o.last = req
	err := o.err
	o.mu.Unlock()
	if o.entered != nil {
		close(o.entered)
	}
	if o.release != nil {
		<-o.release
	}
	if err != nil {
		return nil, err
	}
	return &domain.OrderDetail{OrderID: 42, OrderNumber: "ORD-42", Status: domain.OrderPending}, nil
}

type fixture struct {
	flow      *Flow
	cart      *stubCart
	discounts *stubDiscounts
	orders    *stubOrders
	storage   *storage.Memory
	history   *nav.History
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	fx := fixture{
		cart:      &stubCart{subtotal: decimal.NewFromInt(80)},
		discounts: &stubDiscounts{},
		orders:    &stubOrders{},
		storage:   storage.NewMemory(),
		history:   nav.NewHistory(nav.PathCheckout),
	}
	fx.flow = New(fx.cart, fx.discounts, fx.orders, fx.storage, fx.history, nil)
	return fx
}

var contact = ContactForm{
	ShippingAddress: "12 Nguyen Hue, Q1",
	CustomerName:    "Tran An",
	CustomerEmail:   "an@example.com",
	PhoneNumber:     "0901234567",
}

func validResult(amount int64) discount.Validation {
	a := decimal.NewFromInt(amount)
	return discount.Validation{
		Outcome: discount.OutcomeValid,
		Result:  &domain.DiscountValidationResult{IsValid: true, DiscountAmount: &a},
	}
}

func toReview(t *testing.T, f *Flow) {
	t.Helper()
	f.SetContact(contact)
	require.Equal(t, StepDiscount, f.Continue())
	require.Equal(t, StepReview, f.Continue())
}

func toDiscount(t *testing.T, f *Flow) {
	t.Helper()
	f.SetContact(contact)
	require.Equal(t, StepDiscount, f.Continue())
}

func TestStepsAdvanceLinearly(t *testing.T) {
	fx := newFixture(t)
	assert.Equal(t, StepShipping, fx.flow.Snapshot().Step)
	assert.Equal(t, StepDiscount, fx.flow.Continue())
	assert.Equal(t, StepReview, fx.flow.Continue())
	assert.Equal(t, StepReview, fx.flow.Continue())
}

func TestApplyDiscountUsesCartSubtotal(t *testing.T) {
	fx := newFixture(t)
	toDiscount(t, fx.flow)
	fx.discounts.result = validResult(8)
	fx.flow.SetDiscountCode(" SALE10 ")

	v, err := fx.flow.ApplyDiscount(context.Background())
	require.NoError(t, err)
	assert.True(t, v.Valid())
	require.Len(t, fx.discounts.amounts, 1)
	assert.True(t, fx.discounts.amounts[0].Equal(decimal.NewFromInt(80)))
	assert.Equal(t, "72", fx.flow.DisplayTotal().String())
}

func TestDisplayTotalNeverNegative(t *testing.T) {
	fx := newFixture(t)
	toDiscount(t, fx.flow)
	fx.discounts.result = validResult(500)
	fx.flow.SetDiscountCode("HUGE")
	_, err := fx.flow.ApplyDiscount(context.Background())
	require.NoError(t, err)
	assert.True(t, fx.flow.DisplayTotal().IsZero())
}

func TestInvalidCodeKeepsCodeAndReason(t *testing.T) {
	fx := newFixture(t)
	toDiscount(t, fx.flow)
	fx.discounts.result = discount.Validation{Outcome: discount.OutcomeInvalid, Reason: "Mã đã hết hạn"}
	fx.flow.SetDiscountCode("OLD")

	_, err := fx.flow.ApplyDiscount(context.Background())
	require.NoError(t, err)
	st := fx.flow.Snapshot()
	assert.Equal(t, "OLD", st.DiscountCode)
	require.NotNil(t, st.Validation)
	assert.Equal(t, "Mã đã hết hạn", st.Validation.Reason)
	assert.Equal(t, "80", fx.flow.DisplayTotal().String())
}

func TestApplyDiscountNotDuringShipping(t *testing.T) {
	fx := newFixture(t)
	fx.discounts.result = validResult(8)
	fx.flow.SetDiscountCode("SALE10")

	_, err := fx.flow.ApplyDiscount(context.Background())
	assert.ErrorIs(t, err, ErrWrongStep)
	assert.Empty(t, fx.discounts.amounts)
	assert.Nil(t, fx.flow.Snapshot().Validation)
}

func TestApplyDiscountWithoutCode(t *testing.T) {
	fx := newFixture(t)
	toDiscount(t, fx.flow)
	_, err := fx.flow.ApplyDiscount(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, msgNoCode, fx.flow.Snapshot().Error)
	assert.Empty(t, fx.discounts.amounts)
}

func TestChangingCodeDropsValidation(t *testing.T) {
	fx := newFixture(t)
	toDiscount(t, fx.flow)
	fx.discounts.result = validResult(8)
	fx.flow.SetDiscountCode("SALE10")
	_, _ = fx.flow.ApplyDiscount(context.Background())
	clears := fx.discounts.clears

	fx.flow.SetDiscountCode("sale10")
	assert.NotNil(t, fx.flow.Snapshot().Validation, "same code in another case keeps the result")

	fx.flow.SetDiscountCode("OTHER")
	assert.Nil(t, fx.flow.Snapshot().Validation)
	assert.Equal(t, clears+1, fx.discounts.clears)
	assert.Equal(t, "80", fx.flow.DisplayTotal().String())
}

func TestSubmitSendsRawCodeOnly(t *testing.T) {
	fx := newFixture(t)
	fx.discounts.result = validResult(8)
	toReview(t, fx.flow)
	fx.flow.SetDiscountCode("SALE10")
	_, err := fx.flow.ApplyDiscount(context.Background())
	require.NoError(t, err)

	_, err = fx.flow.Submit(context.Background())
	require.NoError(t, err)

	raw, err := json.Marshal(fx.orders.last)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "SALE10", body["discountCode"])
	assert.NotContains(t, body, "discountAmount")
	assert.Equal(t, "12 Nguyen Hue, Q1", body["shippingAddress"])
}

func TestSubmitOmitsUnvalidatedCode(t *testing.T) {
	fx := newFixture(t)
	toReview(t, fx.flow)
	fx.flow.SetDiscountCode("NEVERCHECKED")

	_, err := fx.flow.Submit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fx.orders.last.DiscountCode)
}

func TestSubmitSuccessClearsCartAndNavigates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.storage.Set(ctx, storage.KeyCart, `{"cartId":1}`))
	fx.discounts.result = validResult(8)
	toReview(t, fx.flow)
	fx.flow.SetDiscountCode("SALE10")
	_, _ = fx.flow.ApplyDiscount(ctx)
	clears := fx.discounts.clears

	detail, err := fx.flow.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ORD-42", detail.OrderNumber)
	assert.Equal(t, 1, fx.cart.resets)
	_, err = fx.storage.Get(ctx, storage.KeyCart)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, clears+1, fx.discounts.clears)
	assert.Equal(t, nav.PathOrders, fx.history.Location())

	st := fx.flow.Snapshot()
	assert.Equal(t, StepShipping, st.Step)
	assert.Nil(t, st.Validation)
	assert.Empty(t, st.DiscountCode)
	require.NotNil(t, st.LastOrder)
	assert.Equal(t, int64(42), st.LastOrder.OrderID)
}

func TestSubmitFailureStaysForRetry(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.discounts.result = validResult(8)
	toReview(t, fx.flow)
	fx.flow.SetDiscountCode("SALE10")
	_, _ = fx.flow.ApplyDiscount(ctx)
	fx.orders.err = &apiclient.Error{Kind: apiclient.KindClient, Status: 400, Message: "Giỏ hàng trống"}

	_, err := fx.flow.Submit(ctx)
	require.ErrorIs(t, err, apiclient.ErrClient)
	st := fx.flow.Snapshot()
	assert.Equal(t, StepReview, st.Step)
	assert.Equal(t, "Giỏ hàng trống", st.Error)
	assert.False(t, st.IsSubmitting)
	assert.NotNil(t, st.Validation, "validated discount is kept for the retry")
	assert.Equal(t, 0, fx.cart.resets)
	assert.Equal(t, nav.PathCheckout, fx.history.Location())

	fx.orders.mu.Lock()
	fx.orders.err = nil
	fx.orders.mu.Unlock()
	_, err = fx.flow.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SALE10", fx.orders.last.DiscountCode)
}

func TestSubmitRequiresReviewStepAndContact(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.flow.Submit(context.Background())
	assert.ErrorIs(t, err, ErrWrongStep)

	fx.flow.Continue()
	fx.flow.Continue()
	fx.flow.SetContact(ContactForm{CustomerName: "An", ShippingAddress: "x", CustomerEmail: "not-an-email"})
	_, err = fx.flow.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, msgIncomplete, fx.flow.Snapshot().Error)
	assert.Zero(t, fx.orders.calls.Load())
}

func TestConcurrentSubmitsShareOneRequest(t *testing.T) {
	fx := newFixture(t)
	fx.orders.release = make(chan struct{})
	fx.orders.entered = make(chan struct{})
	toReview(t, fx.flow)

	var wg sync.WaitGroup
	results := make([]*domain.OrderDetail, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = fx.flow.Submit(context.Background())
	}()
	<-fx.orders.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = fx.flow.Submit(context.Background())
	}()
	time.Sleep(50 * time.Millisecond)
	close(fx.orders.release)
	wg.Wait()

	assert.Equal(t, int32(1), fx.orders.calls.Load())
	require.NotNil(t, results[0])
	assert.Same(t, results[0], results[1])
}
