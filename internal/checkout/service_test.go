package checkout

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viraldeals/viraldeals-backend/internal/cart"
	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
	"github.com/viraldeals/viraldeals-backend/pkg/enums"
	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
	pkgredis "github.com/viraldeals/viraldeals-backend/pkg/redis"
)

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.data[key]
	if !ok {
		return "", pkgredis.Nil
	}
	return value, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case string:
		f.data[key] = v
	case []byte:
		f.data[key] = string(v)
	}
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeKV) CheckoutKey(userID string) string {
	return "vd:checkout:" + userID
}

type stubCart struct {
	state   *cart.State
	cleared bool
	getErr  error
}

func (c *stubCart) Get(context.Context, uuid.UUID) (*cart.State, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.state, nil
}

func (c *stubCart) Clear(context.Context, uuid.UUID) error {
	c.cleared = true
	c.state = &cart.State{Items: []cart.Item{}}
	return nil
}

type stubPlacer struct {
	order    *models.Order
	err      error
	gotItems []cart.Item
	gotAddr  uuid.UUID
	gotPay   enums.PaymentMethod
}

func (p *stubPlacer) PlaceFromCart(_ context.Context, _ uuid.UUID, items []cart.Item, addressID uuid.UUID, method enums.PaymentMethod) (*models.Order, error) {
	p.gotItems = items
	p.gotAddr = addressID
	p.gotPay = method
	if p.err != nil {
		return nil, p.err
	}
	return p.order, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func filledCart() *stubCart {
	return &stubCart{state: &cart.State{Items: []cart.Item{{
		ProductID: uuid.New(),
		Name:      "bluetooth speaker",
		UnitPrice: 1000,
		Stock:     5,
		Quantity:  2,
	}}, Total: 2000, ItemCount: 2}}
}

func newTestService(t *testing.T, kv *fakeKV, carts CartReader, placer OrderPlacer) Service {
	t.Helper()
	if carts == nil {
		carts = filledCart()
	}
	if placer == nil {
		placer = &stubPlacer{order: &models.Order{ID: uuid.New()}}
	}
	svc, err := NewService(kv, carts, placer, testLogger(), 0)
	require.NoError(t, err)
	return svc
}

func assertStateConflict(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func walkToReview(t *testing.T, svc Service, userID uuid.UUID) uuid.UUID {
	t.Helper()
	addressID := uuid.New()
	_, err := svc.SelectAddress(context.Background(), userID, addressID)
	require.NoError(t, err)
	_, err = svc.Advance(context.Background(), userID)
	require.NoError(t, err)
	_, err = svc.SelectPayment(context.Background(), userID, enums.PaymentMethodCOD)
	require.NoError(t, err)
	flow, err := svc.Advance(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, StepReview, flow.Step)
	return addressID
}

func TestNewFlowStartsAtAddressStep(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newFakeKV(), nil, nil)
	flow, err := svc.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, StepAddress, flow.Step)
	assert.Nil(t, flow.AddressID)
}

func TestAdvanceRequiresSelection(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newFakeKV(), nil, nil)
	userID := uuid.New()

	_, err := svc.Advance(context.Background(), userID)
	assertStateConflict(t, err)

	_, err = svc.SelectAddress(context.Background(), userID, uuid.New())
	require.NoError(t, err)
	flow, err := svc.Advance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, StepPayment, flow.Step)

	// payment step in turn gates on a selected method
	_, err = svc.Advance(context.Background(), userID)
	assertStateConflict(t, err)
}

func TestSelectionsOnlyAllowedInTheirStep(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newFakeKV(), nil, nil)
	userID := uuid.New()

	_, err := svc.SelectPayment(context.Background(), userID, enums.PaymentMethodCOD)
	assertStateConflict(t, err)

	_, err = svc.SelectAddress(context.Background(), userID, uuid.New())
	require.NoError(t, err)
	_, err = svc.Advance(context.Background(), userID)
	require.NoError(t, err)

	_, err = svc.SelectAddress(context.Background(), userID, uuid.New())
	assertStateConflict(t, err)
}

func TestBackKeepsSelections(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newFakeKV(), nil, nil)
	userID := uuid.New()
	addressID := uuid.New()

	_, err := svc.SelectAddress(context.Background(), userID, addressID)
	require.NoError(t, err)
	_, err = svc.Advance(context.Background(), userID)
	require.NoError(t, err)

	flow, err := svc.Back(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, StepAddress, flow.Step)
	require.NotNil(t, flow.AddressID)
	assert.Equal(t, addressID, *flow.AddressID)

	_, err = svc.Back(context.Background(), userID)
	assertStateConflict(t, err)
}

func TestFlowSurvivesReload(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	svc := newTestService(t, kv, nil, nil)
	userID := uuid.New()
	addressID := uuid.New()

	_, err := svc.SelectAddress(context.Background(), userID, addressID)
	require.NoError(t, err)
	_, err = svc.Advance(context.Background(), userID)
	require.NoError(t, err)

	reloaded := newTestService(t, kv, nil, nil)
	flow, err := reloaded.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, StepPayment, flow.Step)
	require.NotNil(t, flow.AddressID)
	assert.Equal(t, addressID, *flow.AddressID)
}

func TestMalformedFlowDiscarded(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	userID := uuid.New()
	kv.data[kv.CheckoutKey(userID.String())] = `{"step":"no_such_step"}`

	svc := newTestService(t, kv, nil, nil)
	flow, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, StepAddress, flow.Step)
}

func TestPlaceOrderOnlyFromReview(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newFakeKV(), nil, nil)
	userID := uuid.New()

	_, err := svc.PlaceOrder(context.Background(), userID)
	assertStateConflict(t, err)
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	carts := &stubCart{state: &cart.State{Items: []cart.Item{}}}
	svc := newTestService(t, newFakeKV(), carts, nil)
	userID := uuid.New()
	walkToReview(t, svc, userID)

	_, err := svc.PlaceOrder(context.Background(), userID)
	assertStateConflict(t, err)
}

func TestPlaceOrderSuccessResetsCartAndFlow(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	carts := filledCart()
	placer := &stubPlacer{order: &models.Order{ID: uuid.New()}}
	svc := newTestService(t, kv, carts, placer)
	userID := uuid.New()
	addressID := walkToReview(t, svc, userID)

	order, err := svc.PlaceOrder(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, placer.order.ID, order.ID)
	assert.Equal(t, addressID, placer.gotAddr)
	assert.Equal(t, enums.PaymentMethodCOD, placer.gotPay)
	assert.Len(t, placer.gotItems, 1)
	assert.True(t, carts.cleared)

	flow, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, StepAddress, flow.Step)
	assert.Nil(t, flow.AddressID)
}

func TestPlaceOrderFailurePreservesCartAndFlow(t *testing.T) {
	t.Parallel()

	carts := filledCart()
	placer := &stubPlacer{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock")}
	svc := newTestService(t, newFakeKV(), carts, placer)
	userID := uuid.New()
	walkToReview(t, svc, userID)

	_, err := svc.PlaceOrder(context.Background(), userID)
	require.Error(t, err)
	assert.False(t, carts.cleared)

	flow, getErr := svc.Get(context.Background(), userID)
	require.NoError(t, getErr)
	assert.Equal(t, StepReview, flow.Step)
	require.NotNil(t, flow.AddressID)
}
