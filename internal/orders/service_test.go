package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/viraldeals/viraldeals-backend/internal/cart"
	"github.com/viraldeals/viraldeals-backend/internal/pricing"
	"github.com/viraldeals/viraldeals-backend/pkg/config"
	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
	"github.com/viraldeals/viraldeals-backend/pkg/enums"
	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
	"github.com/viraldeals/viraldeals-backend/pkg/pagination"
)

type memoryRepo struct {
	orders map[uuid.UUID]*models.Order
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (r *memoryRepo) WithTx(*gorm.DB) Repository { return r }

func (r *memoryRepo) CreateOrder(_ context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.New()
	r.orders[order.ID] = order
	return order, nil
}

func (r *memoryRepo) FindByID(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	if order, ok := r.orders[orderID]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryRepo) FindByIDForUser(_ context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if order, ok := r.orders[orderID]; ok && order.UserID == userID {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryRepo) ListByUser(_ context.Context, userID uuid.UUID, _ pagination.Params) (*ListResult, error) {
	var rows []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			rows = append(rows, *order)
		}
	}
	return &ListResult{Orders: rows}, nil
}

func (r *memoryRepo) ListByStatus(_ context.Context, status enums.OrderStatus, _ pagination.Params) (*ListResult, error) {
	var rows []models.Order
	for _, order := range r.orders {
		if status == "" || order.Status == status {
			rows = append(rows, *order)
		}
	}
	return &ListResult{Orders: rows}, nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	if order, ok := r.orders[orderID]; ok {
		order.Status = status
		return nil
	}
	return gorm.ErrRecordNotFound
}

type memoryTx struct{}

func (memoryTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type memoryStock struct {
	products map[uuid.UUID]*models.Product
}

func newMemoryStock(products ...*models.Product) *memoryStock {
	stock := &memoryStock{products: map[uuid.UUID]*models.Product{}}
	for _, p := range products {
		stock.products[p.ID] = p
	}
	return stock
}

func (s *memoryStock) Load(_ context.Context, _ *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	if p, ok := s.products[productID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memoryStock) Decrement(_ context.Context, _ *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	p, ok := s.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (s *memoryStock) Restore(_ context.Context, _ *gorm.DB, productID uuid.UUID, qty int) error {
	if p, ok := s.products[productID]; ok {
		p.Stock += qty
	}
	return nil
}

type memoryAddresses struct {
	byID map[uuid.UUID]*models.Address
}

func (a *memoryAddresses) Get(_ context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	if address, ok := a.byID[addressID]; ok && address.UserID == userID {
		return address, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func testProduct(price, stock int) *models.Product {
	return &models.Product{
		ID:       uuid.New(),
		SKU:      "SKU-" + uuid.NewString()[:8],
		Name:     "Test Product",
		Price:    price,
		Stock:    stock,
		IsActive: true,
	}
}

func testAddress(userID uuid.UUID) *models.Address {
	return &models.Address{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       "Asha Verma",
		Phone:      "+919876543210",
		Line1:      "14 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "IN",
	}
}

func cartItem(p *models.Product, qty int) cart.Item {
	return cart.Item{
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		UnitPrice: p.Price,
		Stock:     p.Stock,
		Quantity:  qty,
	}
}

type fixture struct {
	svc       Service
	repo      *memoryRepo
	stock     *memoryStock
	addresses *memoryAddresses
	userID    uuid.UUID
	address   *models.Address
}

func newFixture(t *testing.T, products ...*models.Product) *fixture {
	t.Helper()
	userID := uuid.New()
	address := testAddress(userID)
	repo := newMemoryRepo()
	stock := newMemoryStock(products...)
	addrs := &memoryAddresses{byID: map[uuid.UUID]*models.Address{address.ID: address}}

	svc, err := NewService(ServiceParams{
		Repo:       repo,
		Tx:         memoryTx{},
		Stock:      stock,
		Addresses:  addrs,
		Calculator: pricing.NewCalculator(config.PricingConfig{}),
		Logger:     testLogger(),
	})
	require.NoError(t, err)

	return &fixture{svc: svc, repo: repo, stock: stock, addresses: addrs, userID: userID, address: address}
}

func TestPlaceFromCartComputesTotals(t *testing.T) {
	t.Parallel()

	p := testProduct(1000, 10)
	f := newFixture(t, p)

	order, err := f.svc.PlaceFromCart(context.Background(), f.userID, []cart.Item{cartItem(p, 2)}, f.address.ID, enums.PaymentMethodCOD)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, 2000, order.Subtotal)
	assert.Equal(t, 360, order.GSTAmount)
	assert.Equal(t, 0, order.ShippingCost, "subtotal above threshold ships free")
	assert.Equal(t, 2360, order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2000, order.Items[0].LineTotal)
	require.NotNil(t, order.Payment)
	assert.Equal(t, enums.PaymentStatusPending, order.Payment.Status)
	assert.Equal(t, order.Total, order.Payment.Amount)
	require.NotNil(t, order.ShippingAddress)
	assert.Equal(t, "Bengaluru", order.ShippingAddress.City)

	assert.Equal(t, 8, f.stock.products[p.ID].Stock)
}

func TestPlaceFromCartChargesShippingBelowThreshold(t *testing.T) {
	t.Parallel()

	p := testProduct(400, 5)
	f := newFixture(t, p)

	order, err := f.svc.PlaceFromCart(context.Background(), f.userID, []cart.Item{cartItem(p, 1)}, f.address.ID, enums.PaymentMethodPhonePe)
	require.NoError(t, err)
	assert.Equal(t, 49, order.ShippingCost)
	assert.Equal(t, 400+72+49, order.Total)
}

func TestPlaceFromCartInsufficientStock(t *testing.T) {
	t.Parallel()

	p := testProduct(500, 1)
	f := newFixture(t, p)

	_, err := f.svc.PlaceFromCart(context.Background(), f.userID, []cart.Item{cartItem(p, 3)}, f.address.ID, enums.PaymentMethodCOD)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Empty(t, f.repo.orders)
}

func TestPlaceFromCartInactiveProduct(t *testing.T) {
	t.Parallel()

	p := testProduct(500, 5)
	p.IsActive = false
	f := newFixture(t, p)

	_, err := f.svc.PlaceFromCart(context.Background(), f.userID, []cart.Item{cartItem(p, 1)}, f.address.ID, enums.PaymentMethodCOD)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestPlaceFromCartEmptyCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.PlaceFromCart(context.Background(), f.userID, nil, f.address.ID, enums.PaymentMethodCOD)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCancelPendingOrderRestoresStock(t *testing.T) {
	t.Parallel()

	p := testProduct(1000, 10)
	f := newFixture(t, p)

	order, err := f.svc.PlaceFromCart(context.Background(), f.userID, []cart.Item{cartItem(p, 3)}, f.address.ID, enums.PaymentMethodCOD)
	require.NoError(t, err)
	require.Equal(t, 7, f.stock.products[p.ID].Stock)

	cancelled, err := f.svc.Cancel(context.Background(), f.userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, f.stock.products[p.ID].Stock)
}

func TestCancelRejectedPastPending(t *testing.T) {
	t.Parallel()

	p := testProduct(1000, 10)
	f := newFixture(t, p)

	order, err := f.svc.PlaceFromCart(context.Background(), f.userID, []cart.Item{cartItem(p, 1)}, f.address.ID, enums.PaymentMethodCOD)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusConfirmed)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), f.userID, order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestUpdateStatusEnforcesLadder(t *testing.T) {
	t.Parallel()

	p := testProduct(1000, 10)
	f := newFixture(t, p)

	order, err := f.svc.PlaceFromCart(context.Background(), f.userID, []cart.Item{cartItem(p, 1)}, f.address.ID, enums.PaymentMethodCOD)
	require.NoError(t, err)

	// pending cannot jump straight to shipped
	_, err = f.svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusShipped)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	for _, status := range []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusShipped, enums.OrderStatusDelivered} {
		updated, err := f.svc.UpdateStatus(context.Background(), order.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}
}
