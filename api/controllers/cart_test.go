package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viraldeals/viraldeals-backend/api/middleware"
	cartsvc "github.com/viraldeals/viraldeals-backend/internal/cart"
	productsvc "github.com/viraldeals/viraldeals-backend/internal/products"
	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
	"github.com/viraldeals/viraldeals-backend/pkg/types"
)

type stubCartService struct {
	cartsvc.Service

	state   *cartsvc.State
	addErr  error
	lastQty int
}

func (s *stubCartService) Get(context.Context, uuid.UUID) (*cartsvc.State, error) {
	return s.state, nil
}

func (s *stubCartService) AddItem(_ context.Context, _ uuid.UUID, _ cartsvc.ProductSnapshot, qty int) (*cartsvc.State, error) {
	s.lastQty = qty
	if s.addErr != nil {
		return nil, s.addErr
	}
	return s.state, nil
}

type stubCatalog struct {
	productsvc.Service

	product *models.Product
	findErr error
}

func (s *stubCatalog) FindActive(context.Context, uuid.UUID) (*models.Product, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.product, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func authedRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	return req.WithContext(ctx)
}

func TestCartGetRequiresUser(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{state: &cartsvc.State{Items: []cartsvc.Item{}}}
	rec := httptest.NewRecorder()
	CartGet(svc, testLogger())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartGetReturnsState(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{state: &cartsvc.State{Items: []cartsvc.Item{}, Total: 1299, ItemCount: 1}}
	rec := httptest.NewRecorder()
	CartGet(svc, testLogger())(rec, authedRequest(http.MethodGet, "/api/v1/cart", ""))

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1299), data["total"])
}

func TestCartAddItemLooksUpProduct(t *testing.T) {
	t.Parallel()

	product := &models.Product{ID: uuid.New(), SKU: "SPK-01", Name: "Speaker", Price: 1299, Stock: 5}
	svc := &stubCartService{state: &cartsvc.State{Items: []cartsvc.Item{}}}
	catalog := &stubCatalog{product: product}

	body := `{"product_id":"` + product.ID.String() + `","quantity":2}`
	rec := httptest.NewRecorder()
	CartAddItem(svc, catalog, testLogger())(rec, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, svc.lastQty)
}

func TestCartAddItemUnknownProduct(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{}
	catalog := &stubCatalog{findErr: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}

	body := `{"product_id":"` + uuid.NewString() + `"}`
	rec := httptest.NewRecorder()
	CartAddItem(svc, catalog, testLogger())(rec, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartAddItemInsufficientStock(t *testing.T) {
	t.Parallel()

	product := &models.Product{ID: uuid.New(), SKU: "SPK-01", Name: "Speaker", Price: 1299, Stock: 1}
	svc := &stubCartService{addErr: pkgerrors.New(pkgerrors.CodeInsufficientStock, "only 1 left")}
	catalog := &stubCatalog{product: product}

	body := `{"product_id":"` + product.ID.String() + `","quantity":5}`
	rec := httptest.NewRecorder()
	CartAddItem(svc, catalog, testLogger())(rec, authedRequest(http.MethodPost, "/api/v1/cart/items", body))

	assert.Equal(t, http.StatusConflict, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeInsufficientStock), envelope.Error.Code)
}

func TestCartAddItemRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{}
	catalog := &stubCatalog{}

	rec := httptest.NewRecorder()
	CartAddItem(svc, catalog, testLogger())(rec, authedRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPathUUIDRejectsGarbage(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/things/not-a-uuid", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("productID", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	_, err := pathUUID(req, "productID")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
