package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/viraldeals/viraldeals-backend/internal/cart"
	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
	"github.com/viraldeals/viraldeals-backend/pkg/enums"
	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
	pkgredis "github.com/viraldeals/viraldeals-backend/pkg/redis"
)

// DefaultTTL bounds how long an abandoned checkout flow survives.
const DefaultTTL = 24 * time.Hour

// Persistence is the durable slot a flow is mirrored into.
type Persistence interface {
	pkgredis.KV
	CheckoutKey(userID string) string
}

// CartReader exposes the cart operations checkout needs.
type CartReader interface {
	Get(ctx context.Context, userID uuid.UUID) (*cart.State, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// OrderPlacer turns a cart snapshot into a persisted order.
type OrderPlacer interface {
	PlaceFromCart(ctx context.Context, userID uuid.UUID, items []cart.Item, addressID uuid.UUID, method enums.PaymentMethod) (*models.Order, error)
}

// Service drives the per-user checkout flow.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*Flow, error)
	SelectAddress(ctx context.Context, userID, addressID uuid.UUID) (*Flow, error)
	SelectPayment(ctx context.Context, userID uuid.UUID, method enums.PaymentMethod) (*Flow, error)
	Advance(ctx context.Context, userID uuid.UUID) (*Flow, error)
	Back(ctx context.Context, userID uuid.UUID) (*Flow, error)
	Reset(ctx context.Context, userID uuid.UUID) error
	PlaceOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error)
}

type service struct {
	store  Persistence
	carts  CartReader
	orders OrderPlacer
	logg   *logger.Logger
	ttl    time.Duration
}

// NewService wires the checkout service.
func NewService(store Persistence, carts CartReader, orders OrderPlacer, logg *logger.Logger, ttl time.Duration) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("checkout persistence is required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart reader is required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order placer is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &service{store: store, carts: carts, orders: orders, logg: logg, ttl: ttl}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*Flow, error) {
	return s.hydrate(ctx, userID)
}

func (s *service) SelectAddress(ctx context.Context, userID, addressID uuid.UUID) (*Flow, error) {
	if addressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	flow, err := s.hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if flow.Step != StepAddress {
		return nil, stepConflict(flow.Step, "select an address")
	}
	flow.AddressID = &addressID
	if err := s.persist(ctx, userID, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

func (s *service) SelectPayment(ctx context.Context, userID uuid.UUID, method enums.PaymentMethod) (*Flow, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	flow, err := s.hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if flow.Step != StepPayment {
		return nil, stepConflict(flow.Step, "select a payment method")
	}
	flow.PaymentMethod = method
	if err := s.persist(ctx, userID, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

// Advance moves the flow one step forward once the current step's
// selection has been made.
func (s *service) Advance(ctx context.Context, userID uuid.UUID) (*Flow, error) {
	flow, err := s.hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if flow.Step == StepReview {
		return nil, stepConflict(flow.Step, "advance")
	}
	if !flow.canAdvance() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "current step selection is incomplete")
	}
	flow.Step = flow.next()
	if err := s.persist(ctx, userID, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

// Back moves the flow one step toward address selection. Selections made
// so far are kept.
func (s *service) Back(ctx context.Context, userID uuid.UUID) (*Flow, error) {
	flow, err := s.hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if flow.Step == StepAddress {
		return nil, stepConflict(flow.Step, "go back")
	}
	flow.Step = flow.prev()
	if err := s.persist(ctx, userID, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

func (s *service) Reset(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Del(ctx, s.store.CheckoutKey(userID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resetting checkout flow")
	}
	return nil
}

// PlaceOrder turns the reviewed cart into an order. On success the cart
// and the flow are both reset; on failure both are preserved so the user
// can retry.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	flow, err := s.hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !flow.readyToPlace() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout flow is not ready for order placement")
	}

	state, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(state.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot place an order from an empty cart")
	}

	order, err := s.orders.PlaceFromCart(ctx, userID, state.Items, *flow.AddressID, flow.PaymentMethod)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	if err := s.carts.Clear(ctx, userID); err != nil {
		s.logg.Error(ctx, "clearing cart after order placement", err)
	}
	if err := s.Reset(ctx, userID); err != nil {
		s.logg.Error(ctx, "resetting checkout flow after order placement", err)
	}
	s.logg.Info(ctx, "order placed")
	return order, nil
}

func (s *service) hydrate(ctx context.Context, userID uuid.UUID) (*Flow, error) {
	raw, err := s.store.Get(ctx, s.store.CheckoutKey(userID.String()))
	if errors.Is(err, pkgredis.Nil) {
		return newFlow(), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading checkout flow")
	}

	var flow Flow
	if err := json.Unmarshal([]byte(raw), &flow); err != nil || !flow.Step.IsValid() {
		ctx = s.logg.WithUserID(ctx, userID.String())
		s.logg.Warn(ctx, "discarding malformed checkout flow")
		if delErr := s.store.Del(ctx, s.store.CheckoutKey(userID.String())); delErr != nil {
			s.logg.Error(ctx, "deleting malformed checkout flow", delErr)
		}
		return newFlow(), nil
	}
	return &flow, nil
}

func (s *service) persist(ctx context.Context, userID uuid.UUID, flow *Flow) error {
	payload, err := json.Marshal(flow)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serializing checkout flow")
	}
	if err := s.store.Set(ctx, s.store.CheckoutKey(userID.String()), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting checkout flow")
	}
	return nil
}

func stepConflict(current Step, action string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot %s while in step %q", action, current))
}
