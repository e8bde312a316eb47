package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
	pkgredis "github.com/viraldeals/viraldeals-backend/pkg/redis"
)

// DefaultTTL keeps abandoned carts around long enough for a returning shopper.
const DefaultTTL = 30 * 24 * time.Hour

// Persistence is the durable slot a cart is mirrored into.
type Persistence interface {
	pkgredis.KV
	CartKey(userID string) string
}

// Notifier receives user-facing cart events. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, message string)
}

// NopNotifier drops all events.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, uuid.UUID, string, string) {}

// Service manages per-user carts backed by Redis.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*State, error)
	AddItem(ctx context.Context, userID uuid.UUID, product ProductSnapshot, quantity int) (*State, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, productID uuid.UUID, quantity int) (*State, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID) (*State, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	ToggleDrawer(ctx context.Context, userID uuid.UUID) (*State, error)
}

type service struct {
	store    Persistence
	notifier Notifier
	logg     *logger.Logger
	ttl      time.Duration

	mu      sync.Mutex
	drawers map[uuid.UUID]bool
}

// NewService wires the cart service. The notifier is optional.
func NewService(store Persistence, notifier Notifier, logg *logger.Logger, ttl time.Duration) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart persistence is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &service{
		store:    store,
		notifier: notifier,
		logg:     logg,
		ttl:      ttl,
		drawers:  map[uuid.UUID]bool{},
	}, nil
}

// persistedCart is the wire shape written to Redis. The drawer flag and the
// derived totals are intentionally excluded.
type persistedCart struct {
	Items []Item `json:"items"`
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*State, error) {
	state, err := s.hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	state.DrawerOpen = s.drawers[userID]
	s.mu.Unlock()
	return state, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, product ProductSnapshot, quantity int) (*State, error) {
	if product.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	state, err := s.hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !state.addItem(product, quantity) {
		s.notifier.Notify(ctx, userID, "cart.stock_warning",
			fmt.Sprintf("Only %d left in stock for %s", product.Stock, product.Name))
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
			WithDetails(map[string]any{"product_id": product.ID, "available": product.Stock})
	}
	s.persist(ctx, userID, state)
	s.notifier.Notify(ctx, userID, "cart.item_added", fmt.Sprintf("%s added to cart", product.Name))
	return s.withDrawer(userID, state), nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID uuid.UUID, productID uuid.UUID, quantity int) (*State, error) {
	state, err := s.hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state.updateQuantity(productID, quantity) {
		s.persist(ctx, userID, state)
	}
	return s.withDrawer(userID, state), nil
}

func (s *service) RemoveItem(ctx context.Context, userID uuid.UUID, productID uuid.UUID) (*State, error) {
	state, err := s.hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state.removeItem(productID) {
		s.persist(ctx, userID, state)
	}
	return s.withDrawer(userID, state), nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Del(ctx, s.store.CartKey(userID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart")
	}
	return nil
}

func (s *service) ToggleDrawer(ctx context.Context, userID uuid.UUID) (*State, error) {
	s.mu.Lock()
	s.drawers[userID] = !s.drawers[userID]
	s.mu.Unlock()
	return s.Get(ctx, userID)
}

// hydrate loads the persisted cart. A missing key yields an empty cart;
// malformed data is discarded and logged, never surfaced to the caller.
func (s *service) hydrate(ctx context.Context, userID uuid.UUID) (*State, error) {
	raw, err := s.store.Get(ctx, s.store.CartKey(userID.String()))
	if errors.Is(err, pkgredis.Nil) {
		return emptyState(), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}

	var stored persistedCart
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		ctx = s.logg.WithUserID(ctx, userID.String())
		s.logg.Warn(ctx, "discarding malformed persisted cart")
		if delErr := s.store.Del(ctx, s.store.CartKey(userID.String())); delErr != nil {
			s.logg.Error(ctx, "deleting malformed persisted cart", delErr)
		}
		return emptyState(), nil
	}
	if stored.Items == nil {
		stored.Items = []Item{}
	}
	state := &State{Items: stored.Items}
	state.recompute()
	return state, nil
}

// persist mirrors the cart to Redis. Failures are logged and swallowed so a
// Redis blip never fails a mutation the caller already saw succeed.
func (s *service) persist(ctx context.Context, userID uuid.UUID, state *State) {
	payload, err := json.Marshal(persistedCart{Items: state.Items})
	if err != nil {
		s.logg.Error(ctx, "serializing cart", err)
		return
	}
	if err := s.store.Set(ctx, s.store.CartKey(userID.String()), payload, s.ttl); err != nil {
		s.logg.Error(ctx, "persisting cart", err)
	}
}

func (s *service) withDrawer(userID uuid.UUID, state *State) *State {
	s.mu.Lock()
	state.DrawerOpen = s.drawers[userID]
	s.mu.Unlock()
	return state
}
