package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viraldeals/viraldeals-backend/internal/addresses"
	"github.com/viraldeals/viraldeals-backend/internal/cart"
	"github.com/viraldeals/viraldeals-backend/internal/pricing"
	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
	"github.com/viraldeals/viraldeals-backend/pkg/enums"
	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
	"github.com/viraldeals/viraldeals-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockAdjuster moves product stock inside a caller-owned transaction.
type StockAdjuster interface {
	Load(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error)
	Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error)
	Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type addressLoader interface {
	Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

// Notifier receives user-facing order events. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, message string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, uuid.UUID, string, string) {}

// Service defines order placement and lifecycle operations.
type Service interface {
	PlaceFromCart(ctx context.Context, userID uuid.UUID, items []cart.Item, addressID uuid.UUID, method enums.PaymentMethod) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListAll(ctx context.Context, status enums.OrderStatus, params pagination.Params) (*ListResult, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	Repo       Repository
	Tx         txRunner
	Stock      StockAdjuster
	Addresses  addressLoader
	Calculator *pricing.Calculator
	Notifier   Notifier
	Logger     *logger.Logger
}

type service struct {
	repo      Repository
	tx        txRunner
	stock     StockAdjuster
	addresses addressLoader
	calc      *pricing.Calculator
	notifier  Notifier
	logg      *logger.Logger
}

// NewService builds an orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address loader required")
	}
	if params.Calculator == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		stock:     params.Stock,
		addresses: params.Addresses,
		calc:      params.Calculator,
		notifier:  notifier,
		logg:      params.Logger,
	}, nil
}

// PlaceFromCart snapshots the cart into an order. Stock is decremented with
// conditional updates inside the same transaction that writes the order, its
// items, and the payment row, so a failure on any line leaves nothing behind.
func (s *service) PlaceFromCart(ctx context.Context, userID uuid.UUID, items []cart.Item, addressID uuid.UUID, method enums.PaymentMethod) (*models.Order, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	address, err := s.addresses.Get(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	snapshot := addresses.Snapshot(address)
	if !snapshot.Complete() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete")
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderItems := make([]models.OrderItem, 0, len(items))
		subtotal := 0
		for _, item := range items {
			product, err := s.stock.Load(ctx, tx, item.ProductID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s is no longer available", item.Name))
			}
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
			}
			if !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s is no longer available", product.Name))
			}

			ok, err := s.stock.Decrement(ctx, tx, product.ID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrementing stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
					WithDetails(map[string]any{"product_id": product.ID, "available": product.Stock})
			}

			var image *string
			if img := product.PrimaryImage(); img != "" {
				image = &img
			}
			lineTotal := product.Price * item.Quantity
			subtotal += lineTotal
			orderItems = append(orderItems, models.OrderItem{
				ProductID: product.ID,
				SKU:       product.SKU,
				Name:      product.Name,
				Image:     image,
				UnitPrice: product.Price,
				Quantity:  item.Quantity,
				LineTotal: lineTotal,
			})
		}

		quote := s.calc.Quote(subtotal, 0)
		order = &models.Order{
			UserID:          userID,
			Status:          enums.OrderStatusPending,
			PaymentMethod:   method,
			ShippingAddress: snapshot,
			Subtotal:        quote.Subtotal,
			GSTAmount:       quote.GST,
			ShippingCost:    quote.Shipping,
			Discount:        quote.Discount,
			Total:           quote.Total,
			Items:           orderItems,
			Payment: &models.Payment{
				Method: method,
				Status: enums.PaymentStatusPending,
				Amount: quote.Total,
			},
		}
		if _, err := s.repo.WithTx(tx).CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(s.logg.WithUserID(ctx, userID.String()), order.ID.String())
	s.logg.Info(ctx, "order created")
	s.notifier.Notify(ctx, userID, "order.placed", fmt.Sprintf("Order for %d is placed", order.Total))
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	result, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return result, nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDForUser(ctx, userID, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}

// Cancel voids a pending order and returns its stock. Orders past the
// pending state are already moving through fulfillment and stay put.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(enums.OrderStatusCancelled) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %q cannot be cancelled", order.Status))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if err := s.stock.Restore(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restoring stock")
			}
		}
		return s.repo.WithTx(tx).UpdateStatus(ctx, orderID, enums.OrderStatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusCancelled
	s.notifier.Notify(ctx, userID, "order.cancelled", "Your order has been cancelled")
	return order, nil
}

func (s *service) ListAll(ctx context.Context, status enums.OrderStatus, params pagination.Params) (*ListResult, error) {
	if status != "" && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	result, err := s.repo.ListByStatus(ctx, status, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return result, nil
}

// UpdateStatus applies an admin fulfillment transition.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %q to %q", order.Status, status))
	}

	if status == enums.OrderStatusCancelled {
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			for _, item := range order.Items {
				if err := s.stock.Restore(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restoring stock")
				}
			}
			return s.repo.WithTx(tx).UpdateStatus(ctx, orderID, status)
		})
	} else {
		err = s.repo.UpdateStatus(ctx, orderID, status)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
	}

	order.Status = status
	s.notifier.Notify(ctx, order.UserID, "order.status_changed", fmt.Sprintf("Your order is now %s", status))
	return order, nil
}
