package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
	"github.com/viraldeals/viraldeals-backend/pkg/enums"
	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
)

type paymentRepository interface {
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	MarkInitiated(ctx context.Context, paymentID uuid.UUID, transactionID string) error
	UpdateStatus(ctx context.Context, paymentID uuid.UUID, status enums.PaymentStatus, failureReason *string) error
	ListPollable(ctx context.Context, limit int) ([]models.Payment, error)
}

type orderReader interface {
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
}

type gatewayInitiator interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error)
}

type outcomePoller interface {
	Poll(ctx context.Context, merchantTransactionID string) (Outcome, error)
}

// Service drives prepaid payments from initiation to settlement.
type Service interface {
	InitiateForOrder(ctx context.Context, userID, orderID uuid.UUID) (*InitiateResponse, error)
	StatusForOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Payment, error)
	PollAndSettle(ctx context.Context, merchantTransactionID string) (Outcome, error)
	Settle(ctx context.Context, merchantTransactionID string, outcome Outcome) error
	ListPollable(ctx context.Context, limit int) ([]models.Payment, error)
}

// ServiceParams bundles the payment service dependencies.
type ServiceParams struct {
	Repo    paymentRepository
	Orders  orderReader
	Gateway gatewayInitiator
	Poller  outcomePoller
	Logger  *logger.Logger
}

type service struct {
	repo    paymentRepository
	orders  orderReader
	gateway gatewayInitiator
	poller  outcomePoller
	logg    *logger.Logger
}

// NewService builds the payment service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Poller == nil {
		return nil, fmt.Errorf("status poller required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		orders:  params.Orders,
		gateway: params.Gateway,
		poller:  params.Poller,
		logg:    params.Logger,
	}, nil
}

// InitiateForOrder registers the order's payment with the gateway and
// returns the hosted checkout redirect. Retrying a failed payment issues a
// fresh transaction id.
func (s *service) InitiateForOrder(ctx context.Context, userID, orderID uuid.UUID) (*InitiateResponse, error) {
	order, err := s.orders.GetForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.PaymentMethod.Prepaid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is not payable online")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer awaiting payment")
	}

	payment, err := s.repo.FindByOrderID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading payment")
	}
	switch payment.Status {
	case enums.PaymentStatusSuccess:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already completed")
	case enums.PaymentStatusPending, enums.PaymentStatusInitiated, enums.PaymentStatusFailed, enums.PaymentStatusExpired:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not retryable")
	}

	transactionID := newTransactionID(orderID)
	resp, err := s.gateway.Initiate(ctx, InitiateRequest{
		MerchantTransactionID: transactionID,
		UserID:                userID.String(),
		AmountPaise:           int64(payment.Amount) * 100,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "initiating payment")
	}

	if err := s.repo.MarkInitiated(ctx, payment.ID, transactionID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking payment initiated")
	}

	ctx = s.logg.WithTransactionID(s.logg.WithOrderID(ctx, orderID.String()), transactionID)
	s.logg.Info(ctx, "payment initiated")
	return resp, nil
}

// StatusForOrder returns the payment backing one of the caller's orders.
func (s *service) StatusForOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Payment, error) {
	if _, err := s.orders.GetForUser(ctx, userID, orderID); err != nil {
		return nil, err
	}
	payment, err := s.repo.FindByOrderID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading payment")
	}
	return payment, nil
}

// PollAndSettle polls the gateway to a terminal outcome and records it.
func (s *service) PollAndSettle(ctx context.Context, merchantTransactionID string) (Outcome, error) {
	outcome, err := s.poller.Poll(ctx, merchantTransactionID)
	if err != nil {
		// cancelled runs leave the payment initiated for the next sweep
		return outcome, err
	}
	if err := s.Settle(ctx, merchantTransactionID, outcome); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// Settle records a terminal outcome against the payment and, on success,
// confirms the order.
func (s *service) Settle(ctx context.Context, merchantTransactionID string, outcome Outcome) error {
	payment, err := s.repo.FindByTransactionID(ctx, merchantTransactionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading payment")
	}
	if payment.Status.IsTerminal() {
		return nil
	}

	ctx = s.logg.WithTransactionID(s.logg.WithOrderID(ctx, payment.OrderID.String()), merchantTransactionID)

	switch outcome {
	case OutcomeSuccess:
		if err := s.repo.UpdateStatus(ctx, payment.ID, enums.PaymentStatusSuccess, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating payment status")
		}
		if _, err := s.orders.UpdateStatus(ctx, payment.OrderID, enums.OrderStatusConfirmed); err != nil {
			s.logg.Error(ctx, "confirming order after successful payment", err)
		}
		s.logg.Info(ctx, "payment settled")
	case OutcomeFailed:
		reason := "payment declined by gateway"
		if err := s.repo.UpdateStatus(ctx, payment.ID, enums.PaymentStatusFailed, &reason); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating payment status")
		}
		s.logg.Warn(ctx, "payment failed")
	case OutcomeExpired:
		reason := "payment not completed in time"
		if err := s.repo.UpdateStatus(ctx, payment.ID, enums.PaymentStatusExpired, &reason); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating payment status")
		}
		s.logg.Warn(ctx, "payment expired")
	case OutcomeCancelled:
		// not terminal: the worker picks the payment up again later
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown payment outcome %q", outcome))
	}
	return nil
}

func (s *service) ListPollable(ctx context.Context, limit int) ([]models.Payment, error) {
	rows, err := s.repo.ListPollable(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing pollable payments")
	}
	return rows, nil
}

// newTransactionID derives a merchant transaction id that is unique per
// attempt but traceable back to the order.
func newTransactionID(orderID uuid.UUID) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	prefix := strings.ReplaceAll(orderID.String(), "-", "")[:12]
	return fmt.Sprintf("VD-%s-%s", strings.ToUpper(prefix), strings.ToUpper(suffix))
}
