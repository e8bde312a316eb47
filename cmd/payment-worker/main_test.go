package main

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/viraldeals/viraldeals-backend/internal/payments"
	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
)

type stubPaymentService struct {
	payments.Service

	pollable []models.Payment
	listErr  error
	pollErr  error
	polled   []string
}

func (s *stubPaymentService) ListPollable(_ context.Context, _ int) ([]models.Payment, error) {
	return s.pollable, s.listErr
}

func (s *stubPaymentService) PollAndSettle(_ context.Context, merchantTransactionID string) (payments.Outcome, error) {
	s.polled = append(s.polled, merchantTransactionID)
	return payments.OutcomeSuccess, s.pollErr
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func txnID(id string) *string {
	return &id
}

func TestSweepPollsEachPendingPayment(t *testing.T) {
	t.Parallel()

	svc := &stubPaymentService{pollable: []models.Payment{
		{TransactionID: txnID("VD-1")},
		{TransactionID: nil},
		{TransactionID: txnID("VD-2")},
	}}

	sweep(context.Background(), testLogger(), svc)

	assert.Equal(t, []string{"VD-1", "VD-2"}, svc.polled)
}

func TestSweepStopsWhenListingFails(t *testing.T) {
	t.Parallel()

	svc := &stubPaymentService{
		pollable: []models.Payment{{TransactionID: txnID("VD-1")}},
		listErr:  pkgerrors.New(pkgerrors.CodeDependency, "database unavailable"),
	}

	sweep(context.Background(), testLogger(), svc)

	assert.Empty(t, svc.polled)
}

func TestSweepContinuesPastPollFailures(t *testing.T) {
	t.Parallel()

	svc := &stubPaymentService{
		pollable: []models.Payment{
			{TransactionID: txnID("VD-1")},
			{TransactionID: txnID("VD-2")},
		},
		pollErr: pkgerrors.New(pkgerrors.CodeDependency, "gateway unavailable"),
	}

	sweep(context.Background(), testLogger(), svc)

	assert.Equal(t, []string{"VD-1", "VD-2"}, svc.polled)
}
