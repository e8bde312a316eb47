package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/viraldeals/viraldeals-backend/internal/addresses"
	"github.com/viraldeals/viraldeals-backend/internal/notifications"
	"github.com/viraldeals/viraldeals-backend/internal/orders"
	"github.com/viraldeals/viraldeals-backend/internal/payments"
	"github.com/viraldeals/viraldeals-backend/internal/pricing"
	products "github.com/viraldeals/viraldeals-backend/internal/products"
	"github.com/viraldeals/viraldeals-backend/pkg/config"
	"github.com/viraldeals/viraldeals-backend/pkg/db"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
	"github.com/viraldeals/viraldeals-backend/pkg/metrics"
)

const (
	sweepInterval = 30 * time.Second
	sweepLimit    = 50
)

// The worker sweeps payments stuck in the initiated state and drives each to
// a terminal outcome, covering orders where the buyer never returned from the
// gateway redirect.
func main() {
	logg := logger.New(logger.Options{ServiceName: "payment-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "payment-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		_ = dbClient.Close()
	}()

	paymentSvc, err := buildPaymentService(cfg, logg, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to wire payment service", err)
		os.Exit(1)
	}

	logg.Info(logg.WithField(ctx, "interval", sweepInterval.String()), "payment worker started")

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		sweep(ctx, logg, paymentSvc)

		select {
		case <-ctx.Done():
			logg.Info(ctx, "payment worker stopping")
			return
		case <-ticker.C:
		}
	}
}

func sweep(ctx context.Context, logg *logger.Logger, svc payments.Service) {
	pollable, err := svc.ListPollable(ctx, sweepLimit)
	if err != nil {
		logg.Error(ctx, "listing pollable payments", err)
		return
	}
	if len(pollable) == 0 {
		return
	}

	logg.Info(logg.WithField(ctx, "count", len(pollable)), "sweeping initiated payments")

	for _, payment := range pollable {
		if ctx.Err() != nil {
			return
		}
		if payment.TransactionID == nil {
			continue
		}
		if _, err := svc.PollAndSettle(ctx, *payment.TransactionID); err != nil {
			txCtx := logg.WithTransactionID(ctx, *payment.TransactionID)
			logg.Error(txCtx, "polling payment", err)
		}
	}
}

func buildPaymentService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (payments.Service, error) {
	gormDB := dbClient.DB()

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(gormDB), logg)
	if err != nil {
		return nil, err
	}

	addressSvc, err := addresses.NewService(gormDB)
	if err != nil {
		return nil, err
	}

	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:       orders.NewRepository(gormDB),
		Tx:         dbClient,
		Stock:      products.StockTx{},
		Addresses:  addressSvc,
		Calculator: pricing.NewCalculator(cfg.Pricing),
		Notifier:   notificationsSvc,
		Logger:     logg,
	})
	if err != nil {
		return nil, err
	}

	gateway, err := payments.NewPhonePeClient(cfg.PhonePe)
	if err != nil {
		return nil, err
	}

	pollMetrics := metrics.NewPaymentPollMetrics(prometheus.DefaultRegisterer)
	poller, err := payments.NewPoller(gateway, cfg.PhonePe, pollMetrics, logg)
	if err != nil {
		return nil, err
	}

	return payments.NewService(payments.ServiceParams{
		Repo:    payments.NewRepository(gormDB),
		Orders:  orderSvc,
		Gateway: gateway,
		Poller:  poller,
		Logger:  logg,
	})
}
