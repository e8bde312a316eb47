package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/viraldeals/viraldeals-backend/api/routes"
	"github.com/viraldeals/viraldeals-backend/internal/addresses"
	"github.com/viraldeals/viraldeals-backend/internal/auth"
	"github.com/viraldeals/viraldeals-backend/internal/cart"
	"github.com/viraldeals/viraldeals-backend/internal/checkout"
	"github.com/viraldeals/viraldeals-backend/internal/notifications"
	"github.com/viraldeals/viraldeals-backend/internal/orders"
	"github.com/viraldeals/viraldeals-backend/internal/payments"
	"github.com/viraldeals/viraldeals-backend/internal/pricing"
	products "github.com/viraldeals/viraldeals-backend/internal/products"
	"github.com/viraldeals/viraldeals-backend/internal/scraper"
	"github.com/viraldeals/viraldeals-backend/internal/users"
	"github.com/viraldeals/viraldeals-backend/pkg/config"
	"github.com/viraldeals/viraldeals-backend/pkg/db"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
	"github.com/viraldeals/viraldeals-backend/pkg/metrics"
	"github.com/viraldeals/viraldeals-backend/pkg/migrate"
	pkgredis "github.com/viraldeals/viraldeals-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
	pollMetrics := metrics.NewPaymentPollMetrics(prometheus.DefaultRegisterer)

	svcs, err := buildServices(cfg, logg, dbClient, redisClient, pollMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, httpMetrics, svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var shutdownErr error
		shutdownErr = multierr.Append(shutdownErr, server.Shutdown(shutdownCtx))
		shutdownErr = multierr.Append(shutdownErr, <-errCh)
		if shutdownErr != nil && !errors.Is(shutdownErr, http.ErrServerClosed) {
			logg.Error(ctx, "shutdown finished with errors", shutdownErr)
		}
	}
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *pkgredis.Client,
	pollMetrics *metrics.PaymentPollMetrics,
) (routes.Services, error) {
	gormDB := dbClient.DB()

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(gormDB), logg)
	if err != nil {
		return routes.Services{}, err
	}

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(gormDB),
		Sessions:       redisClient,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	productRepo := products.NewRepository(gormDB)
	productSvc, err := products.NewService(productRepo, logg)
	if err != nil {
		return routes.Services{}, err
	}

	cartSvc, err := cart.NewService(redisClient, notificationsSvc, logg, cart.DefaultTTL)
	if err != nil {
		return routes.Services{}, err
	}

	addressSvc, err := addresses.NewService(gormDB)
	if err != nil {
		return routes.Services{}, err
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
		return routes.Services{}, err
	}

	checkoutSvc, err := checkout.NewService(redisClient, cartSvc, orderSvc, logg, checkout.DefaultTTL)
	if err != nil {
		return routes.Services{}, err
	}

	gateway, err := payments.NewPhonePeClient(cfg.PhonePe)
	if err != nil {
		return routes.Services{}, err
	}
	poller, err := payments.NewPoller(gateway, cfg.PhonePe, pollMetrics, logg)
	if err != nil {
		return routes.Services{}, err
	}
	paymentSvc, err := payments.NewService(payments.ServiceParams{
		Repo:    payments.NewRepository(gormDB),
		Orders:  orderSvc,
		Gateway: gateway,
		Poller:  poller,
		Logger:  logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	importer, err := scraper.NewImporter(cfg.Scraper, productRepo, logg)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:          authSvc,
		Products:      productSvc,
		Cart:          cartSvc,
		Checkout:      checkoutSvc,
		Orders:        orderSvc,
		Addresses:     addressSvc,
		Payments:      paymentSvc,
		Notifications: notificationsSvc,
		Importer:      importer,
	}, nil
}
