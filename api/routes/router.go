package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/viraldeals/viraldeals-backend/api/controllers"
	"github.com/viraldeals/viraldeals-backend/api/middleware"
	addresssvc "github.com/viraldeals/viraldeals-backend/internal/addresses"
	authsvc "github.com/viraldeals/viraldeals-backend/internal/auth"
	cartsvc "github.com/viraldeals/viraldeals-backend/internal/cart"
	checkoutsvc "github.com/viraldeals/viraldeals-backend/internal/checkout"
	notificationsvc "github.com/viraldeals/viraldeals-backend/internal/notifications"
	ordersvc "github.com/viraldeals/viraldeals-backend/internal/orders"
	paymentsvc "github.com/viraldeals/viraldeals-backend/internal/payments"
	productsvc "github.com/viraldeals/viraldeals-backend/internal/products"
	scrapersvc "github.com/viraldeals/viraldeals-backend/internal/scraper"
	"github.com/viraldeals/viraldeals-backend/pkg/config"
	"github.com/viraldeals/viraldeals-backend/pkg/db"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
	"github.com/viraldeals/viraldeals-backend/pkg/metrics"
	pkgredis "github.com/viraldeals/viraldeals-backend/pkg/redis"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth          authsvc.Service
	Products      productsvc.Service
	Cart          cartsvc.Service
	Checkout      checkoutsvc.Service
	Orders        ordersvc.Service
	Addresses     addresssvc.Service
	Payments      paymentsvc.Service
	Notifications notificationsvc.Service
	Importer      *scrapersvc.Importer
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	httpMetrics *metrics.HTTPMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.RateLimit.RegisterWindow,
		cfg.RateLimit.RegisterIPLimit,
		cfg.RateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(logg, dbP, redisClient))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg), middleware.Idempotency(redisClient, logg)).
			Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
			r.Get("/me", controllers.AuthMe(svcs.Auth, logg))
		})
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(svcs.Products, logg))
		r.Get("/{productID}", controllers.ProductsGet(svcs.Products, logg))
	})

	// PhonePe posts here server-to-server, so no bearer token is present.
	r.Post("/api/v1/payments/callback", controllers.PaymentsCallback(svcs.Payments, logg))

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.Idempotency(redisClient, logg),
		)

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, svcs.Products, logg))
			r.Put("/items/{productID}", controllers.CartUpdateItem(svcs.Cart, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
			r.Post("/drawer/toggle", controllers.CartToggleDrawer(svcs.Cart, logg))
		})

		r.Route("/api/v1/checkout", func(r chi.Router) {
			r.Get("/", controllers.CheckoutGet(svcs.Checkout, logg))
			r.Post("/address", controllers.CheckoutSelectAddress(svcs.Checkout, logg))
			r.Post("/payment-method", controllers.CheckoutSelectPayment(svcs.Checkout, logg))
			r.Post("/advance", controllers.CheckoutAdvance(svcs.Checkout, logg))
			r.Post("/back", controllers.CheckoutBack(svcs.Checkout, logg))
			r.Post("/place-order", controllers.CheckoutPlaceOrder(svcs.Checkout, logg))
		})

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(svcs.Orders, logg))
			r.Get("/{orderID}", controllers.OrdersGet(svcs.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.OrdersCancel(svcs.Orders, logg))
		})

		r.Route("/api/v1/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressesList(svcs.Addresses, logg))
			r.Post("/", controllers.AddressesCreate(svcs.Addresses, logg))
			r.Put("/{addressID}", controllers.AddressesUpdate(svcs.Addresses, logg))
			r.Delete("/{addressID}", controllers.AddressesDelete(svcs.Addresses, logg))
			r.Post("/{addressID}/default", controllers.AddressesSetDefault(svcs.Addresses, logg))
		})

		r.Route("/api/v1/payments/orders/{orderID}", func(r chi.Router) {
			r.Post("/initiate", controllers.PaymentsInitiate(svcs.Payments, logg))
			r.Get("/status", controllers.PaymentsStatus(svcs.Payments, logg))
		})

		r.Route("/api/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationsList(svcs.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.NotificationsMarkRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.NotificationsMarkAllRead(svcs.Notifications, logg))
		})

		r.Route("/api/v1/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))

			r.Post("/products", controllers.AdminProductsCreate(svcs.Products, logg))
			r.Put("/products/{productID}", controllers.AdminProductsUpdate(svcs.Products, logg))
			r.Delete("/products/{productID}", controllers.AdminProductsDeactivate(svcs.Products, logg))

			r.Get("/orders", controllers.AdminOrdersList(svcs.Orders, logg))
			r.Put("/orders/{orderID}/status", controllers.AdminOrdersUpdateStatus(svcs.Orders, logg))

			r.Post("/scraper/run", controllers.AdminScraperRun(svcs.Importer, logg))
		})
	})

	return r
}
