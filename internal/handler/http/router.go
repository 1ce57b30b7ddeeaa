package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/ShopyKart/internal/domain"
	"github.com/utafrali/ShopyKart/internal/service"
	"github.com/utafrali/ShopyKart/pkg/health"
	"github.com/utafrali/ShopyKart/pkg/middleware"
)

const serviceName = "storefront"

// productCacheSeconds is the public Cache-Control max-age on catalog reads.
const productCacheSeconds = 60

// Services bundles what the router dispatches to.
type Services struct {
	Carts    *service.CartService
	Orders   *service.OrderService
	Products *service.ProductService
	Accounts *service.AccountService
}

// RouterConfig holds the router's non-service dependencies.
type RouterConfig struct {
	Tokens         middleware.TokenValidator
	Health         *health.Handler
	CORS           middleware.CORSConfig
	RequestTimeout time.Duration
	AuthRateLimit  middleware.RateLimitConfig
	Logger         *slog.Logger
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(timeout))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	authHandler := NewAuthHandler(svc.Accounts, logger)
	accountHandler := NewAccountHandler(svc.Accounts, logger)
	productHandler := NewProductHandler(svc.Products, logger)
	cartHandler := NewCartHandler(svc.Carts, logger)
	orderHandler := NewOrderHandler(svc.Orders, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.AuthRateLimit, logger))
			r.Post("/auth/signup", authHandler.Signup)
			r.Post("/auth/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(productCacheSeconds))
			r.Get("/products", productHandler.ListProducts)
			r.Get("/products/{id}", productHandler.GetProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Tokens))

			r.Get("/accounts/me", authHandler.Me)

			r.Get("/cart", cartHandler.GetCart)
			r.Post("/cart/items", cartHandler.AddItem)
			r.Put("/cart/items/{productId}", cartHandler.SetQuantity)
			r.Delete("/cart/items/{productId}", cartHandler.RemoveItem)
			r.Post("/cart/checkout", cartHandler.Checkout)

			r.Get("/orders/mine", orderHandler.ListMine)
			r.Get("/orders/{id}", orderHandler.GetOrder)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(domain.RoleAdmin)))

				r.Post("/products", productHandler.CreateProduct)
				r.Put("/products/{id}", productHandler.UpdateProduct)
				r.Delete("/products/{id}", productHandler.DeleteProduct)

				r.Get("/orders", orderHandler.ListOrders)
				r.Put("/orders/{id}", orderHandler.UpdateOrder)
				r.Put("/orders/{id}/status", orderHandler.UpdateStatus)
				r.Delete("/orders/{id}", orderHandler.DeleteOrder)

				r.Get("/accounts", accountHandler.ListAccounts)
			})
		})
	})

	return r
}
