package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Dependencies are the collaborators the HTTP surface needs.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Sessions    session.AccessSessionChecker
	RateLimiter middleware.RateLimiter
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Auth      auth.Service
	Register  auth.RegisterService
	Users     users.Service
	Catalog   catalog.Service
	Addresses address.Service
	Cart      cart.Service
	Orders    orders.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	sessionCfg := cfg.Session
	if cfg.App.IsProd() {
		sessionCfg.CookieSecure = true
	}
	cookies := controllers.SessionCookies{Session: sessionCfg, JWT: cfg.JWT}

	loginLimit := middleware.AuthRateLimit(middleware.LoginRateLimitPolicy(cfg.AuthRateLimit), deps.RateLimiter, logg)
	registerLimit := middleware.AuthRateLimit(middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit), deps.RateLimiter, logg)
	idempotent := middleware.Idempotency(deps.Idempotency, cfg.Eventing.OrderIdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if cfg.Metrics.Enabled && deps.Gatherer != nil {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(cfg.JWT, sessionCfg, deps.Sessions, logg))

		r.With(registerLimit).Post("/auth/register", controllers.AuthRegister(deps.Register, deps.Auth, cookies, logg))
		r.With(loginLimit).Post("/auth/login", controllers.AuthLogin(deps.Auth, cookies, logg))
		r.Post("/auth/logout", controllers.AuthLogout(deps.Auth, cookies, logg))
		r.Post("/auth/refresh", controllers.AuthRefresh(deps.Auth, cookies, logg))

		r.Get("/products", controllers.CatalogProducts(deps.Catalog, logg))
		r.Get("/products/featured", controllers.CatalogFeatured(deps.Catalog, logg))
		r.Get("/products/{productId}", controllers.CatalogProduct(deps.Catalog, logg))
		r.Get("/brands", controllers.CatalogBrands(deps.Catalog, logg))
		r.Get("/categories", controllers.CatalogCategories(deps.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(logg))

			r.Get("/user", controllers.UserProfile(deps.Users, logg))
			r.Put("/user", controllers.UserUpdateProfile(deps.Users, logg))

			r.Get("/addresses", controllers.AddressList(deps.Addresses, logg))
			r.Post("/addresses", controllers.AddressCreate(deps.Addresses, logg))
			r.Post("/addresses/create", controllers.AddressCreate(deps.Addresses, logg))
			r.Put("/addresses", controllers.AddressUpdate(deps.Addresses, logg))
			r.Put("/addresses/default", controllers.AddressSetDefault(deps.Addresses, logg))
			r.Delete("/addresses", controllers.AddressDelete(deps.Addresses, logg))
			r.Get("/addresses/{addressId}", controllers.AddressGet(deps.Addresses, logg))
			r.Put("/addresses/{addressId}", controllers.AddressUpdate(deps.Addresses, logg))
			r.Delete("/addresses/{addressId}", controllers.AddressDelete(deps.Addresses, logg))

			r.Get("/cart", controllers.CartGet(deps.Cart, logg))
			r.Post("/cart", controllers.CartAdd(deps.Cart, logg))
			r.Put("/cart", controllers.CartUpdate(deps.Cart, logg))
			r.Delete("/cart", controllers.CartRemove(deps.Cart, logg))
			r.Post("/cart/add", controllers.CartAddItem(deps.Cart, logg))
			r.Post("/cart/update", controllers.CartUpdateItem(deps.Cart, logg))
			r.Post("/cart/remove", controllers.CartRemoveItem(deps.Cart, logg))

			r.With(idempotent).Post("/orders", controllers.OrderPlace(deps.Orders, logg))
			r.With(idempotent).Post("/orders/create", controllers.OrderPlace(deps.Orders, logg))
			r.Get("/orders", controllers.OrderList(deps.Orders, logg))
			r.Get("/orders/{orderId}", controllers.OrderGet(deps.Orders, logg))
		})
	})

	return r
}
