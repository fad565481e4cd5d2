package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arcanium-studios/arcanium-backend/api/controllers"
	cartcontrollers "github.com/arcanium-studios/arcanium-backend/api/controllers/cart"
	catalogcontrollers "github.com/arcanium-studios/arcanium-backend/api/controllers/catalog"
	"github.com/arcanium-studios/arcanium-backend/api/middleware"
	"github.com/arcanium-studios/arcanium-backend/internal/cart"
	"github.com/arcanium-studios/arcanium-backend/internal/catalog"
	"github.com/arcanium-studios/arcanium-backend/pkg/config"
	"github.com/arcanium-studios/arcanium-backend/pkg/db"
	"github.com/arcanium-studios/arcanium-backend/pkg/logger"
	"github.com/arcanium-studios/arcanium-backend/pkg/redis"
)

// NewRouter wires the storefront API. dbP and redisClient are nil when the
// matching backend is not configured.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	dbP db.Pinger,
	redisClient *redis.Client,
	catalogProvider catalog.Provider,
	cartService cart.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	var checks []controllers.ReadinessCheck
	if dbP != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "database", Pinger: dbP})
	}
	if redisClient != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", catalogcontrollers.ProductList(catalogProvider, logg))
		r.Get("/{productId}", catalogcontrollers.ProductDetail(catalogProvider, logg))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Session(middleware.SessionOptions{
			CookieName: cfg.Cart.CookieName,
			Secure:     cfg.Cart.CookieSecure,
			TTL:        cfg.Cart.SessionTTL,
		}, logg))
		addItem := chi.Chain()
		if redisClient != nil {
			policy := middleware.NewCartRateLimitPolicy(cfg.Cart.MutationLimit, cfg.Cart.MutationWindow)
			r.Use(middleware.CartRateLimit(policy, redisClient, logg))
			addItem = chi.Chain(middleware.Idempotency(redisClient, logg))
		}

		r.Get("/", cartcontrollers.CartFetch(cartService, logg))
		r.Delete("/", cartcontrollers.CartEndSession(cartService, logg))
		r.Get("/summary", cartcontrollers.CartSummary(cartService, logg))
		r.Put("/visibility", cartcontrollers.CartSetVisibility(cartService, logg))
		r.With(addItem...).Post("/items", cartcontrollers.CartAddItem(cartService, logg))
		r.Patch("/items/{itemId}", cartcontrollers.CartUpdateQuantity(cartService, logg))
		r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(cartService, logg))
	})

	return r
}
