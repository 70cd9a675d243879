package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/surprisebag-backend/api/controllers"
	boxcontrollers "github.com/angelmondragon/surprisebag-backend/api/controllers/boxes"
	cartcontrollers "github.com/angelmondragon/surprisebag-backend/api/controllers/cart"
	catalogcontrollers "github.com/angelmondragon/surprisebag-backend/api/controllers/catalog"
	ordercontrollers "github.com/angelmondragon/surprisebag-backend/api/controllers/orders"
	vendorcontrollers "github.com/angelmondragon/surprisebag-backend/api/controllers/vendors"
	"github.com/angelmondragon/surprisebag-backend/api/middleware"
	"github.com/angelmondragon/surprisebag-backend/internal/boxes"
	"github.com/angelmondragon/surprisebag-backend/internal/cart"
	"github.com/angelmondragon/surprisebag-backend/internal/catalog"
	"github.com/angelmondragon/surprisebag-backend/internal/orders"
	"github.com/angelmondragon/surprisebag-backend/internal/vendors"
	"github.com/angelmondragon/surprisebag-backend/pkg/config"
	"github.com/angelmondragon/surprisebag-backend/pkg/db"
	"github.com/angelmondragon/surprisebag-backend/pkg/logger"
	"github.com/angelmondragon/surprisebag-backend/pkg/redis"
)

// NewRouter wires every HTTP route. redisClient and gatherer may be nil; without
// redis the readiness probe skips it and rate limits are kept per process.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	vendorService vendors.Service,
	catalogService catalog.Service,
	boxService boxes.Service,
	cartService cart.Service,
	orderService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{"db": dbP}
	var limiter middleware.Limiter = middleware.NewLocalLimiter()
	if redisClient != nil {
		readiness["redis"] = redisClient
		limiter = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	cartPolicy := middleware.RateLimitPolicy{Scope: "cart", Limit: cfg.RateLimit.CartLimit, Window: cfg.RateLimit.CartWindow}
	reservePolicy := middleware.RateLimitPolicy{Scope: "reserve", Limit: cfg.RateLimit.ReserveLimit, Window: cfg.RateLimit.ReserveWindow}
	requireUser := middleware.RequireUser(logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Session(cfg.Market, cfg.App.IsProd(), cartService, boxService, logg))

		r.Route("/vendors", func(r chi.Router) {
			r.Get("/", vendorcontrollers.List(vendorService, logg))
			r.Get("/locations", vendorcontrollers.Locations(vendorService, logg))
			r.Get("/{vendorId}", vendorcontrollers.Detail(vendorService, logg))

			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Post("/", vendorcontrollers.Create(vendorService, logg))
				r.Post("/{vendorId}/branches", vendorcontrollers.AddBranch(vendorService, logg))
				r.Post("/{vendorId}/deactivate", vendorcontrollers.Deactivate(vendorService, logg))
				r.Post("/{vendorId}/items", catalogcontrollers.CreateItem(catalogService, logg))
				r.Post("/{vendorId}/boxes", boxcontrollers.Create(boxService, logg))
			})
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", catalogcontrollers.List(catalogService, logg))
			r.Get("/search", catalogcontrollers.Search(catalogService, logg))
			r.Get("/nearby", catalogcontrollers.Nearby(catalogService, logg))
			r.Get("/recommendations", catalogcontrollers.Recommendations(catalogService, logg))
		})
		r.Get("/items/{itemId}", catalogcontrollers.Item(catalogService, logg))
		r.With(requireUser).Post("/items/{itemId}/offers", catalogcontrollers.CreateOffer(catalogService, logg))
		r.With(requireUser).Delete("/offers/{offerId}", catalogcontrollers.WithdrawOffer(catalogService, logg))
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", catalogcontrollers.Categories(catalogService, logg))
			r.With(requireUser).Post("/", catalogcontrollers.CreateCategory(catalogService, logg))
		})

		r.Route("/boxes", func(r chi.Router) {
			r.Get("/", boxcontrollers.List(boxService, logg))
			r.Get("/{boxId}", boxcontrollers.Detail(boxService, logg))
			r.With(middleware.RateLimit(reservePolicy, limiter, logg)).
				Post("/{boxId}/reservations", boxcontrollers.Reserve(boxService, logg))
		})
		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", boxcontrollers.Reservations(boxService, logg))
			r.With(requireUser).Post("/{reservationId}/collect", boxcontrollers.Collect(boxService, logg))
			r.Post("/{reservationId}/cancel", boxcontrollers.Cancel(boxService, logg))
			r.Get("/{reservationId}/qr", boxcontrollers.PickupQR(boxService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.Summary(cartService, logg))
			r.Get("/count", cartcontrollers.Count(cartService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(cartPolicy, limiter, logg))
				r.Post("/items", cartcontrollers.Add(cartService, logg))
				r.Patch("/items/{cartItemId}", cartcontrollers.Update(cartService, logg))
				r.Delete("/items/{cartItemId}", cartcontrollers.Remove(cartService, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/checkout", ordercontrollers.Checkout(orderService, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(orderService, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(orderService, logg))
				r.Post("/{orderId}/status", ordercontrollers.Transition(orderService, logg))
			})
		})
	})

	return r
}
