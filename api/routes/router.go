package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmarchetti/storefront-backend/api/controllers"
	"github.com/jmarchetti/storefront-backend/api/middleware"
	cartsvc "github.com/jmarchetti/storefront-backend/internal/cart"
	"github.com/jmarchetti/storefront-backend/internal/catalog"
	checkoutsvc "github.com/jmarchetti/storefront-backend/internal/checkout"
	ordersvc "github.com/jmarchetti/storefront-backend/internal/orders"
	"github.com/jmarchetti/storefront-backend/pkg/config"
	"github.com/jmarchetti/storefront-backend/pkg/db"
	"github.com/jmarchetti/storefront-backend/pkg/enums"
	"github.com/jmarchetti/storefront-backend/pkg/logger"
	"github.com/jmarchetti/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	catalogService catalog.Service,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	ordersService ordersvc.Service,
	metricsGatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if metricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsIndex(catalogService, cartService, logg))
			r.Get("/{productId}", controllers.ProductShow(catalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
			r.Post("/checkout", controllers.Checkout(checkoutService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
			r.Post("/products", controllers.AdminCreateProduct(catalogService, logg))
			r.Patch("/products/{productId}/stock", controllers.AdminUpdateStock(catalogService, logg))
			r.Delete("/products/{productId}", controllers.AdminDeleteProduct(catalogService, logg))
		})
	})

	return r
}
