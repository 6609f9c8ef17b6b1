package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/orderbot-backend/api/controllers"
	"github.com/angelmondragon/orderbot-backend/api/middleware"
	"github.com/angelmondragon/orderbot-backend/internal/cart"
	"github.com/angelmondragon/orderbot-backend/internal/catalog"
	"github.com/angelmondragon/orderbot-backend/internal/checkout"
	"github.com/angelmondragon/orderbot-backend/internal/customers"
	"github.com/angelmondragon/orderbot-backend/internal/orders"
	"github.com/angelmondragon/orderbot-backend/pkg/config"
	"github.com/angelmondragon/orderbot-backend/pkg/db"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
	"github.com/angelmondragon/orderbot-backend/pkg/redis"
)

// NewRouter wires the HTTP surface used by the chat transport. A nil
// redisClient disables idempotency replay and the redis readiness check.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	customerService customers.Service,
	catalogService catalog.Service,
	cartService cart.Service,
	checkoutService checkout.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	deps := map[string]controllers.Pinger{"database": dbP}
	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		deps["redis"] = redisClient
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ChatIdentity(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, cfg.Orders.IdempotencyTTL, logg))

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", controllers.RegisterCustomer(customerService, logg))
			r.Get("/me", controllers.CurrentCustomer(customerService, logg))
		})

		r.Get("/categories", controllers.ListCategories(catalogService, logg))
		r.Get("/categories/{categoryId}/products", controllers.ListCategoryProducts(catalogService, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(catalogService, logg))
		r.Get("/delivery-types", controllers.ListDeliveryTypes(catalogService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Put("/items/{productId}", controllers.CartEditItem(cartService, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutSubmit(checkoutService, logg))
			r.Get("/draft", controllers.CheckoutDraftFetch(checkoutService, logg))
			r.Patch("/draft", controllers.CheckoutDraftUpdate(checkoutService, logg))
			r.Delete("/draft", controllers.CheckoutDraftClear(checkoutService, logg))
			r.Post("/draft/submit", controllers.CheckoutDraftSubmit(checkoutService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderHistory(ordersService, logg))
			r.Get("/latest-status", controllers.OrderLatestStatus(ordersService, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(ordersService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/register", controllers.AdminRegister(customerService, logg))
			r.Post("/login", controllers.AdminLogin(customerService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(customerService, logg))
				r.Post("/products", controllers.AdminAddProduct(catalogService, logg))
				r.Delete("/products/{productId}", controllers.AdminDeleteProduct(catalogService, logg))
				r.Get("/orders/today", controllers.AdminTodaysOrders(ordersService, logg))
				r.Put("/orders/{orderId}/status", controllers.AdminSetOrderStatus(ordersService, logg))
				r.Post("/orders/{orderId}/cancel", controllers.AdminCancelOrder(ordersService, logg))
			})
		})
	})

	return r
}
