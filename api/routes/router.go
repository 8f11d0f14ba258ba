package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/pos-terminal/api/controllers"
	"github.com/angelmondragon/pos-terminal/api/middleware"
	"github.com/angelmondragon/pos-terminal/internal/catalog"
	checkoutsvc "github.com/angelmondragon/pos-terminal/internal/checkout"
	"github.com/angelmondragon/pos-terminal/internal/customers"
	"github.com/angelmondragon/pos-terminal/internal/locations"
	"github.com/angelmondragon/pos-terminal/internal/paymentmethods"
	"github.com/angelmondragon/pos-terminal/internal/tabs"
	"github.com/angelmondragon/pos-terminal/pkg/config"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	"github.com/angelmondragon/pos-terminal/pkg/redis"
)

type statePinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	state statePinger,
	replayStore redis.IdempotencyStore,
	metricsHandler http.Handler,
	store *tabs.Store,
	checkoutService checkoutsvc.Service,
	catalogService catalog.Service,
	customerService customers.Service,
	locationService locations.Service,
	paymentMethodService paymentmethods.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, state, logg))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Operator(cfg.JWT, logg))
		if replayStore != nil {
			r.Use(middleware.Idempotency(replayStore, logg))
		}

		r.Get("/session", controllers.SessionGet(store, logg))
		r.Route("/tabs", func(r chi.Router) {
			r.Post("/", controllers.TabCreate(store, logg))
			r.Put("/active", controllers.TabActivate(store, logg))
			r.Delete("/{id}", controllers.TabDelete(store, logg))
			r.Post("/{id}/reset", controllers.TabReset(store, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Delete("/", controllers.CartClear(store, logg))
			r.Post("/items", controllers.CartAddItem(store, logg))
			r.Patch("/items/{productID}", controllers.CartUpdateItem(store, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(store, logg))
		})

		r.Route("/tab", func(r chi.Router) {
			r.Put("/note", controllers.TabNote(store, logg))
			r.Put("/discount", controllers.TabDiscount(store, logg))
			r.Put("/print-receipt", controllers.TabPrintReceipt(store, logg))
			r.Put("/customer", controllers.TabCustomer(store, logg))
			r.Get("/totals", controllers.TabTotals(store, logg))
			r.Post("/transactions", controllers.TabTransactionAdd(store, paymentMethodService, logg))
			r.Delete("/transactions/{id}", controllers.TabTransactionRemove(store, logg))
		})

		r.Get("/checkout/readiness", controllers.CheckoutReadiness(checkoutService, locationService, logg))
		r.Post("/checkout", controllers.CheckoutSubmit(checkoutService, locationService, logg))

		r.Get("/catalog/variants", controllers.CatalogSearch(catalogService, logg))
		r.Get("/customers", controllers.CustomersSearch(customerService, logg))
		r.Post("/customers", controllers.CustomerCreate(customerService, logg))
		r.Get("/locations", controllers.LocationsList(locationService, logg))
		r.Put("/locations/selected", controllers.LocationSelect(locationService, logg))
		r.Get("/payment-methods", controllers.PaymentMethodsList(paymentMethodService, logg))
	})

	return r
}
