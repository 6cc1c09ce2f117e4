package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Deps are the services behind the local routes. Nil services answer with
// an internal error; a nil Gatherer disables /metrics.
type Deps struct {
	Checkout controllers.PaymentReturns
	Cart     controllers.CartLoader
	Orders   controllers.OrderLoader
	Gatherer prometheus.Gatherer
	Ready    map[string]controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Server.AllowedOrigins),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/readyz", controllers.HealthReady(cfg, logg, deps.Ready))
	if cfg.Metrics.Enabled && deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/payment-success", controllers.PaymentSuccess(deps.Checkout, cfg.Server.ReturnWait, logg))
	r.Get("/payment-cancel", controllers.PaymentCancel(deps.Checkout, logg))

	r.Get("/cart", controllers.CartSummary(deps.Cart, logg))
	r.Get("/orders", controllers.OrderList(deps.Orders, logg))

	return r
}
