// Package httptransport assembles the HTTP router: middleware chain,
// public auth routes, and the authenticated module routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	bookinghandler "vendora/internal/booking/handler"
	identityhandler "vendora/internal/identity/handler"
	orderhandler "vendora/internal/order/handler"
	"vendora/internal/platform/metrics"
	"vendora/internal/platform/middleware"
	pointshandler "vendora/internal/points/handler"
	wallethandler "vendora/internal/wallet/handler"
	"vendora/pkg/platform/httputil"
)

// Handlers bundles the per-module route registrars.
type Handlers struct {
	Auth    *identityhandler.Handler
	Booking *bookinghandler.Handler
	Wallet  *wallethandler.Handler
	Order   *orderhandler.Handler
	Points  *pointshandler.Handler

	// LoginLimiter throttles the public login route. Optional.
	LoginLimiter func(http.Handler) http.Handler
}

// NewRouter wires middleware and routes. The operational endpoints
// (/healthz, /metrics) and login stay public; everything else requires a
// valid bearer token.
func NewRouter(h Handlers, validator middleware.JWTValidator, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteMessage(w, http.StatusOK, "ok")
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if h.LoginLimiter != nil {
			r.Use(h.LoginLimiter)
		}
		h.Auth.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))
		h.Booking.Register(r)
		h.Order.Register(r)
		h.Points.Register(r)

		// Balance mutations are a merchant-side surface; diners never
		// touch wallets directly.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("merchant", "staff", "admin"))
			h.Wallet.Register(r)
		})
	})

	return r
}
