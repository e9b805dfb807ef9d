package router

import (
	"net/http"

	"vendora/internal/handler"
	"vendora/internal/metrics"
	"vendora/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Paths that bypass API-key auth. The webhook authenticates with the
// gateway's signature header instead.
var exemptPaths = []string{"/health", "/metrics", "/webhooks/payments"}

// New creates the HTTP router with all routes and middleware configured.
func New(
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
	walletHandler *handler.WalletHandler,
	withdrawalHandler *handler.WithdrawalHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.APIKeyAuth(apiKey, exemptPaths, logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Post("/webhooks/payments", paymentHandler.Webhook)

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderHandler.Checkout)
			r.Get("/{id}", orderHandler.GetByID)
			r.Patch("/{id}/status", orderHandler.UpdateStatus)
			r.Post("/{id}/complete", orderHandler.Complete)
			r.Post("/{id}/reverse", orderHandler.Reverse)
			r.Post("/{id}/dispute", orderHandler.Dispute)
		})

		r.Post("/payments/verify", paymentHandler.Verify)

		r.Route("/wallet", func(r chi.Router) {
			r.Post("/topups", walletHandler.TopUp)
			r.Get("/{userId}/entries", walletHandler.Entries)
		})

		r.Post("/withdrawals", withdrawalHandler.Request)
	})

	return r
}
