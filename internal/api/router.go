// Package api serves the session command surface over JSON/HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the command surface: middleware, health and metrics,
// then the authenticated /api/v1 routes.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", MetricsHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/session", h.CreateSession)

		r.Group(func(r chi.Router) {
			r.Use(h.guard.Middleware)

			r.Route("/cards", func(r chi.Router) {
				r.Get("/", h.ListCards)
				r.Post("/", h.CreateCard)
				r.Get("/total", h.GetTotalCard)
				r.Route("/{cardID}", func(r chi.Router) {
					r.Delete("/", h.DeleteCard)
					r.Put("/name", h.RenameCard)
					r.Put("/color", h.SetCardColor)
					r.Post("/toggle-chosen", h.ToggleChosen)
					r.Put("/active", h.SetActive)
					r.Get("/transactions", h.ListCardTransactions)
					r.Post("/transactions/{transactionID}", h.Link)
					r.Delete("/transactions/{transactionID}", h.Unlink)
				})
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", h.ListTransactions)
				r.Post("/", h.CreateTransaction)
				r.Route("/{transactionID}", func(r chi.Router) {
					r.Delete("/", h.DeleteTransaction)
					r.Put("/value", h.EditTransactionValue)
					r.Put("/shares/{cardID}", h.EditShare)
					r.Post("/shares/{cardID}/reset", h.ResetShare)
				})
			})

			r.Post("/recognize", h.Recognize)
			r.Post("/history/undo", h.Undo)
			r.Post("/history/redo", h.Redo)
			r.Post("/clear", h.Clear)
		})
	})

	return r
}

// routePattern returns the matched chi pattern, so metrics do not explode
// on per-id paths.
func routePattern(r *http.Request) string {
	if ctx := chi.RouteContext(r.Context()); ctx != nil {
		if p := ctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// requestLogger logs every request with its duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
