/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for reporting frontends

ROUTE GROUPS:
  /api/gold/*            star-schema collections
  /api/silver/*          cleansed collections
  /api/validation/*      quality reports
  /api/runs              trigger a warehouse run
  /api/health            liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/dwh/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Star-schema (gold) collections
		r.Route("/gold", func(r chi.Router) {
			r.Get("/customers", h.GetGoldCustomers)
			r.Get("/products", h.GetGoldProducts)
			r.Get("/sales", h.GetGoldSales)
		})

		// Cleansed (silver) collections
		r.Route("/silver", func(r chi.Router) {
			r.Get("/customers", h.GetSilverCustomers)
			r.Get("/products", h.GetSilverProducts)
			r.Get("/sales", h.GetSilverSales)
		})

		// Validation routes
		r.Route("/validation", func(r chi.Router) {
			r.Get("/report", h.GetValidationReport)
		})

		// Run trigger
		r.Post("/runs", h.TriggerRun)

		r.Get("/health", h.Health)
	})

	return r
}
