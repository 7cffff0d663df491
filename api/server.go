/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the POS frontend

SECURITY NOTE:
  Authentication is the host application's concern (a gate in front of
  the drawer screens); this API performs no authorization checks.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Drawer routes
		r.Route("/drawer", func(r chi.Router) {
			r.Get("/", h.GetDrawer)
			r.Get("/lines/{denomination}", h.GetDrawerLine)
			r.Post("/corrections", h.CorrectCount)
			r.Post("/deposits", h.Deposit)
			r.Post("/withdrawals", h.Withdraw)
		})

		// Sale recording
		r.Post("/sales", h.RecordSale)

		// Reports
		r.Get("/events", h.ListEvents)
		r.Get("/settlement", h.GetSettlement)

		// Day lifecycle
		r.Post("/day/open", h.OpenDay)

		// Dev/test tooling
		r.Post("/reset", h.Reset)
	})

	return r
}
