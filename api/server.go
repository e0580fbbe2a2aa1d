/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/materials/*   Material CRUD
  /api/purchases/*   Purchase-lot CRUD
  /api/products/*    Product CRUD, BOM, cost estimates
  /api/dashboard     Dashboard snapshot
  /health            Liveness probe
  /metrics           Prometheus metrics (optional)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, exposeMetrics bool) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/materials", func(r chi.Router) {
			r.Get("/", h.ListMaterials)
			r.Post("/", h.CreateMaterial)
			r.Get("/{id}", h.GetMaterial)
			r.Put("/{id}", h.UpdateMaterial)
			r.Delete("/{id}", h.DeleteMaterial)
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", h.ListPurchases)
			r.Post("/", h.CreatePurchase)
			r.Get("/{id}", h.GetPurchase)
			r.Put("/{id}", h.UpdatePurchase)
			r.Delete("/{id}", h.DeletePurchase)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
			r.Get("/{id}/bom", h.ListBOM)
			r.Post("/{id}/bom", h.CreateBOMLine)
			r.Get("/{id}/cost-estimate", h.GetCostEstimate)
		})

		r.Route("/bom", func(r chi.Router) {
			r.Delete("/{id}", h.DeleteBOMLine)
		})

		r.Get("/dashboard", h.GetDashboard)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if exposeMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}
