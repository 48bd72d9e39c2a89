package router

import (
	"net/http"

	"annies-bakery/internal/handler"
	"annies-bakery/internal/metrics"
	"annies-bakery/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers the router dispatches to.
type Handlers struct {
	Checkout *handler.CheckoutHandler
	Orders   *handler.OrderHandler
	Catalog  *handler.CatalogHandler
	Live     http.HandlerFunc
}

// New creates a new HTTP router with all routes and middleware configured.
// Admin routes require apiKey; everything else is public.
func New(h Handlers, apiKey string, m *metrics.Metrics, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Applied outermost first: Recovery -> Logging -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger, m))
	r.Use(middleware.CORS)
	r.Use(chimw.CleanPath)
	r.Use(chimw.StripSlashes)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.Catalog.ListProducts)
		r.Get("/products/{id}", h.Catalog.GetProduct)
		r.Get("/blog", h.Catalog.ListPosts)
		r.Get("/blog/{id}", h.Catalog.GetPost)
		r.Post("/custom-orders", h.Orders.CreateCustom)
		r.Post("/contact", h.Orders.Contact)
	})

	r.Post("/cart/checkout", h.Checkout.Checkout)
	r.Get("/cart/success/{orderID}", h.Checkout.Success)
	r.Get("/cart/cancel/{orderID}", h.Checkout.Cancel)
	r.Get("/order/status/{orderID}", h.Orders.Status)
	r.Post("/webhooks/payment", h.Checkout.Webhook)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(apiKey, logger))

		r.Get("/orders", h.Orders.List)
		r.Get("/orders/export", h.Orders.Export)
		r.Post("/orders/batch", h.Orders.Batch)
		r.Post("/orders/{id}/status", h.Orders.UpdateStatus)
		r.Post("/orders/{id}/notes", h.Orders.AddNote)
		r.Delete("/orders/{id}", h.Orders.Delete)

		r.Get("/products", h.Catalog.AllProducts)
		r.Post("/products", h.Catalog.SaveProduct)
		r.Put("/products/{id}", h.Catalog.SaveProduct)
		r.Delete("/products/{id}", h.Catalog.DeleteProduct)

		r.Get("/posts", h.Catalog.AllPosts)
		r.Post("/posts", h.Catalog.SavePost)
		r.Put("/posts/{id}", h.Catalog.SavePost)
		r.Delete("/posts/{id}", h.Catalog.DeletePost)

		if h.Live != nil {
			r.Get("/live", h.Live)
		}
	})

	return r
}
