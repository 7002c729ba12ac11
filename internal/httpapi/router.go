package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the admin console API surface.
func NewRouter(checkout *CheckoutHandler, products *ProductHandler, salesHandler *SalesHandler, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(StaffAuthMiddleware)

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkout.CreateSession)
			r.Route("/{session_id}", func(r chi.Router) {
				r.Get("/", checkout.GetCart)
				r.Delete("/", checkout.DiscardSession)
				r.Post("/items", checkout.AddItem)
				r.Put("/items/{line_id}", checkout.UpdateQuantity)
				r.Put("/items/{line_id}/discount", checkout.UpdateDiscount)
				r.Delete("/items/{line_id}", checkout.RemoveItem)
				r.Post("/free-items", checkout.GrantFreeItem)
				r.Put("/order", checkout.SetOrderAdjustments)
				r.Post("/finalize", checkout.Finalize)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.ListProducts)
			r.Get("/{product_id}", products.GetProduct)
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", salesHandler.ListSales)
			r.Route("/{invoice_no}", func(r chi.Router) {
				r.Get("/", salesHandler.GetSale)
				r.Delete("/", salesHandler.DiscardSale)
				r.Post("/returns", salesHandler.ProcessReturn)
				r.Post("/payments", salesHandler.RecordPayment)
			})
		})
	})

	return r
}
