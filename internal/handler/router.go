package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/storefront-checkout/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса оформления заказа.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.Metrics)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Post("/logout", h.Logout)
		})
	})

	r.Route("/api/checkout", func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)

		r.Get("/", h.GetCheckout)
		r.Get("/cities", h.GetCities)
		r.Get("/cart", h.SearchCart)
		r.Post("/validate", h.Validate)
		r.Post("/order", h.PlaceOrder)
	})

	r.Get("/api/receipts/{id}", h.DownloadReceipt)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
