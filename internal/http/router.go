// Package http exposes the storefront over a JSON API plus an event stream
// for cart change notifications.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the API surface. The events route sits outside the
// timeout middleware because the stream is long-lived on purpose.
func NewRouter(carts *CartHandler, products *CatalogHandler, payments *CheckoutHandler, events *EventsHandler, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", products.List)
				r.Get("/featured", products.Featured)
				r.Get("/{product_id}", products.Get)
				r.Get("/{product_id}/related", products.Related)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", carts.GetCart)
				r.Get("/count", carts.Count)
				r.Delete("/", carts.ClearCart)
				r.Post("/items", carts.AddItem)
				r.Put("/items/{item_id}", carts.UpdateQuantity)
				r.Delete("/items/{item_id}", carts.RemoveItem)
				r.Put("/fee", carts.SetFee)
				r.Post("/coupon", carts.ApplyCoupon)
				r.Delete("/coupon", carts.RemoveCoupon)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", payments.Pay)
				r.Get("/pix", payments.Pix)
			})
		})

		r.Get("/events", events.Stream)
	})

	return r
}
