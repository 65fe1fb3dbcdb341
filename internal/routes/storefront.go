// Package routes wires handlers onto the router.
package routes

import (
	"github.com/dukerupert/mesa/internal/middleware"
	"github.com/dukerupert/mesa/internal/router"
)

// RegisterStorefrontRoutes registers the storefront JSON API.
// The order submission endpoint gets its own strict rate limit tier; the
// upstream has no idempotency protection against duplicate orders.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	// Restaurant catalog
	r.Get("/api/restaurants", deps.RestaurantHandler.List)
	r.Get("/api/restaurants/{id}", deps.RestaurantHandler.Detail)

	// Shopping cart
	r.Get("/api/cart", deps.CartHandler.View)
	r.Post("/api/cart/items", deps.CartHandler.Add)
	r.Patch("/api/cart/items/{id}", deps.CartHandler.UpdateItem)
	r.Delete("/api/cart/items/{id}", deps.CartHandler.RemoveItem)
	r.Delete("/api/cart", deps.CartHandler.Clear)

	// Checkout flow
	r.Get("/api/checkout/delivery", deps.CheckoutHandler.Delivery)
	r.Post("/api/checkout/delivery", deps.CheckoutHandler.SubmitDelivery)
	r.Get("/api/checkout/payment", deps.CheckoutHandler.Payment)
	r.Post("/api/checkout/payment", deps.CheckoutHandler.SubmitPayment,
		middleware.RateLimit(middleware.StrictRateLimiterConfig()),
		middleware.Timeout(middleware.SubmitTimeout),
	)
	r.Get("/api/checkout/confirmation", deps.CheckoutHandler.Confirmation)
	r.Post("/api/checkout/complete", deps.CheckoutHandler.Complete)
}
