// routes/payment_routes.go
package routes

import (
	"github.com/capactiyvirus/carebook-backend/handlers"
	"github.com/capactiyvirus/carebook-backend/services"
	"github.com/go-chi/chi/v5"
)

// SetupPaymentRoutes registers the booking checkout and the payment webhook
func SetupPaymentRoutes(r chi.Router, h *handlers.Handlers) {
	// Stripe calls this unauthenticated; the signature is checked instead
	r.Post("/payments/webhook", h.HandleStripeWebhook)

	r.Route("/bookings", func(r chi.Router) {
		r.Use(h.Authenticate(services.PathLogin))
		r.Post("/", h.CreateBooking)
		r.Get("/{reference}", h.GetBooking)
		r.Post("/{reference}/confirm", h.ConfirmBooking)
	})
}

// SetupAdminPaymentRoutes registers booking administration on an admin router
func SetupAdminPaymentRoutes(r chi.Router, h *handlers.Handlers) {
	r.Get("/bookings", h.ListBookings)
	r.Get("/bookings/stats", h.BookingStats)
	r.Post("/bookings/{id}/refund", h.RefundBooking)
}
