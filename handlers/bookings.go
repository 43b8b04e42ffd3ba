package handlers

import (
	"net/http"

	"github.com/capactiyvirus/carebook-backend/services"
	"github.com/go-chi/chi/v5"
)

// CreateBooking validates the booking form and opens a payment for it
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req services.BookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Bookings.CreateBooking(r.Context(), UserID(r.Context()), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, result)
}

// GetBooking returns a booking and its payment events
func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	details, err := h.svc.Bookings.GetBooking(r.Context(), UserID(r.Context()), chi.URLParam(r, "reference"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, details)
}

// ConfirmBooking is called by the client once the payment form reports
// success. It checks the payment with the provider rather than trusting the client.
func (h *Handlers) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.svc.Bookings.ConfirmBooking(r.Context(), UserID(r.Context()), chi.URLParam(r, "reference"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, booking)
}
