package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CancelAppointment cancels a scheduled appointment for its patient or an admin
func (h *Handlers) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	appointment, err := h.svc.Appointments.CancelAppointment(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, appointment)
}

// CompleteAppointment marks a visit done by its assigned nurse or an admin
func (h *Handlers) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	appointment, err := h.svc.Appointments.CompleteAppointment(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, appointment)
}
