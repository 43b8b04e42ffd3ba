package handlers

import (
	"net/http"
)

// Dashboard is the general dashboard every signed-in user can open
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Dashboards.General(r.Context(), UserID(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dash)
}

// PatientDashboard is only open to patients
func (h *Handlers) PatientDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Dashboards.Patient(r.Context(), UserID(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dash)
}

// NurseDashboard is only open to approved nurses. Pending and rejected
// applicants are redirected to the application status page.
func (h *Handlers) NurseDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Dashboards.Nurse(r.Context(), UserID(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dash)
}

// AdminDashboard shows platform totals and pending nurse applications
func (h *Handlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Dashboards.Admin(r.Context(), UserID(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dash)
}
