package handlers

import (
	"net/http"
	"strings"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/capactiyvirus/carebook-backend/services"
	"github.com/go-chi/chi/v5"
)

// ListNurseApplications lists nurse applications, optionally by status
func (h *Handlers) ListNurseApplications(w http.ResponseWriter, r *http.Request) {
	status := models.NurseStatus(r.URL.Query().Get("status"))
	applications, err := h.svc.Nurses.ListApplications(r.Context(), status)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if applications == nil {
		applications = []*models.NurseApplication{}
	}
	respondWithJSON(w, http.StatusOK, applications)
}

// ApproveNurse approves an application and emails the applicant
func (h *Handlers) ApproveNurse(w http.ResponseWriter, r *http.Request) {
	nurse, err := h.svc.Nurses.ApproveNurse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, nurse)
}

// RejectNurse rejects an application and emails the applicant
func (h *Handlers) RejectNurse(w http.ResponseWriter, r *http.Request) {
	nurse, err := h.svc.Nurses.RejectNurse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, nurse)
}

type assignPatientRequest struct {
	PatientID string `json:"patient_id"`
}

// AssignPatient links a patient to an approved nurse
func (h *Handlers) AssignPatient(w http.ResponseWriter, r *http.Request) {
	var req assignPatientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.PatientID) == "" {
		respondWithError(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	link, err := h.svc.Nurses.AssignPatient(r.Context(), chi.URLParam(r, "id"), req.PatientID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, link)
}

type assignNurseRequest struct {
	NurseID string `json:"nurse_id"`
}

// AssignAppointmentNurse puts an approved nurse on a scheduled appointment
func (h *Handlers) AssignAppointmentNurse(w http.ResponseWriter, r *http.Request) {
	var req assignNurseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.NurseID) == "" {
		respondWithError(w, http.StatusBadRequest, "nurse_id is required")
		return
	}

	appointment, err := h.svc.Appointments.AssignNurse(r.Context(), chi.URLParam(r, "id"), req.NurseID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, appointment)
}

// ListBookings lists bookings newest first (admin only)
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	page := h.parsePagination(r)

	bookings, err := h.svc.Bookings.ListBookings(r.Context(), page.Limit, page.Offset)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*models.BookingSummary{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"limit":    page.Limit,
		"offset":   page.Offset,
		"count":    len(bookings),
	})
}

// BookingStats returns booking and revenue statistics (admin only)
func (h *Handlers) BookingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Bookings.BookingStats(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// RefundBooking refunds a paid booking and cancels its appointment
func (h *Handlers) RefundBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.svc.Bookings.RefundBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, booking)
}

// ListContactMessages lists contact form submissions
func (h *Handlers) ListContactMessages(w http.ResponseWriter, r *http.Request) {
	page := h.parsePagination(r)

	messages, err := h.svc.Content.ListContactMessages(r.Context(), page.Limit, page.Offset)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if messages == nil {
		messages = []*models.ContactMessage{}
	}
	respondWithJSON(w, http.StatusOK, messages)
}

// CreatePost publishes or drafts a blog post
func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	var form services.NewPost
	if !decodeJSON(w, r, &form) {
		return
	}

	post, err := h.svc.Content.CreatePost(r.Context(), UserID(r.Context()), form)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, post)
}
