package handlers

import (
	"net/http"
)

type nurseDecisionRequest struct {
	Email    string `json:"email"`
	Decision string `json:"decision"`
}

// SendNurseDecisionEmail emails an applicant the outcome of their application
func (h *Handlers) SendNurseDecisionEmail(w http.ResponseWriter, r *http.Request) {
	var req nurseDecisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Email.SendNurseDecision(r.Context(), req.Email, req.Decision)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
