package handlers

import (
	"net/http"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/capactiyvirus/carebook-backend/services"
	"github.com/capactiyvirus/carebook-backend/storage"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles the general sign-up form
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var form services.Registration
	if !decodeJSON(w, r, &form) {
		return
	}

	session, err := h.svc.Auth.Register(r.Context(), form)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, session)
}

// SignUpPatient handles the patient sign-up form
func (h *Handlers) SignUpPatient(w http.ResponseWriter, r *http.Request) {
	var form services.PatientSignup
	if !decodeJSON(w, r, &form) {
		return
	}

	session, err := h.svc.Auth.SignUpPatient(r.Context(), form)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, session)
}

// SignUpNurse handles the multipart nurse application with an optional
// "license" file.
func (h *Handlers) SignUpNurse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	var form services.NurseSignup
	if err := h.decoder.Decode(&form, r.MultipartForm.Value); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid form: "+err.Error())
		return
	}

	var license *services.Upload
	file, header, err := r.FormFile("license")
	switch err {
	case nil:
		defer file.Close()
		license = &services.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		}
	case http.ErrMissingFile:
	default:
		respondWithError(w, http.StatusBadRequest, "Invalid license file: "+err.Error())
		return
	}

	session, err := h.svc.Auth.SignUpNurse(r.Context(), form, license)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, session)
}

// Login signs in any role and returns where the user should land
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if !decodeJSON(w, r, &creds) {
		return
	}

	session, err := h.svc.Auth.SignIn(r.Context(), creds.Email, creds.Password)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, session)
}

// AdminLogin signs in through the admin portal
func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if !decodeJSON(w, r, &creds) {
		return
	}

	session, err := h.svc.Auth.SignInAdmin(r.Context(), creds.Email, creds.Password)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, session)
}

// Logout tells the client to drop its token. Tokens are stateless and expire on their own.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"message":  "Signed out",
		"redirect": services.PathHome,
	})
}

// sessionResponse describes the signed-in user
type sessionResponse struct {
	User     *models.Profile `json:"user"`
	Redirect string          `json:"redirect"`
}

// Session returns the signed-in profile and the dashboard it resolves to
func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	profile, err := h.svc.Access.Profile(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	path, err := h.svc.Access.ResolveDashboard(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sessionResponse{User: profile, Redirect: path})
}
