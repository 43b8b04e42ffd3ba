package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/capactiyvirus/carebook-backend/config"
	"github.com/capactiyvirus/carebook-backend/services"
	"github.com/capactiyvirus/carebook-backend/storage"
	"github.com/capactiyvirus/carebook-backend/store"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Services are the dependencies the handlers call into
type Services struct {
	Auth         *services.AuthService
	Access       *services.AccessService
	Dashboards   *services.DashboardService
	Bookings     *services.BookingService
	Nurses       *services.NurseService
	Appointments *services.AppointmentService
	Content      *services.ContentService
	Email        *services.EmailService
	Catalog      *services.Catalog
	Files        *storage.FileStore
}

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	config *config.Config
	svc    Services
	logger zerolog.Logger

	decoder *schema.Decoder
	limiter *RateLimiter
}

// NewHandlers creates a new Handlers instance
func NewHandlers(cfg *config.Config, svc Services, logger zerolog.Logger) *Handlers {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	logger = logger.With().Str("component", "http").Logger()
	return &Handlers{
		config:  cfg,
		svc:     svc,
		logger:  logger,
		decoder: decoder,
		limiter: NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst).WithLogger(logger),
	}
}

// Limiter is the rate limiter guarding the sign in and sign up routes
func (h *Handlers) Limiter() *RateLimiter {
	return h.limiter
}

// errorResponse is the body of every failed request
type errorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Error: message})
}

func respondWithRedirect(w http.ResponseWriter, code int, message, redirect string) {
	respondWithJSON(w, code, errorResponse{Error: message, Redirect: redirect})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Error encoding response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// handleError maps a service error to a response. Unexpected errors are logged
// and reported without their details.
func (h *Handlers) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		respondWithError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, services.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, services.ErrInvalidCredentials.Error())
	case errors.Is(err, services.ErrAccessDenied):
		respondWithRedirect(w, http.StatusForbidden, services.ErrAccessDenied.Error(), services.PathLoginAdmin)
	case errors.Is(err, services.ErrUserExists), errors.Is(err, store.ErrDuplicateEmail):
		respondWithError(w, http.StatusConflict, services.ErrUserExists.Error())
	case errors.Is(err, services.ErrWrongRole), errors.Is(err, services.ErrNurseNotApproved):
		respondWithRedirect(w, http.StatusForbidden, errors.Cause(err).Error(), services.RedirectFor(err))
	case errors.Is(err, services.ErrInvalidToken):
		respondWithRedirect(w, http.StatusUnauthorized, "Authentication required", services.PathLogin)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrAlreadyAssigned):
		respondWithError(w, http.StatusConflict, services.ErrAlreadyAssigned.Error())
	case errors.Is(err, services.ErrInvalidState):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrPaymentFailed):
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("payment provider error")
		respondWithError(w, http.StatusBadGateway, "Payment provider error, please try again")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a JSON body into v, writing a 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// pagination parses limit and offset query parameters
type pagination struct {
	Limit  int `schema:"limit"`
	Offset int `schema:"offset"`
}

func (h *Handlers) parsePagination(r *http.Request) pagination {
	p := pagination{Limit: 50}
	var q pagination
	if err := h.decoder.Decode(&q, r.URL.Query()); err == nil {
		if q.Limit > 0 {
			p.Limit = q.Limit
		}
		if q.Offset >= 0 {
			p.Offset = q.Offset
		}
	}
	return p
}
