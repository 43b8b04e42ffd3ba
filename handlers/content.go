package handlers

import (
	"net/http"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/capactiyvirus/carebook-backend/services"
	"github.com/go-chi/chi/v5"
)

type servicesResponse struct {
	Services []models.Service `json:"services"`
	Features []models.Feature `json:"features"`
}

// ListServices returns the services offered and the reasons to choose them
func (h *Handlers) ListServices(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, servicesResponse{
		Services: h.svc.Catalog.Services(),
		Features: h.svc.Catalog.Features(),
	})
}

type plansResponse struct {
	Plans     []models.Plan `json:"plans"`
	TimeSlots []string      `json:"time_slots"`
}

// ListPlans returns the bookable plans and time slots
func (h *Handlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, plansResponse{
		Plans:     h.svc.Catalog.Plans(),
		TimeSlots: services.TimeSlots,
	})
}

// ListTestimonials returns patient testimonials
func (h *Handlers) ListTestimonials(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.svc.Catalog.Testimonials())
}

// ListFeaturedNurses returns the nurses shown on the marketing pages
func (h *Handlers) ListFeaturedNurses(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.svc.Catalog.FeaturedNurses())
}

type blogListResponse struct {
	Categories []string           `json:"categories"`
	Posts      []*models.BlogPost `json:"posts"`
}

// ListPosts lists published posts, optionally for one category
func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.Content.ListPosts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if posts == nil {
		posts = []*models.BlogPost{}
	}
	respondWithJSON(w, http.StatusOK, blogListResponse{
		Categories: services.BlogCategories,
		Posts:      posts,
	})
}

// GetPost returns a published post with its body rendered
func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.Content.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, post)
}

// SubmitContact stores a contact form message and forwards it to support
func (h *Handlers) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var form services.ContactForm
	if !decodeJSON(w, r, &form) {
		return
	}

	msg, err := h.svc.Content.SubmitContact(r.Context(), form)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Thank you for contacting us. We will get back to you soon.",
		"id":      msg.ID,
	})
}
