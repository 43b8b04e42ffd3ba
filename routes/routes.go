package routes

import (
	"time"

	"github.com/capactiyvirus/carebook-backend/config"
	"github.com/capactiyvirus/carebook-backend/handlers"
	"github.com/capactiyvirus/carebook-backend/logging"
	"github.com/capactiyvirus/carebook-backend/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// SetupRoutes builds the router with its middleware stack and every route
func SetupRoutes(h *handlers.Handlers, cfg *config.Config, logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(handlers.CORS(cfg.CorsAllowedOrigins))
	r.Use(handlers.SecurityHeaders(cfg.IsProduction()))

	r.Get("/", h.Root)
	r.Get("/health", h.HealthCheck)
	r.Get("/files/{bucket}/{name}", h.ServeFile)

	authenticated := h.Authenticate(services.PathLogin)
	adminOnly := h.Authenticate(services.PathLoginAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Route("/content", func(r chi.Router) {
			r.Get("/services", h.ListServices)
			r.Get("/plans", h.ListPlans)
			r.Get("/testimonials", h.ListTestimonials)
			r.Get("/nurses", h.ListFeaturedNurses)
		})

		r.Get("/blog", h.ListPosts)
		r.Get("/blog/{id}", h.GetPost)
		r.Post("/contact", h.SubmitContact)

		r.With(adminOnly, h.RequireAdmin).Post("/functions/send-nurse-decision-email", h.SendNurseDecisionEmail)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.Limiter().Limit)
				r.Post("/register", h.Register)
				r.Post("/signup/patient", h.SignUpPatient)
				r.Post("/signup/nurse", h.SignUpNurse)
				r.Post("/login", h.Login)
				r.Post("/admin/login", h.AdminLogin)
			})
			r.Post("/logout", h.Logout)
			r.With(authenticated).Get("/session", h.Session)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.With(authenticated).Get("/", h.Dashboard)
			r.With(authenticated).Get("/patient", h.PatientDashboard)
			r.With(authenticated).Get("/nurse", h.NurseDashboard)
			r.With(adminOnly).Get("/admin", h.AdminDashboard)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/{id}/cancel", h.CancelAppointment)
			r.Post("/{id}/complete", h.CompleteAppointment)
		})

		SetupPaymentRoutes(r, h)

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminOnly)
			r.Use(h.RequireAdmin)

			r.Get("/nurses", h.ListNurseApplications)
			r.Post("/nurses/{id}/approve", h.ApproveNurse)
			r.Post("/nurses/{id}/reject", h.RejectNurse)
			r.Post("/nurses/{id}/patients", h.AssignPatient)
			r.Post("/appointments/{id}/assign", h.AssignAppointmentNurse)
			r.Get("/contact-messages", h.ListContactMessages)
			r.Post("/blog", h.CreatePost)

			SetupAdminPaymentRoutes(r, h)
		})
	})

	return r
}
