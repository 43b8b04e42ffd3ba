package main

import (
	"github.com/capactiyvirus/carebook-backend/config"
	"github.com/capactiyvirus/carebook-backend/handlers"
	"github.com/capactiyvirus/carebook-backend/services"
	"github.com/capactiyvirus/carebook-backend/storage"
	"github.com/capactiyvirus/carebook-backend/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	migrate "github.com/rubenv/sql-migrate"
)

// app holds the wired services shared by the commands
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	store  store.Store
	svc    handlers.Services
}

// openStore connects to Postgres and applies pending migrations, or falls back
// to the in-memory store when DATABASE_URL is empty.
func openStore(cfg *config.Config, logger zerolog.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory store; data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	pg, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	n, err := store.Migrate(pg.DB(), migrate.Up, 0)
	if err != nil {
		pg.Close()
		return nil, errors.Wrap(err, "migrating database")
	}
	logger.Info().Int("applied", n).Msg("database migrations applied")
	return pg, nil
}

func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	s, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	files, err := storage.NewFileStore(cfg.StorageDir, cfg.PublicBaseURL)
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "opening file storage")
	}

	var backend services.MailBackend
	if cfg.SMTPConfigured() {
		backend = services.NewSMTPBackend(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	} else {
		logger.Warn().Msg("SMTP not configured, emails will be logged instead of sent")
		backend = &services.LogBackend{Logger: logger.With().Str("component", "mail").Logger()}
	}

	email := services.NewEmailService(backend, services.EmailConfig{
		FromEmail:    cfg.FromEmail,
		FromName:     cfg.FromName,
		SupportEmail: cfg.SupportEmail,
		CompanyName:  cfg.CompanyName,
		FrontendURL:  cfg.FrontendURL,
	}, logger)

	access := services.NewAccessService(s)
	catalog := services.NewCatalog(cfg.PaymentCurrency)
	gateway := services.NewStripeGateway(cfg.StripeSecretKey)

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  s,
		svc: handlers.Services{
			Auth: services.NewAuthService(s, files, access, services.AuthConfig{
				Secret: cfg.JWTSecret,
				Issuer: cfg.JWTIssuer,
				TTL:    cfg.JWTTTL,
			}, logger),
			Access:     access,
			Dashboards: services.NewDashboardService(s, access),
			Bookings: services.NewBookingService(s, gateway, email, access, catalog, services.BookingConfig{
				PublishableKey: cfg.StripePublishableKey,
				Expiry:         cfg.BookingExpiry,
			}, logger),
			Nurses:       services.NewNurseService(s, email, logger),
			Appointments: services.NewAppointmentService(s, access, logger),
			Content:      services.NewContentService(s, email, logger),
			Email:        email,
			Catalog:      catalog,
			Files:        files,
		},
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
