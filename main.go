// main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/capactiyvirus/carebook-backend/config"
	"github.com/capactiyvirus/carebook-backend/handlers"
	"github.com/capactiyvirus/carebook-backend/logging"
	"github.com/capactiyvirus/carebook-backend/routes"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
)

// expirySchedule is how often unpaid bookings are checked for expiry
const expirySchedule = "@every 15m"

func main() {
	rootCmd := &cobra.Command{
		Use:          "carebook",
		Short:        "Home healthcare booking API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Environment, cfg.LogLevel)

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start")
		return err
	}
	defer a.Close()

	if n, err := a.svc.Content.SeedPosts(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("seeding blog posts")
	} else if n > 0 {
		logger.Info().Int("posts", n).Msg("seeded blog posts")
	}

	jobs := cron.New()
	if err := jobs.AddFunc(expirySchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := a.svc.Bookings.ExpireStaleBookings(ctx); err != nil {
			logger.Error().Err(err).Msg("expiring stale bookings")
		}
	}); err != nil {
		return err
	}
	jobs.Start()
	defer jobs.Stop()

	h := handlers.NewHandlers(cfg, a.svc, logger)
	r := routes.SetupRoutes(h, cfg, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("environment", cfg.Environment).
			Strs("cors_allowed_origins", cfg.CorsAllowedOrigins).
			Msg("starting server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		logger.Error().Err(err).Msg("server failed to start")
		return err
	case <-quit:
	}

	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	logger.Info().Msg("server exited")
	return nil
}
