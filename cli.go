package main

import (
	"context"
	"fmt"

	"github.com/capactiyvirus/carebook-backend/config"
	"github.com/capactiyvirus/carebook-backend/logging"
	"github.com/capactiyvirus/carebook-backend/store"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"
)

var (
	colorRed   = color.New(color.FgRed)
	colorGreen = color.New(color.FgGreen)
	colorBlue  = color.New(color.FgBlue)
	colorGray  = color.New(color.FgHiBlack)
)

const indent = "  "

func infof(msg string, v ...interface{}) {
	fmt.Fprintf(color.Output, "%s%s %s\n", indent, colorBlue.Sprint("•"), fmt.Sprintf(msg, v...))
}

func successf(msg string, v ...interface{}) {
	fmt.Fprintf(color.Output, "%s%s %s\n", indent, colorGreen.Sprint("✔"), fmt.Sprintf(msg, v...))
}

func pendingf(msg string, v ...interface{}) {
	fmt.Fprintf(color.Output, "%s%s %s\n", indent, colorGray.Sprint("•"), fmt.Sprintf(msg, v...))
}

func errorf(msg string, v ...interface{}) {
	fmt.Fprintf(color.Output, "%s%s %s\n", indent, colorRed.Sprint("⨯"), fmt.Sprintf(msg, v...))
}

func loadDatabaseConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return cfg, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	run := func(direction migrate.MigrationDirection, max int) error {
		cfg, err := loadDatabaseConfig()
		if err != nil {
			errorf("%s", err)
			return err
		}
		db, err := store.OpenDB(cfg.DatabaseURL)
		if err != nil {
			errorf("%s", err)
			return err
		}
		defer db.Close()

		n, err := store.Migrate(db, direction, max)
		if err != nil {
			errorf("%s", err)
			return err
		}
		if direction == migrate.Up {
			successf("applied %d migration(s)", n)
		} else {
			successf("rolled back %d migration(s)", n)
		}
		return nil
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(migrate.Up, 0)
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return run(migrate.Down, steps)
		},
	}
	downCmd.Flags().Int("steps", 1, "number of migrations to roll back (0 for all)")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show which migrations have been applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDatabaseConfig()
			if err != nil {
				errorf("%s", err)
				return err
			}
			db, err := store.OpenDB(cfg.DatabaseURL)
			if err != nil {
				errorf("%s", err)
				return err
			}
			defer db.Close()

			states, err := store.MigrationStatus(db)
			if err != nil {
				errorf("%s", err)
				return err
			}
			for _, s := range states {
				if s.Applied {
					successf("%s", s.ID)
				} else {
					pendingf("%s %s", s.ID, colorGray.Sprint("(pending)"))
				}
			}
			return nil
		},
	}

	cmd.AddCommand(upCmd, downCmd, statusCmd)
	return cmd
}

func createAdminCmd() *cobra.Command {
	var email, password, firstName, lastName string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDatabaseConfig()
			if err != nil {
				errorf("%s", err)
				return err
			}

			a, err := newApp(cfg, logging.New(cfg.Environment, zerolog.LevelWarnValue))
			if err != nil {
				errorf("%s", err)
				return err
			}
			defer a.Close()

			profile, err := a.svc.Auth.CreateAdmin(context.Background(), email, password, firstName, lastName)
			if err != nil {
				errorf("%s", err)
				return err
			}
			successf("created admin %s", profile.Email)
			infof("sign in at %s/login-admin", cfg.FrontendURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}
