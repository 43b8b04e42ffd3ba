// store/migrate.go
package store

import (
	"database/sql"
	"embed"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationTable = "schema_migrations"

func migrationSource() *migrate.EmbedFileSystemMigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
}

// Migrate applies (up) or rolls back (down) schema migrations and returns how many ran.
// A zero max runs every pending migration.
func Migrate(db *sql.DB, direction migrate.MigrationDirection, max int) (int, error) {
	migrate.SetTable(migrationTable)

	n, err := migrate.ExecMax(db, "postgres", migrationSource(), direction, max)
	if err != nil {
		return n, fmt.Errorf("failed to run migrations: %w", err)
	}
	return n, nil
}

// MigrationState describes one known migration.
type MigrationState struct {
	ID      string
	Applied bool
}

// MigrationStatus lists every embedded migration and whether it has been applied.
func MigrationStatus(db *sql.DB) ([]MigrationState, error) {
	migrate.SetTable(migrationTable)

	known, err := migrationSource().FindMigrations()
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	records, err := migrate.GetMigrationRecords(db, "postgres")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration records: %w", err)
	}
	applied := make(map[string]bool, len(records))
	for _, r := range records {
		applied[r.Id] = true
	}

	states := make([]MigrationState, 0, len(known))
	for _, m := range known {
		states = append(states, MigrationState{ID: m.Id, Applied: applied[m.Id]})
	}
	return states, nil
}
