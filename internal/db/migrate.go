package db

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// dialect maps a database/sql driver name to its goose dialect.
func dialect(driver string) string {
	switch driver {
	case "sqlite":
		return "sqlite3"
	case "pgx":
		return "postgres"
	default:
		return driver
	}
}

// useMigrations points goose at the embedded goal schema for driver.
func useMigrations(driver string) error {
	err := goose.SetDialect(dialect(driver))
	if err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	schema, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	goose.SetBaseFS(schema)
	goose.SetLogger(goose.NopLogger())
	return nil
}

// RunMigrations brings the schema up to the newest embedded version.
func RunMigrations(db *sql.DB, driver string) error {
	err := useMigrations(driver)
	if err != nil {
		return err
	}

	err = goose.Up(db, ".")
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	slog.Info("schema up to date", "driver", driver, "version", version)
	return nil
}

// MigrateDown rolls back the most recently applied migration.
func MigrateDown(db *sql.DB, driver string) error {
	err := useMigrations(driver)
	if err != nil {
		return err
	}

	err = goose.Down(db, ".")
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	slog.Info("rolled back one migration", "driver", driver, "version", version)
	return nil
}

// Version returns the schema version currently applied to db.
func Version(db *sql.DB, driver string) (int64, error) {
	err := useMigrations(driver)
	if err != nil {
		return 0, err
	}

	return goose.GetDBVersion(db)
}
