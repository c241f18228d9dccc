package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const connectTimeout = 10 * time.Second

// Init opens the goal database for driver ("sqlite" or "pgx") and checks
// that it answers. For sqlite the directory of the database file is created.
func Init(driver, connection string) (*sqlx.DB, error) {
	if driver == "sqlite" {
		file, _, _ := strings.Cut(connection, "?")
		err := os.MkdirAll(filepath.Dir(file), 0755)
		if err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	conn, err := sqlx.Open(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	err = conn.PingContext(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", driver, err)
	}

	slog.Info("database connected", "driver", driver)
	return conn, nil
}

func Close(conn *sqlx.DB) error {
	if conn == nil {
		return nil
	}
	return conn.Close()
}
