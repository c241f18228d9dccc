// Package dbtest opens migrated throwaway databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalkeep/internal/db"
)

// Open returns a SQLite database in t.TempDir() with every migration applied.
// The database is closed when the test ends.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "goalkeep.db")
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	conn, err := db.Init("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })

	err = db.RunMigrations(conn.DB, "sqlite")
	require.NoError(t, err)

	return conn
}
