// Package testutil holds helpers shared by package tests: a migrated SQLite
// database per test and user seeding.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/isdelr/punchy-be/internal/database"
	"github.com/stretchr/testify/require"
)

// NewDB opens a migrated SQLite database in the test's temp dir. It is closed
// when the test ends.
func NewDB(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.New(database.DriverSQLite, filepath.Join(t.TempDir(), "punchy_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// SeedUser inserts a user row directly, the way the identity system would.
func SeedUser(t testing.TB, db *database.DB, username, email, lang, token string) {
	t.Helper()

	_, err := db.Exec(`INSERT INTO users (username, email, display_lang, auth_token) VALUES (?, ?, ?, ?)`, username, email, lang, token)
	require.NoError(t, err)
}

// CountOpen returns how many open punch records username has.
func CountOpen(t testing.TB, db *database.DB, username string) int {
	t.Helper()

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM punch_records WHERE username = ? AND clock_out IS NULL`, username))
	return n
}
