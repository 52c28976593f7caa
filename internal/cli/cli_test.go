package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/isdelr/punchy-be/internal/database"
	"github.com/isdelr/punchy-be/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestUsersAndVisitsCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("PUNCHY_DATABASE_PATH", dbPath)
	t.Setenv("PUNCHY_LOG_LEVEL", "error")

	_, err := runCLI(t, "migrate")
	require.NoError(t, err)

	out, err := runCLI(t, "users", "add", "alice", "--token", "tok-alice", "--email", "alice@example.com", "--lang", "pt")
	require.NoError(t, err)
	assert.Contains(t, out, "User 'alice' created with language PT")

	_, err = runCLI(t, "users", "add", "alice", "--token", "tok-other", "--email", "", "--lang", "EN")
	assert.ErrorIs(t, err, services.ErrUserExists)

	out, err = runCLI(t, "users", "lang", "alice", " fr ")
	require.NoError(t, err)
	assert.Contains(t, out, "display language set to FR")

	_, err = runCLI(t, "users", "lang", "alice", "de")
	assert.ErrorIs(t, err, services.ErrInvalidLang)

	out, err = runCLI(t, "visits", "add", "alice", "learni", "--at", "2024-01-01T09:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-01T09:00:00Z")

	out, err = runCLI(t, "events")
	require.NoError(t, err)
	assert.Contains(t, out, "TIME")

	db, err := database.New(database.DriverSQLite, dbPath)
	require.NoError(t, err)
	defer db.Close()

	user, err := services.NewUserService(db).Resolve(context.Background(), "tok-alice")
	require.NoError(t, err)
	assert.Equal(t, "FR", user.DisplayLang)

	listing, err := services.NewVisitService(db).ListAll(context.Background(), "alice", 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, listing.Count)
	assert.Equal(t, "learni", listing.Items[0].Records[0].Site)
}

func TestRoot_InvalidConfig(t *testing.T) {
	t.Setenv("PUNCHY_DATABASE_DRIVER", "mysql")

	_, err := runCLI(t, "migrate")
	assert.Error(t, err)
}
