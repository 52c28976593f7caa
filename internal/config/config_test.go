package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, DefaultDatabasePath, cfg.DatabaseSource())
	assert.Equal(t, DefaultCORSOrigins, cfg.CORSOrigins)
	assert.Equal(t, "@hourly", cfg.StaleCheckCron)
	assert.Equal(t, 16*time.Hour, cfg.StaleAfter)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "punchy.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
database_driver: postgres
database_dsn: postgres://punchy@localhost/punchy
cors_origins:
  - https://example.com
log_level: debug
stale_after: 8h
`), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("PUNCHY_LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "postgres://punchy@localhost/punchy", cfg.DatabaseSource())
	assert.Equal(t, []string{"https://example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 8*time.Hour, cfg.StaleAfter)
}

func TestLoad_PrefixedEnv(t *testing.T) {
	t.Setenv("PUNCHY_PORT", "7000")
	t.Setenv("DATABASE_PATH", "/tmp/legacy.db")
	t.Setenv("PUNCHY_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.ServerPort)
	assert.Equal(t, "/tmp/legacy.db", cfg.DatabasePath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{ServerPort: 8080, DatabaseDriver: "sqlite", DatabasePath: "x.db", StaleCheckCron: "@hourly", StaleAfter: time.Hour}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "port zero", mutate: func(c *Config) { c.ServerPort = 0 }},
		{name: "port too large", mutate: func(c *Config) { c.ServerPort = 70000 }},
		{name: "unknown driver", mutate: func(c *Config) { c.DatabaseDriver = "mysql" }},
		{name: "sqlite without path", mutate: func(c *Config) { c.DatabasePath = "" }},
		{name: "postgres without dsn", mutate: func(c *Config) { c.DatabaseDriver = "postgres" }},
		{name: "bad cron", mutate: func(c *Config) { c.StaleCheckCron = "every tuesday" }},
		{name: "non positive stale_after", mutate: func(c *Config) { c.StaleAfter = 0 }},
	}

	base := valid()
	require.NoError(t, base.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
