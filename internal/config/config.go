package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     int           `mapstructure:"port"`
	DatabaseDriver string        `mapstructure:"database_driver"` // "sqlite" or "postgres"
	DatabasePath   string        `mapstructure:"database_path"`
	DatabaseDSN    string        `mapstructure:"database_dsn"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	StaleCheckCron string        `mapstructure:"stale_check_cron"`
	StaleAfter     time.Duration `mapstructure:"stale_after"`
}

const (
	DefaultPort           = 8080
	DefaultDatabaseDriver = "sqlite"
	DefaultDatabasePath   = "./punchy.db"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
	DefaultStaleCheckCron = "@hourly"
	DefaultStaleAfter     = 16 * time.Hour
	EnvPrefix             = "PUNCHY"
)

// DefaultCORSOrigins are the browser front ends allowed to call the API.
var DefaultCORSOrigins = []string{
	"http://localhost:5173",
	"https://learni.liap.ca",
	"https://mooai.liap.ca",
	"https://liap.ca",
	"https://www.liap.ca",
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing priority. Every key can be set as PUNCHY_<KEY>;
// PORT and DATABASE_PATH are also honoured unprefixed.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("port", DefaultPort)
	v.SetDefault("database_driver", DefaultDatabaseDriver)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("cors_origins", DefaultCORSOrigins)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("stale_check_cron", DefaultStaleCheckCron)
	v.SetDefault("stale_after", DefaultStaleAfter)

	// Allow environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("port", EnvPrefix+"_PORT", "PORT"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("database_path", EnvPrefix+"_DATABASE_PATH", "DATABASE_PATH"); err != nil {
		return nil, err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitOrigins(cfg.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.ServerPort)
	}

	switch c.DatabaseDriver {
	case "sqlite":
		if c.DatabasePath == "" {
			return fmt.Errorf("database_path is required for the sqlite driver")
		}
	case "postgres":
		if c.DatabaseDSN == "" {
			return fmt.Errorf("database_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database_driver must be 'sqlite' or 'postgres'")
	}

	if c.StaleCheckCron != "" {
		if _, err := cron.ParseStandard(c.StaleCheckCron); err != nil {
			return fmt.Errorf("invalid stale_check_cron %q: %w", c.StaleCheckCron, err)
		}
	}
	if c.StaleAfter <= 0 {
		return fmt.Errorf("stale_after must be positive")
	}
	return nil
}

// DatabaseSource returns the connection source for the configured driver.
func (c *Config) DatabaseSource() string {
	if c.DatabaseDriver == "postgres" {
		return c.DatabaseDSN
	}
	return c.DatabasePath
}

// splitOrigins accepts both a YAML list and a comma separated env value.
func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, origin := range strings.Split(item, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				out = append(out, origin)
			}
		}
	}
	return out
}
