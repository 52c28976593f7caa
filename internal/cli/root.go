package cli

import (
	"context"
	"fmt"

	"github.com/isdelr/punchy-be/internal/config"
	"github.com/isdelr/punchy-be/internal/database"
	"github.com/isdelr/punchy-be/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "punchy",
	Short: "Punchy - time punch tracker backend",
	Long: `Punchy tracks work sessions for users authenticated by an opaque token.

It provides:
- Punch in / punch out with at most one open session per user
- Per-user session history and a public visit listing
- Display language preferences
- A live websocket feed of punch events`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return logger.Init(cfg.LogLevel, cfg.LogFormat)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
}

// openDatabase connects to the configured database and applies migrations.
func openDatabase(ctx context.Context) (*database.DB, error) {
	db, err := database.New(cfg.DatabaseDriver, cfg.DatabaseSource())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}
