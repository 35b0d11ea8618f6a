package commands

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/travel-booking-api/internal/config"
	"github.com/iliyamo/travel-booking-api/internal/database"
	"github.com/iliyamo/travel-booking-api/internal/logger"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "tourctl",
	Short: "Operate the travel booking API database",
	Long: `tourctl manages the travel booking API's store using the same
environment (.env, DB_*, JWT_SECRET, BCRYPT_COST) as the server.

Commands:
  migrate       - create or update the schema
  seed          - fill the store with fake demo data
  create-admin  - add an administrator account`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.AddCommand(migrateCmd, seedCmd, createAdminCmd)
}

func cliLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return logger.New(logger.Config{Writer: os.Stderr, Level: level})
}

// connect loads the configuration and opens the store with the schema in
// place.
func connect(ctx context.Context) (config.Config, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return cfg, nil, fmt.Errorf("open %s: %w", cfg.DB.Driver, err)
	}
	if err := database.Migrate(ctx, db, cfg.DB.Driver); err != nil {
		_ = db.Close()
		return cfg, nil, err
	}
	return cfg, db, nil
}
