package command

// root.go defines the root command of the bookstore admin tool and the
// database bootstrap shared by its subcommands.

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"bookstore/database"
	"bookstore/internal/config"
	"bookstore/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "bookstore-admin",
	Short: "bookstore-admin - maintenance tasks for the bookstore API",
	Long: `bookstore-admin runs maintenance tasks against the bookstore database:
- apply the schema
- grant or revoke staff rights

It reads the same environment (and .env file) as the API server.`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDB is replaced in tests.
var openDB = func() (*gorm.DB, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.OpenGorm(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return db, logger, nil
}
