package main

import (
	"fmt"
	"os"

	"github.com/lochan861/mt/internal/config"
	"github.com/lochan861/mt/internal/database"
	"github.com/lochan861/mt/internal/logger"
	"github.com/lochan861/mt/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "taskrunner",
	Short:         "Run scheduled uptime-check tasks for registered users",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, createUserCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap loads config and the logger shared by every subcommand
func bootstrap() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// openStore returns the configured backend. db is nil for the memory store.
func openStore(cfg *config.Config) (store.Store, *gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.StoreBackend {
	case config.StoreMemory:
		logger.Log.Warn("Using in-memory store; tasks and users are lost on exit")
		return store.NewMemoryStore(), nil, nil
	case config.StorePostgres:
		db, err = database.Open("postgres", cfg.DatabaseURL)
	default:
		db, err = database.Open("sqlite", cfg.SQLitePath)
	}
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, nil, err
	}
	logger.Log.Info("Store ready", zap.String("backend", cfg.StoreBackend))
	return store.NewGormStore(db), db, nil
}
