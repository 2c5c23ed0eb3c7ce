package main

import (
	"fmt"

	"github.com/lochan861/mt/internal/config"
	"github.com/lochan861/mt/internal/database"
	"github.com/lochan861/mt/internal/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Close()

		if cfg.StoreBackend == config.StoreMemory {
			return fmt.Errorf("nothing to migrate for STORE_BACKEND=memory")
		}
		// openStore migrates as part of opening
		_, db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close(db)

		fmt.Fprintln(cmd.OutOrStdout(), "migrations completed")
		return nil
	},
}
