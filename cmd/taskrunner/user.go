package main

import (
	"fmt"

	"github.com/lochan861/mt/internal/auth"
	"github.com/lochan861/mt/internal/config"
	"github.com/lochan861/mt/internal/database"
	"github.com/lochan861/mt/internal/logger"
	"github.com/spf13/cobra"
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an account from the command line",
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		cfg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Close()

		if cfg.StoreBackend == config.StoreMemory {
			return fmt.Errorf("create-user needs a persistent STORE_BACKEND")
		}
		st, db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close(db)

		resp, err := auth.NewService(cfg.JWTSecret, st).Register(cmd.Context(), auth.RegisterRequest{
			Email:    email,
			Password: password,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", resp.User.Email, resp.User.ID)
		return nil
	},
}

func init() {
	createUserCmd.Flags().String("email", "", "account email")
	createUserCmd.Flags().String("password", "", "account password (min 8 characters)")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")
}
