package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dtroode/eventhub-server/database"
	"github.com/dtroode/eventhub-server/internal/config"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version]",
		Short:     "Manage the database schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			cfg, err := config.NewConfig()
			if err != nil {
				return fmt.Errorf("failed to parse config: %w", err)
			}

			return database.Run(cmd.Context(), cfg.Database.DSN, command)
		},
	}
}
