package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/migrate"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "migrate <up|down|status|version|redo|reset>",
		Short:       "Manage the local state schema",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"standalone": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logg := logger.New(logger.Options{
				ServiceName: "migrate",
				Level:       logger.ParseLevel(cfg.App.LogLevel),
				WarnStack:   cfg.App.LogWarnStack,
			})
			ctx := logg.WithFields(cmd.Context(), map[string]any{
				"env":    cfg.App.Env,
				"cmd":    args[0],
				"driver": cfg.Store.Driver,
			})
			client, err := db.New(ctx, cfg.Store, logg)
			if err != nil {
				return fmt.Errorf("open state database: %w", err)
			}
			defer client.Close()

			logg.Info(ctx, "migrate ready")
			return migrate.Run(ctx, client, args[0], args[1:]...)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "validate",
		Short:       "Check the embedded migrations",
		Annotations: map[string]string{"standalone": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := migrate.Validate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration validation passed")
			return nil
		},
	})
	return cmd
}
