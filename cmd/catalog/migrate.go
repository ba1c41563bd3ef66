package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/homelab/catalog/internal/migrations"
)

func newMigrateCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ds, err := cfg.InitializeDatabase(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer ds.Close()

			version, err := migrations.NewMigrator(ds).GetCurrentVersion(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("Migrations applied", "version", version)
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert the most recently applied migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ds, err := cfg.OpenDatabase(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer ds.Close()

			migrator := migrations.NewMigrator(ds)
			for _, migration := range migrations.All() {
				migrator.AddMigration(migration)
			}
			if err := migrator.Rollback(cmd.Context()); err != nil {
				return fmt.Errorf("failed to roll back: %w", err)
			}

			version, err := migrator.GetCurrentVersion(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("Migration reverted", "version", version)
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	})
	return cmd
}
