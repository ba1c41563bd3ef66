package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jbweber/homelab/catalog/internal/config"
	"github.com/jbweber/homelab/catalog/internal/logging"
)

// newRootCmd builds the catalog command tree. Running it without a
// subcommand serves HTTP.
func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Product catalog web service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configFile)
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigFile, "path to the YAML config file")

	root.AddCommand(newServeCmd(&configFile), newMigrateCmd(&configFile))
	return root
}

// loadConfig loads configuration and builds the process logger from it
func loadConfig(configFile string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)
	logger.Debug("Configuration loaded", "config", cfg.String())
	return cfg, logger, nil
}
