// Package cmd wires the cobra command tree for the migration service.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shopmigrate/internal/config"
	"shopmigrate/internal/logging"
	"shopmigrate/internal/metrics"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopmigrate",
		Short: "Storefront migration crawler and redirect generator.",
		Long: `shopmigrate crawls an e-commerce storefront, extracts its products,
matches them against the destination platform's export by SKU and barcode,
and produces an importable redirect map plus a human-review report.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// loadEnvironment builds the config and logger shared by all commands.
func loadEnvironment() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	metrics.Init()
	return cfg, logger, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
