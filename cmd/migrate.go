package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shopmigrate/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	var (
		startURL        string
		destinationBase string
		exportPath      string
		maxPages        int
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run one migration to completion and print the artifact URIs.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort flush

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, err := buildServices(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			run, err := svc.runner.Submit(ctx, migrate.RunParameters{
				StartURL:        startURL,
				DestinationBase: destinationBase,
				ExportPath:      exportPath,
				MaxPages:        maxPages,
			})
			if err != nil {
				return err
			}
			logger.Info("run submitted", zap.String("run_id", run.ID))

			if err := svc.runner.Execute(ctx, run); err != nil {
				return fmt.Errorf("run %s failed: %w", run.ID, err)
			}

			final, err := svc.runStore.GetRun(ctx, run.ID)
			if err != nil {
				return fmt.Errorf("load run result: %w", err)
			}
			cmd.Printf("run %s: %s\n", final.ID, final.Status)
			cmd.Printf("  pages crawled: %d\n", final.Counters.PagesCrawled)
			cmd.Printf("  products:      %d\n", final.Counters.Products)
			cmd.Printf("  matched:       %d\n", final.Counters.Matched)
			cmd.Printf("  unmatched:     %d\n", final.Counters.Unmatched)
			cmd.Printf("  redirects:     %s\n", final.Artifacts.RedirectsURI)
			cmd.Printf("  diagnostics:   %s\n", final.Artifacts.DiagnosticsURI)
			cmd.Printf("  products file: %s\n", final.Artifacts.ProductsURI)
			return nil
		},
	}

	cmd.Flags().StringVar(&startURL, "start-url", "", "source storefront root URL (required)")
	cmd.Flags().StringVar(&destinationBase, "destination-base", "", "destination site root for existence checks")
	cmd.Flags().StringVar(&exportPath, "export", "", "destination product export CSV path")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "page budget for this run (0 uses the configured default)")
	_ = cmd.MarkFlagRequired("start-url")

	return cmd
}
