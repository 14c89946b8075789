package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cillers/ledgerd/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ledgerd",
	Short: "Ledger CSV ingestion and refinement service",
	Long:  "Ingests accounting ledger CSV exports, serves paginated read APIs, and runs promotion and supplier-enrichment passes over the stored records.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
