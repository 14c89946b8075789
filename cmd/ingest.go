package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cillers/ledgerd/internal/ingest"
	"github.com/cillers/ledgerd/internal/model"
)

var (
	ingestCSVPath  string
	ingestStrategy string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Import a ledger CSV export into the cost collection",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		strategy, err := model.ParseDuplicateStrategy(ingestStrategy)
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(ingestCSVPath)
		if err != nil {
			return eris.Wrapf(err, "read %s", ingestCSVPath)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		summary, err := ingest.New(st, cfg.Ingest.IndexLimit).Run(ctx, raw, strategy)
		if err != nil {
			return err
		}

		zap.L().Info("ingest complete",
			zap.String("csv", ingestCSVPath),
			zap.Int("imported", summary.Imported),
			zap.Int("skipped", summary.Skipped),
			zap.Int("replaced", summary.Replaced),
		)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCSVPath, "csv", "", "path to CSV file (required)")
	ingestCmd.Flags().StringVar(&ingestStrategy, "strategy", "keep", "duplicate strategy: keep, skip, or replace")
	_ = ingestCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(ingestCmd)
}
