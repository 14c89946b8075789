package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cillers/ledgerd/internal/refine"
)

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Copy qualifying cost records into the transaction collection",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		summary, err := refine.Promote(ctx, st)
		if err != nil {
			return err
		}

		zap.L().Info("promote complete",
			zap.Int("processed", summary.Processed),
			zap.Int("skipped", summary.Skipped),
			zap.Int("created", summary.Created),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promoteCmd)
}
