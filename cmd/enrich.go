package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cillers/ledgerd/internal/refine"
	"github.com/cillers/ledgerd/pkg/anthropic"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Derive supplier names for transactions via the completion API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic API key is required (LEDGER_ANTHROPIC_KEY)")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		enricher := &refine.Enricher{
			Client:    anthropic.NewRateLimited(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.RateLimit),
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
		}

		summary, err := enricher.Run(ctx, st)
		if err != nil {
			return err
		}

		zap.L().Info("enrich complete",
			zap.Int("unique_texts", summary.UniqueTexts),
			zap.Int("updated", summary.Updated),
			zap.Int("mappings", len(summary.Mappings)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}
