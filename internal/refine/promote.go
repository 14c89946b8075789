// Package refine implements the batch refinement passes over stored
// records: promotion of qualifying costs into the transaction
// collection, and supplier-name enrichment of transactions.
package refine

import (
	"context"

	"go.uber.org/zap"

	"github.com/cillers/ledgerd/internal/model"
	"github.com/cillers/ledgerd/internal/store"
)

// Promote copies every cost record whose account number has a leading
// digit of 4-9 into the transaction collection, unless a transaction
// with the same vernr already exists. Rerunning with unchanged costs
// performs zero writes.
func Promote(ctx context.Context, st store.Store) (*model.PromoteSummary, error) {
	candidates, err := st.PromotableCosts(ctx)
	if err != nil {
		return nil, err
	}

	vernrs, err := st.TransactionVernrs(ctx)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(vernrs))
	for _, v := range vernrs {
		existing[v] = true
	}

	summary := &model.PromoteSummary{}
	for _, c := range candidates {
		summary.Processed++
		if existing[c.Vernr] {
			summary.Skipped++
			continue
		}
		if err := st.UpsertTransaction(ctx, model.PromoteCost(c)); err != nil {
			return nil, err
		}
		// A candidate batch can repeat a vernr; only the first is promoted.
		existing[c.Vernr] = true
		summary.Created++
	}

	zap.L().Info("promotion complete",
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("created", summary.Created),
	)
	return summary, nil
}
