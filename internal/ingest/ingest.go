package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cillers/ledgerd/internal/ledger"
	"github.com/cillers/ledgerd/internal/model"
	"github.com/cillers/ledgerd/internal/store"
)

// ErrNoRecords marks an ingestion whose input produced zero parseable
// records.
var ErrNoRecords = eris.New("ingest: no valid records found")

// maxErrorDiagnostics caps how many parse diagnostics are carried in
// the ErrNoRecords detail.
const maxErrorDiagnostics = 5

// Ingestor runs one CSV import batch against a store.
type Ingestor struct {
	store  store.Store
	parser *ledger.Parser
	// indexLimit caps the existing-record listing used to build the
	// duplicate index.
	indexLimit int
}

// New builds an Ingestor with the system-clock parser.
func New(st store.Store, indexLimit int) *Ingestor {
	return &Ingestor{store: st, parser: ledger.New(), indexLimit: indexLimit}
}

// Run decodes and parses raw CSV bytes, resolves duplicates per the
// strategy, and upserts each accepted record sequentially. It fails
// with ErrNoRecords when nothing parseable was found, and with a store
// error on the first failed write; writes already made are not rolled
// back.
func (in *Ingestor) Run(ctx context.Context, raw []byte, strategy model.DuplicateStrategy) (*model.ImportSummary, error) {
	content := ledger.Decode(raw)
	records, diags := in.parser.Parse(content)

	zap.L().Info("csv parsed",
		zap.Int("records", len(records)),
		zap.Int("diagnostics", len(diags)),
		zap.String("strategy", string(strategy)),
	)

	if len(records) == 0 {
		detail := diags
		if len(detail) > maxErrorDiagnostics {
			detail = detail[:maxErrorDiagnostics]
		}
		return nil, eris.Wrapf(ErrNoRecords, "details: %s", strings.Join(detail, "; "))
	}

	var idx Index
	if strategy == model.StrategySkip || strategy == model.StrategyReplace {
		var err error
		if idx, err = BuildIndex(ctx, in.store, in.indexLimit); err != nil {
			return nil, err
		}
	}

	summary := &model.ImportSummary{}
	for _, r := range records {
		switch dec, existingID := resolve(strategy, idx, r.Vernr); dec {
		case decideSkip:
			summary.Skipped++
			continue
		case decideReplace:
			r.ID = existingID
			if err := in.store.UpsertCost(ctx, r); err != nil {
				return nil, err
			}
			summary.Replaced++
		default:
			r.ID = model.NewID()
			if err := in.store.UpsertCost(ctx, r); err != nil {
				return nil, err
			}
			summary.Imported++
		}
		// A vernr repeated within one batch resolves against the rows
		// already written, not just the pre-batch collection.
		if idx != nil {
			idx[r.Vernr] = r.ID
		}
	}

	summary.Message = summaryMessage(strategy, summary)
	zap.L().Info("ingestion complete",
		zap.Int("imported", summary.Imported),
		zap.Int("skipped", summary.Skipped),
		zap.Int("replaced", summary.Replaced),
	)
	return summary, nil
}

// summaryMessage words the outcome per strategy, mirroring what the
// upload API reports to operators.
func summaryMessage(strategy model.DuplicateStrategy, s *model.ImportSummary) string {
	switch strategy {
	case model.StrategySkip:
		return fmt.Sprintf("imported %d records, skipped %d duplicates", s.Imported, s.Skipped)
	case model.StrategyReplace:
		return fmt.Sprintf("replaced %d records, %d processed in total", s.Replaced, s.Imported+s.Replaced)
	default:
		return fmt.Sprintf("imported %d records", s.Imported)
	}
}
