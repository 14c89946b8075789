// Package ingest drives CSV ingestion: decode, parse, duplicate
// resolution, and persistence of the accepted records.
package ingest

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/cillers/ledgerd/internal/model"
	"github.com/cillers/ledgerd/internal/store"
)

// Index maps an existing vernr to its storage identity. It is built
// once per import batch, before any row is processed.
type Index map[string]string

// BuildIndex lists existing cost records up to limit and indexes them
// by vernr. Collections larger than the limit are only partially
// covered; the cap is a documented scalability trade-off.
func BuildIndex(ctx context.Context, st store.Store, limit int) (Index, error) {
	costs, err := st.ListCosts(ctx, store.ListOptions{Limit: limit})
	if err != nil {
		return nil, eris.Wrap(err, "ingest: build duplicate index")
	}
	idx := make(Index, len(costs))
	for _, c := range costs {
		idx[c.Vernr] = c.ID
	}
	return idx, nil
}

// decision is the per-record outcome of duplicate resolution.
type decision int

const (
	decideInsert decision = iota
	decideSkip
	decideReplace
)

// resolve decides what to do with an incoming record under the given
// strategy. For replace it returns the existing identity to reuse.
func resolve(strategy model.DuplicateStrategy, idx Index, vernr string) (decision, string) {
	switch strategy {
	case model.StrategySkip:
		if _, ok := idx[vernr]; ok {
			return decideSkip, ""
		}
	case model.StrategyReplace:
		if id, ok := idx[vernr]; ok {
			return decideReplace, id
		}
	}
	return decideInsert, ""
}
