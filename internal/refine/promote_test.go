package refine

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cillers/ledgerd/internal/model"
	"github.com/cillers/ledgerd/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedCost(t *testing.T, st store.Store, vernr string, account int, verificationText string) {
	t.Helper()
	err := st.UpsertCost(context.Background(), model.CostRecord{
		ID:               model.NewID(),
		Vernr:            vernr,
		AccountNumber:    account,
		PostingDate:      model.NewDate(2024, 3, 15),
		RegistrationDate: model.NewDate(2024, 3, 15),
		AccountName:      "Material",
		VerificationText: verificationText,
		Debit:            100,
	})
	require.NoError(t, err)
}

func TestPromotePredicateAndIdempotence(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedCost(t, st, "A1", 399, "")
	seedCost(t, st, "A2", 400, "")
	seedCost(t, st, "A3", 599, "")

	summary, err := Promote(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 0, summary.Skipped)

	txs, err := st.ListTransactions(ctx, store.ListOptions{})
	require.NoError(t, err)
	var vernrs []string
	for _, tx := range txs {
		vernrs = append(vernrs, tx.Vernr)
	}
	assert.ElementsMatch(t, []string{"A2", "A3"}, vernrs)

	// A second run with unchanged costs performs zero writes.
	summary, err = Promote(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 2, summary.Skipped)

	n, err := st.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPromoteCopiesFieldsWithFreshIdentity(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedCost(t, st, "A2", 4010, "ACME AB Faktura")
	costs, err := st.ListCosts(ctx, store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, costs, 1)

	_, err = Promote(ctx, st)
	require.NoError(t, err)

	txs, err := st.ListTransactions(ctx, store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.NotEqual(t, costs[0].ID, tx.ID)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, costs[0].Vernr, tx.Vernr)
	assert.Equal(t, costs[0].AccountNumber, tx.AccountNumber)
	assert.Equal(t, costs[0].VerificationText, tx.VerificationText)
	assert.InDelta(t, costs[0].Debit, tx.Debit, 0.0001)
	assert.Empty(t, tx.SupplierName)
}

func TestPromoteEmptyStore(t *testing.T) {
	st := newTestStore(t)

	summary, err := Promote(context.Background(), st)
	require.NoError(t, err)
	assert.Zero(t, summary.Processed)
	assert.Zero(t, summary.Created)
	assert.Zero(t, summary.Skipped)
}

func TestPromoteManyAccounts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	accounts := []int{100, 3999, 4000, 5010, 7800, 9999}
	for i, a := range accounts {
		seedCost(t, st, fmt.Sprintf("V%d", i), a, "")
	}

	summary, err := Promote(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Created)
}
