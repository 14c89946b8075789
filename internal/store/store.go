// Package store persists cost and transaction records behind a single
// interface with SQLite and Postgres implementations.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/cillers/ledgerd/internal/model"
)

// ListOptions controls pagination and ordering for list operations.
// OrderBy is checked against the table's column set; unknown columns
// fall back to posting_date.
type ListOptions struct {
	Limit   int
	Offset  int
	OrderBy string
	Order   string // "asc" or "desc"
}

// Store is the persistence interface for the ledger service. All
// operations take a context and fail with a wrapped error on transport
// or constraint problems.
type Store interface {
	// Costs
	UpsertCost(ctx context.Context, c model.CostRecord) error
	ListCosts(ctx context.Context, opts ListOptions) ([]model.CostRecord, error)
	CountCosts(ctx context.Context) (int, error)
	// PromotableCosts returns cost records whose account number has a
	// leading digit of 4-9.
	PromotableCosts(ctx context.Context) ([]model.CostRecord, error)

	// Transactions
	UpsertTransaction(ctx context.Context, t model.TransactionRecord) error
	ListTransactions(ctx context.Context, opts ListOptions) ([]model.TransactionRecord, error)
	CountTransactions(ctx context.Context) (int, error)
	TransactionVernrs(ctx context.Context) ([]string, error)
	DistinctVerificationTexts(ctx context.Context) ([]string, error)
	// SetSupplierName writes supplier onto every transaction whose
	// verification_text equals text, returning the number of rows updated.
	SetSupplierName(ctx context.Context, text, supplier string) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// transactionColumns is the orderable column set for the transaction
// collection; costColumns the same for costs.
var (
	costColumns = map[string]bool{
		"vernr": true, "account_number": true, "posting_date": true,
		"registration_date": true, "account_name": true,
		"verification_text": true, "debit": true, "credit": true,
	}
	transactionColumns = map[string]bool{
		"vernr": true, "account_number": true, "posting_date": true,
		"registration_date": true, "account_name": true,
		"verification_text": true, "debit": true, "credit": true,
		"supplier_name": true,
	}
)

// orderClause renders a validated ORDER BY clause. Unknown columns fall
// back to posting_date, unknown directions to DESC, so caller input can
// never reach the SQL text unchecked.
func orderClause(opts ListOptions, allowed map[string]bool) string {
	col := strings.ToLower(opts.OrderBy)
	if !allowed[col] {
		col = "posting_date"
	}
	dir := "DESC"
	if strings.EqualFold(opts.Order, "asc") {
		dir = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s", col, dir)
}

// limitClause renders LIMIT/OFFSET; a non-positive limit means no cap.
func limitClause(opts ListOptions) string {
	if opts.Limit <= 0 {
		return ""
	}
	if opts.Offset > 0 {
		return fmt.Sprintf(" LIMIT %d OFFSET %d", opts.Limit, opts.Offset)
	}
	return fmt.Sprintf(" LIMIT %d", opts.Limit)
}
