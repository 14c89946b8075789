package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/cillers/ledgerd/internal/model"
)

// Pool abstracts the subset of pgxpool.Pool the store uses, so tests
// can substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS costs (
	id                TEXT PRIMARY KEY,
	vernr             TEXT NOT NULL,
	account_number    INTEGER NOT NULL DEFAULT 0,
	posting_date      TEXT NOT NULL,
	registration_date TEXT NOT NULL,
	account_name      TEXT NOT NULL DEFAULT '',
	ks                TEXT NOT NULL DEFAULT '',
	project_number    TEXT NOT NULL DEFAULT '',
	verification_text TEXT NOT NULL DEFAULT '',
	transaction_info  TEXT NOT NULL DEFAULT '',
	debit             DOUBLE PRECISION NOT NULL DEFAULT 0,
	credit            DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transactions (
	id                TEXT PRIMARY KEY,
	vernr             TEXT NOT NULL,
	account_number    INTEGER NOT NULL DEFAULT 0,
	posting_date      TEXT NOT NULL,
	registration_date TEXT NOT NULL,
	account_name      TEXT NOT NULL DEFAULT '',
	ks                TEXT NOT NULL DEFAULT '',
	project_number    TEXT NOT NULL DEFAULT '',
	verification_text TEXT NOT NULL DEFAULT '',
	transaction_info  TEXT NOT NULL DEFAULT '',
	debit             DOUBLE PRECISION NOT NULL DEFAULT 0,
	credit            DOUBLE PRECISION NOT NULL DEFAULT 0,
	supplier_name     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_costs_vernr ON costs(vernr);
CREATE INDEX IF NOT EXISTS idx_costs_account_number ON costs(account_number);
CREATE INDEX IF NOT EXISTS idx_transactions_vernr ON transactions(vernr);
CREATE INDEX IF NOT EXISTS idx_transactions_verification_text ON transactions(verification_text);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertCost(ctx context.Context, c model.CostRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO costs (`+costColumnList+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			vernr = EXCLUDED.vernr,
			account_number = EXCLUDED.account_number,
			posting_date = EXCLUDED.posting_date,
			registration_date = EXCLUDED.registration_date,
			account_name = EXCLUDED.account_name,
			ks = EXCLUDED.ks,
			project_number = EXCLUDED.project_number,
			verification_text = EXCLUDED.verification_text,
			transaction_info = EXCLUDED.transaction_info,
			debit = EXCLUDED.debit,
			credit = EXCLUDED.credit`,
		c.ID, c.Vernr, c.AccountNumber, c.PostingDate.String(), c.RegistrationDate.String(),
		c.AccountName, c.Ks, c.ProjectNumber, c.VerificationText, c.TransactionInfo,
		c.Debit, c.Credit,
	)
	return eris.Wrapf(err, "postgres: upsert cost %s", c.Vernr)
}

func (s *PostgresStore) ListCosts(ctx context.Context, opts ListOptions) ([]model.CostRecord, error) {
	query := `SELECT ` + costColumnList + ` FROM costs ` +
		orderClause(opts, costColumns) + limitClause(opts)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list costs")
	}
	defer rows.Close()

	var out []model.CostRecord
	for rows.Next() {
		c, err := scanCost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list costs")
}

func (s *PostgresStore) CountCosts(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM costs`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count costs")
}

func (s *PostgresStore) PromotableCosts(ctx context.Context) ([]model.CostRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+costColumnList+` FROM costs
		WHERE left(account_number::text, 1) BETWEEN '4' AND '9'
		ORDER BY posting_date`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: promotable costs")
	}
	defer rows.Close()

	var out []model.CostRecord
	for rows.Next() {
		c, err := scanCost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: promotable costs")
}

func (s *PostgresStore) UpsertTransaction(ctx context.Context, t model.TransactionRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transactions (`+transactionColumnList+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			vernr = EXCLUDED.vernr,
			account_number = EXCLUDED.account_number,
			posting_date = EXCLUDED.posting_date,
			registration_date = EXCLUDED.registration_date,
			account_name = EXCLUDED.account_name,
			ks = EXCLUDED.ks,
			project_number = EXCLUDED.project_number,
			verification_text = EXCLUDED.verification_text,
			transaction_info = EXCLUDED.transaction_info,
			debit = EXCLUDED.debit,
			credit = EXCLUDED.credit,
			supplier_name = EXCLUDED.supplier_name`,
		t.ID, t.Vernr, t.AccountNumber, t.PostingDate.String(), t.RegistrationDate.String(),
		t.AccountName, t.Ks, t.ProjectNumber, t.VerificationText, t.TransactionInfo,
		t.Debit, t.Credit, t.SupplierName,
	)
	return eris.Wrapf(err, "postgres: upsert transaction %s", t.Vernr)
}

func (s *PostgresStore) ListTransactions(ctx context.Context, opts ListOptions) ([]model.TransactionRecord, error) {
	query := `SELECT ` + transactionColumnList + ` FROM transactions ` +
		orderClause(opts, transactionColumns) + limitClause(opts)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list transactions")
	}
	defer rows.Close()

	var out []model.TransactionRecord
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list transactions")
}

func (s *PostgresStore) CountTransactions(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count transactions")
}

func (s *PostgresStore) TransactionVernrs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT vernr FROM transactions`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: transaction vernrs")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "postgres: scan vernr")
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), "postgres: transaction vernrs")
}

func (s *PostgresStore) DistinctVerificationTexts(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT verification_text FROM transactions WHERE verification_text <> ''`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: distinct verification texts")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "postgres: scan verification text")
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), "postgres: distinct verification texts")
}

func (s *PostgresStore) SetSupplierName(ctx context.Context, text, supplier string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE transactions SET supplier_name = $1 WHERE verification_text = $2`,
		supplier, text,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: set supplier for %q", text)
	}
	return tag.RowsAffected(), nil
}
