package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/cillers/ledgerd/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	debit             REAL NOT NULL DEFAULT 0,
	credit            REAL NOT NULL DEFAULT 0
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
	debit             REAL NOT NULL DEFAULT 0,
	credit            REAL NOT NULL DEFAULT 0,
	supplier_name     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_costs_vernr ON costs(vernr);
CREATE INDEX IF NOT EXISTS idx_costs_account_number ON costs(account_number);
CREATE INDEX IF NOT EXISTS idx_transactions_vernr ON transactions(vernr);
CREATE INDEX IF NOT EXISTS idx_transactions_verification_text ON transactions(verification_text);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const costColumnList = `id, vernr, account_number, posting_date, registration_date,
	account_name, ks, project_number, verification_text, transaction_info, debit, credit`

const transactionColumnList = costColumnList + `, supplier_name`

func (s *SQLiteStore) UpsertCost(ctx context.Context, c model.CostRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO costs (`+costColumnList+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			vernr = excluded.vernr,
			account_number = excluded.account_number,
			posting_date = excluded.posting_date,
			registration_date = excluded.registration_date,
			account_name = excluded.account_name,
			ks = excluded.ks,
			project_number = excluded.project_number,
			verification_text = excluded.verification_text,
			transaction_info = excluded.transaction_info,
			debit = excluded.debit,
			credit = excluded.credit`,
		c.ID, c.Vernr, c.AccountNumber, c.PostingDate.String(), c.RegistrationDate.String(),
		c.AccountName, c.Ks, c.ProjectNumber, c.VerificationText, c.TransactionInfo,
		c.Debit, c.Credit,
	)
	return eris.Wrapf(err, "sqlite: upsert cost %s", c.Vernr)
}

func (s *SQLiteStore) ListCosts(ctx context.Context, opts ListOptions) ([]model.CostRecord, error) {
	query := `SELECT ` + costColumnList + ` FROM costs ` +
		orderClause(opts, costColumns) + limitClause(opts)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list costs")
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
	return out, eris.Wrap(rows.Err(), "sqlite: list costs")
}

func (s *SQLiteStore) CountCosts(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM costs`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count costs")
}

func (s *SQLiteStore) PromotableCosts(ctx context.Context) ([]model.CostRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+costColumnList+` FROM costs
		WHERE substr(CAST(account_number AS TEXT), 1, 1) BETWEEN '4' AND '9'
		ORDER BY posting_date`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: promotable costs")
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
	return out, eris.Wrap(rows.Err(), "sqlite: promotable costs")
}

func (s *SQLiteStore) UpsertTransaction(ctx context.Context, t model.TransactionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumnList+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			vernr = excluded.vernr,
			account_number = excluded.account_number,
			posting_date = excluded.posting_date,
			registration_date = excluded.registration_date,
			account_name = excluded.account_name,
			ks = excluded.ks,
			project_number = excluded.project_number,
			verification_text = excluded.verification_text,
			transaction_info = excluded.transaction_info,
			debit = excluded.debit,
			credit = excluded.credit,
			supplier_name = excluded.supplier_name`,
		t.ID, t.Vernr, t.AccountNumber, t.PostingDate.String(), t.RegistrationDate.String(),
		t.AccountName, t.Ks, t.ProjectNumber, t.VerificationText, t.TransactionInfo,
		t.Debit, t.Credit, t.SupplierName,
	)
	return eris.Wrapf(err, "sqlite: upsert transaction %s", t.Vernr)
}

func (s *SQLiteStore) ListTransactions(ctx context.Context, opts ListOptions) ([]model.TransactionRecord, error) {
	query := `SELECT ` + transactionColumnList + ` FROM transactions ` +
		orderClause(opts, transactionColumns) + limitClause(opts)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list transactions")
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
	return out, eris.Wrap(rows.Err(), "sqlite: list transactions")
}

func (s *SQLiteStore) CountTransactions(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count transactions")
}

func (s *SQLiteStore) TransactionVernrs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT vernr FROM transactions`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: transaction vernrs")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan vernr")
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: transaction vernrs")
}

func (s *SQLiteStore) DistinctVerificationTexts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT verification_text FROM transactions WHERE verification_text <> ''`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: distinct verification texts")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan verification text")
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: distinct verification texts")
}

func (s *SQLiteStore) SetSupplierName(ctx context.Context, text, supplier string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET supplier_name = ? WHERE verification_text = ?`,
		supplier, text,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: set supplier for %q", text)
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCost(row scanner) (model.CostRecord, error) {
	var c model.CostRecord
	var posting, registration string
	err := row.Scan(&c.ID, &c.Vernr, &c.AccountNumber, &posting, &registration,
		&c.AccountName, &c.Ks, &c.ProjectNumber, &c.VerificationText, &c.TransactionInfo,
		&c.Debit, &c.Credit)
	if err != nil {
		return model.CostRecord{}, eris.Wrap(err, "sqlite: scan cost")
	}
	if c.PostingDate, err = model.ParseDate(posting); err != nil {
		return model.CostRecord{}, eris.Wrapf(err, "sqlite: cost %s posting_date", c.Vernr)
	}
	if c.RegistrationDate, err = model.ParseDate(registration); err != nil {
		return model.CostRecord{}, eris.Wrapf(err, "sqlite: cost %s registration_date", c.Vernr)
	}
	return c, nil
}

func scanTransaction(row scanner) (model.TransactionRecord, error) {
	var t model.TransactionRecord
	var posting, registration string
	err := row.Scan(&t.ID, &t.Vernr, &t.AccountNumber, &posting, &registration,
		&t.AccountName, &t.Ks, &t.ProjectNumber, &t.VerificationText, &t.TransactionInfo,
		&t.Debit, &t.Credit, &t.SupplierName)
	if err != nil {
		return model.TransactionRecord{}, eris.Wrap(err, "sqlite: scan transaction")
	}
	if t.PostingDate, err = model.ParseDate(posting); err != nil {
		return model.TransactionRecord{}, eris.Wrapf(err, "sqlite: transaction %s posting_date", t.Vernr)
	}
	if t.RegistrationDate, err = model.ParseDate(registration); err != nil {
		return model.TransactionRecord{}, eris.Wrapf(err, "sqlite: transaction %s registration_date", t.Vernr)
	}
	return t, nil
}
