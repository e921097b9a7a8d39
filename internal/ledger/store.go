// Package ledger persists the canonical transaction ledger and performs
// the idempotent reconciliation merge of parsed candidate batches.
package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"golang-ledger-ingestion-service/internal/models"
	"golang-ledger-ingestion-service/pkg/errors"
	"golang-ledger-ingestion-service/pkg/logger"
)

// Store is the sqlite-backed ledger. Use ":memory:" as the path for an
// in-memory database in tests.
type Store struct {
	db     *sqlx.DB
	logger logger.Logger
}

// schema is applied on open. The database is a single-owner local file
// with one schema version, so migration happens inline rather than through
// a migration tool.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	institution TEXT NOT NULL,
	amount_initial TEXT NOT NULL,
	date_start TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_id TEXT NOT NULL UNIQUE,
	transaction_id_raw TEXT NOT NULL,
	account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	amount TEXT NOT NULL,
	date TEXT NOT NULL,
	vendor_id TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account_date ON transactions(account_id, date);
CREATE INDEX IF NOT EXISTS idx_transactions_raw_id ON transactions(transaction_id_raw);

CREATE TABLE IF NOT EXISTS vendor_transaction_map (
	transaction_id_raw TEXT PRIMARY KEY,
	vendor_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS import_audits (
	id TEXT PRIMARY KEY,
	source_dir TEXT NOT NULL,
	accounts_created INTEGER NOT NULL,
	accounts_updated INTEGER NOT NULL,
	transactions_created INTEGER NOT NULL,
	transactions_updated INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chart_configs (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	date_from TEXT NOT NULL,
	date_to TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Open opens (and if needed creates) the ledger database at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, errors.StorageError(errors.CodeQueryFailed, "open database", err)
	}

	// sqlite allows a single writer, and a second pooled connection to a
	// ":memory:" path would see a different database entirely.
	db.SetMaxOpenConns(1)

	store := &Store{
		db:     db,
		logger: logger.GetGlobalLogger().WithComponent("ledger_store"),
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.StorageError(errors.CodeMigration, "apply schema", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// accountRow is the persisted shape of an account.
type accountRow struct {
	ID            int64  `db:"id"`
	AccountID     string `db:"account_id"`
	Name          string `db:"name"`
	Institution   string `db:"institution"`
	AmountInitial string `db:"amount_initial"`
	DateStart     string `db:"date_start"`
	CreatedAt     string `db:"created_at"`
	UpdatedAt     string `db:"updated_at"`
}

// transactionRow is the persisted shape of a ledger transaction. Amounts
// are stored as decimal strings with four fractional places; sqlite has no
// exact decimal type and binary floating point must never touch a value.
type transactionRow struct {
	ID               int64          `db:"id"`
	TransactionID    string         `db:"transaction_id"`
	TransactionIDRaw string         `db:"transaction_id_raw"`
	AccountID        int64          `db:"account_id"`
	Amount           string         `db:"amount"`
	Date             string         `db:"date"`
	VendorID         sql.NullString `db:"vendor_id"`
	CreatedAt        string         `db:"created_at"`
	UpdatedAt        string         `db:"updated_at"`
}

func (r *accountRow) toModel() (*models.Account, error) {
	amount, err := decimal.NewFromString(r.AmountInitial)
	if err != nil {
		return nil, errors.StorageError(errors.CodeQueryFailed, "decode account amount", err)
	}
	dateStart, err := models.ParseDate(r.DateStart)
	if err != nil {
		return nil, errors.StorageError(errors.CodeQueryFailed, "decode account date", err)
	}
	return &models.Account{
		AccountID:     r.AccountID,
		Name:          r.Name,
		Institution:   r.Institution,
		AmountInitial: amount,
		DateStart:     dateStart,
	}, nil
}

// storedAmount renders an amount at the ledger's canonical precision.
func storedAmount(d decimal.Decimal) string {
	return d.StringFixed(models.AmountPlaces)
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// UpsertAccounts creates or updates accounts keyed by their natural id,
// all within one transaction. Returns (created, updated).
func (s *Store) UpsertAccounts(ctx context.Context, accounts []*models.Account) (int, int, error) {
	if len(accounts) == 0 {
		return 0, 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, errors.StorageError(errors.CodeTxFailed, "begin account upsert", err)
	}
	defer tx.Rollback()

	created := 0
	updated := 0
	now := nowUTC()

	for _, account := range accounts {
		sb := sqlbuilder.SQLite.NewSelectBuilder()
		sb.Select("id")
		sb.From("accounts")
		sb.Where(sb.Equal("account_id", account.AccountID))
		query, args := sb.Build()

		var id int64
		err := tx.GetContext(ctx, &id, query, args...)
		switch {
		case err == sql.ErrNoRows:
			ib := sqlbuilder.SQLite.NewInsertBuilder()
			ib.InsertInto("accounts")
			ib.Cols("account_id", "name", "institution", "amount_initial", "date_start", "created_at", "updated_at")
			ib.Values(account.AccountID, account.Name, account.Institution,
				account.AmountInitial.String(), account.DateStart.Format(models.DateFormat), now, now)
			query, args := ib.Build()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return 0, 0, errors.StorageError(errors.CodeQueryFailed, "insert account", err)
			}
			created++
		case err != nil:
			return 0, 0, errors.StorageError(errors.CodeQueryFailed, "lookup account", err)
		default:
			ub := sqlbuilder.SQLite.NewUpdateBuilder()
			ub.Update("accounts")
			ub.Set(
				ub.Assign("name", account.Name),
				ub.Assign("institution", account.Institution),
				ub.Assign("amount_initial", account.AmountInitial.String()),
				ub.Assign("date_start", account.DateStart.Format(models.DateFormat)),
				ub.Assign("updated_at", now),
			)
			ub.Where(ub.Equal("id", id))
			query, args := ub.Build()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return 0, 0, errors.StorageError(errors.CodeQueryFailed, "update account", err)
			}
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, errors.StorageError(errors.CodeTxFailed, "commit account upsert", err)
	}

	s.logger.WithFields(logger.Fields{"created": created, "updated": updated}).Info("Upserted accounts")
	return created, updated, nil
}

// queryer abstracts *sqlx.DB and *sqlx.Tx for read helpers used both
// inside and outside reconciliation chunks.
type queryer interface {
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// accountIDMap resolves account natural keys to surrogate ids in one
// lookup. Every requested key must resolve; a missing account is a
// reference error because accounts must be imported first.
func accountIDMap(ctx context.Context, q queryer, naturalIDs []string) (map[string]int64, error) {
	if len(naturalIDs) == 0 {
		return map[string]int64{}, nil
	}

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "account_id")
	sb.From("accounts")
	sb.Where(sb.In("account_id", sqlbuilder.List(naturalIDs)))
	query, args := sb.Build()

	var rows []struct {
		ID        int64  `db:"id"`
		AccountID string `db:"account_id"`
	}
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.StorageError(errors.CodeQueryFailed, "resolve accounts", err)
	}

	idMap := make(map[string]int64, len(rows))
	for _, row := range rows {
		idMap[row.AccountID] = row.ID
	}

	for _, naturalID := range naturalIDs {
		if _, ok := idMap[naturalID]; !ok {
			return nil, errors.ReferenceError(errors.CodeUnknownAccount, naturalID)
		}
	}

	return idMap, nil
}

// existingTransactions snapshots ledger rows for the given synthesized ids.
func existingTransactions(ctx context.Context, q queryer, transactionIDs []string) (map[string]*transactionRow, error) {
	if len(transactionIDs) == 0 {
		return map[string]*transactionRow{}, nil
	}

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "transaction_id", "transaction_id_raw", "account_id", "amount", "date", "vendor_id", "created_at", "updated_at")
	sb.From("transactions")
	sb.Where(sb.In("transaction_id", sqlbuilder.List(transactionIDs)))
	query, args := sb.Build()

	var rows []transactionRow
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.StorageError(errors.CodeQueryFailed, "snapshot existing transactions", err)
	}

	existing := make(map[string]*transactionRow, len(rows))
	for i := range rows {
		existing[rows[i].TransactionID] = &rows[i]
	}
	return existing, nil
}
