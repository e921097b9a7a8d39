package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/shopspring/decimal"

	"golang-ledger-ingestion-service/internal/models"
	"golang-ledger-ingestion-service/pkg/errors"
)

// ListAccounts returns every account, ordered by natural id.
func (s *Store) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "account_id", "name", "institution", "amount_initial", "date_start", "created_at", "updated_at")
	sb.From("accounts")
	sb.OrderBy("account_id")
	query, args := sb.Build()

	var rows []accountRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.StorageError(errors.CodeQueryFailed, "list accounts", err)
	}

	accounts := make([]*models.Account, 0, len(rows))
	for i := range rows {
		account, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// GetAccount returns one account by natural id.
func (s *Store) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "account_id", "name", "institution", "amount_initial", "date_start", "created_at", "updated_at")
	sb.From("accounts")
	sb.Where(sb.Equal("account_id", accountID))
	query, args := sb.Build()

	var row accountRow
	err := s.db.GetContext(ctx, &row, query, args...)
	if err == sql.ErrNoRows {
		return nil, errors.ReferenceError(errors.CodeUnknownAccount, accountID)
	}
	if err != nil {
		return nil, errors.StorageError(errors.CodeQueryFailed, "get account", err)
	}

	return row.toModel()
}

// TransactionsBetween returns the transactions for the given accounts with
// dates in [from, to], ordered by date then synthesized id. An empty
// account list means all accounts.
func (s *Store) TransactionsBetween(ctx context.Context, accountIDs []string, from, to time.Time) ([]*models.Transaction, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("t.transaction_id", "t.transaction_id_raw", "a.account_id", "t.amount", "t.date")
	sb.From("transactions t")
	sb.JoinWithOption(sqlbuilder.InnerJoin, "accounts a", "a.id = t.account_id")
	sb.Where(
		sb.GreaterEqualThan("t.date", from.Format(models.DateFormat)),
		sb.LessEqualThan("t.date", to.Format(models.DateFormat)),
	)
	if len(accountIDs) > 0 {
		sb.Where(sb.In("a.account_id", sqlbuilder.List(accountIDs)))
	}
	sb.OrderBy("t.date", "t.transaction_id")
	query, args := sb.Build()

	var rows []struct {
		TransactionID    string `db:"transaction_id"`
		TransactionIDRaw string `db:"transaction_id_raw"`
		AccountID        string `db:"account_id"`
		Amount           string `db:"amount"`
		Date             string `db:"date"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.StorageError(errors.CodeQueryFailed, "query transactions", err)
	}

	transactions := make([]*models.Transaction, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, errors.StorageError(errors.CodeQueryFailed, "decode transaction amount", err)
		}
		date, err := models.ParseDate(row.Date)
		if err != nil {
			return nil, errors.StorageError(errors.CodeQueryFailed, "decode transaction date", err)
		}
		transactions = append(transactions, &models.Transaction{
			TransactionID:    row.TransactionID,
			TransactionIDRaw: row.TransactionIDRaw,
			AccountID:        row.AccountID,
			Amount:           amount,
			Date:             date,
		})
	}
	return transactions, nil
}

// DateBounds returns the earliest and latest transaction dates in the
// ledger. ok is false when the ledger holds no transactions.
func (s *Store) DateBounds(ctx context.Context) (earliest, latest time.Time, ok bool, err error) {
	var row struct {
		Min sql.NullString `db:"min_date"`
		Max sql.NullString `db:"max_date"`
	}
	if err := s.db.GetContext(ctx, &row,
		`SELECT MIN(date) AS min_date, MAX(date) AS max_date FROM transactions`); err != nil {
		return time.Time{}, time.Time{}, false, errors.StorageError(errors.CodeQueryFailed, "query date bounds", err)
	}

	if !row.Min.Valid || !row.Max.Valid {
		return time.Time{}, time.Time{}, false, nil
	}

	earliest, err = models.ParseDate(row.Min.String)
	if err != nil {
		return time.Time{}, time.Time{}, false, errors.StorageError(errors.CodeQueryFailed, "decode date bounds", err)
	}
	latest, err = models.ParseDate(row.Max.String)
	if err != nil {
		return time.Time{}, time.Time{}, false, errors.StorageError(errors.CodeQueryFailed, "decode date bounds", err)
	}
	return earliest, latest, true, nil
}

// CountTransactions returns the total number of ledger transactions.
func (s *Store) CountTransactions(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM transactions`); err != nil {
		return 0, errors.StorageError(errors.CodeQueryFailed, "count transactions", err)
	}
	return count, nil
}
