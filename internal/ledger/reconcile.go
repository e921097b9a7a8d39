package ledger

import (
	"context"

	"github.com/huandu/go-sqlbuilder"

	"golang-ledger-ingestion-service/internal/models"
	"golang-ledger-ingestion-service/pkg/errors"
	"golang-ledger-ingestion-service/pkg/logger"
)

// DefaultChunkSize is the number of candidate transactions merged per
// database transaction.
const DefaultChunkSize = 100

// ReconcileResult summarizes one reconciliation run.
type ReconcileResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Engine merges parsed candidate transactions into the ledger. The merge is
// keyed on the synthesized transaction id, so re-importing the same export
// creates nothing and only rewrites rows whose amount or date changed at
// the source.
type Engine struct {
	store     *Store
	chunkSize int
	logger    logger.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithChunkSize overrides the per-transaction chunk size.
func WithChunkSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// NewEngine creates a reconciliation engine over the given store.
func NewEngine(store *Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:     store,
		chunkSize: DefaultChunkSize,
		logger:    logger.GetGlobalLogger().WithComponent("reconcile_engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile merges the candidates into the ledger in chunks, each chunk
// inside its own database transaction. A failed chunk rolls back and aborts
// the run; chunks already committed stay committed, which is safe because
// re-running the same input is idempotent.
func (e *Engine) Reconcile(ctx context.Context, candidates []*models.Transaction) (*ReconcileResult, error) {
	result := &ReconcileResult{}

	for start := 0; start < len(candidates); start += e.chunkSize {
		end := start + e.chunkSize
		if end > len(candidates) {
			end = len(candidates)
		}

		created, updated, err := e.reconcileChunk(ctx, candidates[start:end])
		if err != nil {
			return nil, err
		}
		result.Created += created
		result.Updated += updated
	}

	e.logger.WithFields(logger.Fields{
		"candidates": len(candidates),
		"created":    result.Created,
		"updated":    result.Updated,
	}).Info("Reconciliation complete")

	return result, nil
}

func (e *Engine) reconcileChunk(ctx context.Context, chunk []*models.Transaction) (int, int, error) {
	tx, err := e.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, errors.StorageError(errors.CodeTxFailed, "begin reconciliation chunk", err)
	}
	defer tx.Rollback()

	transactionIDs := make([]string, 0, len(chunk))
	naturalAccountIDs := make([]string, 0, len(chunk))
	seenAccounts := map[string]bool{}
	for _, candidate := range chunk {
		transactionIDs = append(transactionIDs, candidate.TransactionID)
		if !seenAccounts[candidate.AccountID] {
			seenAccounts[candidate.AccountID] = true
			naturalAccountIDs = append(naturalAccountIDs, candidate.AccountID)
		}
	}

	existing, err := existingTransactions(ctx, tx, transactionIDs)
	if err != nil {
		return 0, 0, err
	}

	accountIDs, err := accountIDMap(ctx, tx, naturalAccountIDs)
	if err != nil {
		return 0, 0, err
	}

	var creates []*models.Transaction
	var updates []*models.Transaction
	for _, candidate := range chunk {
		row, ok := existing[candidate.TransactionID]
		switch {
		case !ok:
			creates = append(creates, candidate)
		case e.differs(candidate, row, accountIDs[candidate.AccountID]):
			updates = append(updates, candidate)
		}
	}

	now := nowUTC()

	if len(creates) > 0 {
		ib := sqlbuilder.SQLite.NewInsertBuilder()
		ib.InsertInto("transactions")
		ib.Cols("transaction_id", "transaction_id_raw", "account_id", "amount", "date", "created_at", "updated_at")
		for _, candidate := range creates {
			ib.Values(candidate.TransactionID, candidate.TransactionIDRaw,
				accountIDs[candidate.AccountID], storedAmount(candidate.Amount),
				candidate.Date.Format(models.DateFormat), now, now)
		}
		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, 0, errors.StorageError(errors.CodeQueryFailed, "insert transactions", err)
		}
	}

	for _, candidate := range updates {
		ub := sqlbuilder.SQLite.NewUpdateBuilder()
		ub.Update("transactions")
		ub.Set(
			ub.Assign("transaction_id_raw", candidate.TransactionIDRaw),
			ub.Assign("account_id", accountIDs[candidate.AccountID]),
			ub.Assign("amount", storedAmount(candidate.Amount)),
			ub.Assign("date", candidate.Date.Format(models.DateFormat)),
			ub.Assign("updated_at", now),
		)
		ub.Where(ub.Equal("transaction_id", candidate.TransactionID))
		query, args := ub.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, 0, errors.StorageError(errors.CodeQueryFailed, "update transaction", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, errors.StorageError(errors.CodeTxFailed, "commit reconciliation chunk", err)
	}

	e.logger.WithFields(logger.Fields{
		"chunk":   len(chunk),
		"created": len(creates),
		"updated": len(updates),
	}).Debug("Reconciled chunk")

	return len(creates), len(updates), nil
}

// differs reports whether a candidate's mutable fields diverge from the
// stored row. Amounts compare as canonical strings, so "5.1" and "5.1000"
// do not count as a change.
func (e *Engine) differs(candidate *models.Transaction, row *transactionRow, accountID int64) bool {
	if row.Amount != storedAmount(candidate.Amount) {
		return true
	}
	if row.Date != candidate.Date.Format(models.DateFormat) {
		return true
	}
	if row.AccountID != accountID {
		return true
	}
	if row.TransactionIDRaw != candidate.TransactionIDRaw {
		return true
	}
	return false
}
