package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"golang-ledger-ingestion-service/internal/models"
	"golang-ledger-ingestion-service/pkg/errors"
)

// ImportAudit records the outcome of one import run.
type ImportAudit struct {
	ID                  string    `json:"id"`
	SourceDir           string    `json:"source_dir"`
	AccountsCreated     int       `json:"accounts_created"`
	AccountsUpdated     int       `json:"accounts_updated"`
	TransactionsCreated int       `json:"transactions_created"`
	TransactionsUpdated int       `json:"transactions_updated"`
	CreatedAt           time.Time `json:"created_at"`
}

// RecordImportAudit persists an audit row for a finished import and
// returns its generated id.
func (s *Store) RecordImportAudit(ctx context.Context, audit *ImportAudit) (string, error) {
	id := uuid.New().String()

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("import_audits")
	ib.Cols("id", "source_dir", "accounts_created", "accounts_updated",
		"transactions_created", "transactions_updated", "created_at")
	ib.Values(id, audit.SourceDir, audit.AccountsCreated, audit.AccountsUpdated,
		audit.TransactionsCreated, audit.TransactionsUpdated, nowUTC())
	query, args := ib.Build()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", errors.StorageError(errors.CodeQueryFailed, "record import audit", err)
	}

	audit.ID = id
	return id, nil
}

// ChartConfig is the single persisted chart date window. Imports widen it
// to cover the ledger's full date range.
type ChartConfig struct {
	DateFrom time.Time `json:"date_from"`
	DateTo   time.Time `json:"date_to"`
}

// UpsertChartConfig writes the chart date window. There is only ever one
// row.
func (s *Store) UpsertChartConfig(ctx context.Context, cfg *ChartConfig) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chart_configs (id, date_from, date_to, updated_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET date_from = excluded.date_from, date_to = excluded.date_to, updated_at = excluded.updated_at`,
		cfg.DateFrom.Format(models.DateFormat), cfg.DateTo.Format(models.DateFormat), nowUTC())
	if err != nil {
		return errors.StorageError(errors.CodeQueryFailed, "upsert chart config", err)
	}
	return nil
}

// GetChartConfig returns the persisted chart date window, or ok=false when
// no import has set one yet.
func (s *Store) GetChartConfig(ctx context.Context) (*ChartConfig, bool, error) {
	var row struct {
		DateFrom string `db:"date_from"`
		DateTo   string `db:"date_to"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT date_from, date_to FROM chart_configs WHERE id = 1`)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.StorageError(errors.CodeQueryFailed, "get chart config", err)
	}

	from, err := models.ParseDate(row.DateFrom)
	if err != nil {
		return nil, false, errors.StorageError(errors.CodeQueryFailed, "decode chart config", err)
	}
	to, err := models.ParseDate(row.DateTo)
	if err != nil {
		return nil, false, errors.StorageError(errors.CodeQueryFailed, "decode chart config", err)
	}
	return &ChartConfig{DateFrom: from, DateTo: to}, true, nil
}
