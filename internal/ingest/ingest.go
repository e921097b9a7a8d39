// Package ingest orchestrates whole runs: validating a source directory,
// standardizing raw institution exports, and importing standardized data
// into the ledger.
package ingest

import (
	"context"
	"path/filepath"

	"golang-ledger-ingestion-service/internal/idgen"
	"golang-ledger-ingestion-service/internal/ledger"
	"golang-ledger-ingestion-service/internal/models"
	"golang-ledger-ingestion-service/internal/parsers"
	"golang-ledger-ingestion-service/internal/validators"
	"golang-ledger-ingestion-service/pkg/logger"
)

// Service wires the parsers, validators and ledger together for the CLI.
type Service struct {
	store  *ledger.Store
	engine *ledger.Engine
	logger logger.Logger
}

// NewService creates an ingestion service over the given store.
func NewService(store *ledger.Store, opts ...ledger.EngineOption) *Service {
	return &Service{
		store:  store,
		engine: ledger.NewEngine(store, opts...),
		logger: logger.GetGlobalLogger().WithComponent("ingest"),
	}
}

// Validate runs the full pre-flight validator chain against a standardized
// import directory.
func (s *Service) Validate(dir string) error {
	return validators.ValidateImportDir(dir)
}

// ImportSummary reports the outcome of one directory import.
type ImportSummary struct {
	AccountsCreated     int    `json:"accounts_created"`
	AccountsUpdated     int    `json:"accounts_updated"`
	TransactionsParsed  int    `json:"transactions_parsed"`
	TransactionsCreated int    `json:"transactions_created"`
	TransactionsUpdated int    `json:"transactions_updated"`
	AuditID             string `json:"audit_id"`
}

// ImportDirectory validates and imports one standardized directory: the
// account file first, then every transaction file, then the chart date
// window and an audit row. Validation failures abort before any write.
func (s *Service) ImportDirectory(ctx context.Context, dir string) (*ImportSummary, error) {
	if err := s.Validate(dir); err != nil {
		return nil, err
	}

	accounts, err := parsers.ParseAccountsFile(filepath.Join(dir, validators.AccountsFileName))
	if err != nil {
		return nil, err
	}

	accountsCreated, accountsUpdated, err := s.store.UpsertAccounts(ctx, accounts)
	if err != nil {
		return nil, err
	}

	transactions, err := parsers.ParseStandardTransactionsDir(filepath.Join(dir, validators.TransactionsDirName))
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Reconcile(ctx, transactions)
	if err != nil {
		return nil, err
	}

	if err := s.updateChartConfig(ctx); err != nil {
		return nil, err
	}

	summary := &ImportSummary{
		AccountsCreated:     accountsCreated,
		AccountsUpdated:     accountsUpdated,
		TransactionsParsed:  len(transactions),
		TransactionsCreated: result.Created,
		TransactionsUpdated: result.Updated,
	}

	auditID, err := s.store.RecordImportAudit(ctx, &ledger.ImportAudit{
		SourceDir:           dir,
		AccountsCreated:     accountsCreated,
		AccountsUpdated:     accountsUpdated,
		TransactionsCreated: result.Created,
		TransactionsUpdated: result.Updated,
	})
	if err != nil {
		return nil, err
	}
	summary.AuditID = auditID

	s.logger.WithFields(logger.Fields{
		"dir":                  dir,
		"accounts_created":     summary.AccountsCreated,
		"accounts_updated":     summary.AccountsUpdated,
		"transactions_created": summary.TransactionsCreated,
		"transactions_updated": summary.TransactionsUpdated,
	}).Info("Import complete")

	return summary, nil
}

// ImportStatementPDF parses one PDF statement for the given account and
// reconciles its transactions into the ledger. Only TD Canada issues PDF
// statements we can read.
func (s *Service) ImportStatementPDF(ctx context.Context, path string, institution models.Institution, accountID string) (*ledger.ReconcileResult, *parsers.Stats, error) {
	parser, err := parsers.NewStatementParser(institution, idgen.NewOccurrenceCounter())
	if err != nil {
		return nil, nil, err
	}

	parsed, stats, err := parser.ParseFile(path)
	if err != nil {
		return nil, nil, err
	}

	transactions := make([]*models.Transaction, 0, len(parsed))
	for _, candidate := range parsed {
		transactions = append(transactions, candidate.ToTransaction(accountID))
	}

	result, err := s.engine.Reconcile(ctx, transactions)
	if err != nil {
		return nil, nil, err
	}

	if err := s.updateChartConfig(ctx); err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(logger.Fields{
		"file":    path,
		"account": accountID,
		"created": result.Created,
		"updated": result.Updated,
		"skipped": stats.LinesSkipped,
	}).Info("Statement import complete")

	return result, stats, nil
}

// updateChartConfig widens the persisted chart window to the ledger's full
// date range. A ledger with no transactions leaves the window untouched.
func (s *Service) updateChartConfig(ctx context.Context) error {
	earliest, latest, ok, err := s.store.DateBounds(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return s.store.UpsertChartConfig(ctx, &ledger.ChartConfig{DateFrom: earliest, DateTo: latest})
}
