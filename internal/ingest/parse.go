package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"golang-ledger-ingestion-service/internal/models"
	"golang-ledger-ingestion-service/internal/parsers"
	"golang-ledger-ingestion-service/internal/validators"
	"golang-ledger-ingestion-service/pkg/errors"
	"golang-ledger-ingestion-service/pkg/logger"
)

// accountDirSeparator splits a raw export directory name into its
// institution and account parts: <Institution>__<AccountID>.
const accountDirSeparator = "__"

// ParseSummary reports the outcome of one standardization run.
type ParseSummary struct {
	AccountsWritten    int `json:"accounts_written"`
	FilesParsed        int `json:"files_parsed"`
	FilesWritten       int `json:"files_written"`
	TransactionsParsed int `json:"transactions_parsed"`
	LinesSkipped       int `json:"lines_skipped"`
}

// ParseDirectory standardizes a raw export tree into the canonical import
// layout. Source layout is one directory per account, named
// <Institution>__<AccountID>, holding that institution's CSV exports. The
// destination gets Accounts.csv plus one Transactions/ file per account
// and month. Accounts without metadata get a zero initial amount and their
// earliest transaction date as the start date.
func ParseDirectory(ctx context.Context, srcDir, destDir string) (*ParseSummary, error) {
	if err := validators.ValidateParseSourceDir(srcDir); err != nil {
		return nil, err
	}

	log := logger.GetGlobalLogger().WithComponent("ingest").WithField("src", srcDir)

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, errors.StructuralError(errors.CodeDirectoryMissing, srcDir, srcDir)
	}

	summary := &ParseSummary{}
	byAccount := map[string][]*models.Transaction{}
	var accountIDs []string

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.InternalError("parse run", err)
		}

		institution, accountID, err := splitAccountDirName(entry.Name())
		if err != nil {
			return nil, errors.StructuralError(errors.CodeBadFileName, srcDir, entry.Name()).
				WithSuggestion("account directories must be named <Institution>__<AccountID>")
		}

		parser, err := parsers.NewInstitutionParser(institution)
		if err != nil {
			return nil, err
		}

		paths, err := filepath.Glob(filepath.Join(srcDir, entry.Name(), "*.csv"))
		if err != nil {
			return nil, errors.StructuralError(errors.CodeDirectoryMissing, srcDir, entry.Name())
		}
		sort.Strings(paths)

		for _, path := range paths {
			parsed, stats, err := parsers.ParseTransactionsFile(parser, path)
			if err != nil {
				return nil, err
			}
			summary.FilesParsed++
			summary.TransactionsParsed += stats.LinesMatched
			summary.LinesSkipped += stats.LinesSkipped

			for _, candidate := range parsed {
				byAccount[accountID] = append(byAccount[accountID], candidate.ToTransaction(accountID))
			}
		}

		if _, ok := byAccount[accountID]; ok {
			accountIDs = append(accountIDs, accountID)
		}
		log.WithFields(logger.Fields{
			"account":     accountID,
			"institution": institution,
			"files":       len(paths),
		}).Debug("Standardized account directory")
	}
	sort.Strings(accountIDs)

	institutions := map[string]models.Institution{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if institution, accountID, err := splitAccountDirName(entry.Name()); err == nil {
			institutions[accountID] = institution
		}
	}

	if err := writeStandardLayout(destDir, accountIDs, institutions, byAccount, summary); err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{
		"accounts":     summary.AccountsWritten,
		"transactions": summary.TransactionsParsed,
		"skipped":      summary.LinesSkipped,
	}).Info("Parse run complete")

	return summary, nil
}

// splitAccountDirName parses <Institution>__<AccountID>.
func splitAccountDirName(name string) (models.Institution, string, error) {
	parts := strings.SplitN(name, accountDirSeparator, 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("malformed account directory name '%s'", name)
	}

	institution, err := models.ParseInstitution(parts[0])
	if err != nil {
		return "", "", err
	}
	return institution, parts[1], nil
}

// writeStandardLayout renders the standardized Accounts.csv and monthly
// transaction files.
func writeStandardLayout(destDir string, accountIDs []string, institutions map[string]models.Institution,
	byAccount map[string][]*models.Transaction, summary *ParseSummary) error {

	transactionsDir := filepath.Join(destDir, validators.TransactionsDirName)
	if err := os.MkdirAll(transactionsDir, 0o755); err != nil {
		return errors.StructuralError(errors.CodeDirectoryMissing, destDir, err.Error())
	}

	var accounts []*models.Account
	for _, accountID := range accountIDs {
		transactions := byAccount[accountID]
		sort.SliceStable(transactions, func(i, j int) bool {
			return transactions[i].Date.Before(transactions[j].Date)
		})

		accounts = append(accounts, &models.Account{
			AccountID:     accountID,
			Name:          accountID,
			Institution:   institutions[accountID].String(),
			AmountInitial: decimal.Zero,
			DateStart:     transactions[0].Date,
		})

		byMonth := map[string][]*models.Transaction{}
		var months []string
		for _, trx := range transactions {
			month := trx.Date.Format("2006-01")
			if _, ok := byMonth[month]; !ok {
				months = append(months, month)
			}
			byMonth[month] = append(byMonth[month], trx)
		}
		sort.Strings(months)

		for _, month := range months {
			rows := make([][]string, 0, len(byMonth[month]))
			for _, trx := range byMonth[month] {
				rows = append(rows, parsers.TransactionRecord(trx))
			}

			path := filepath.Join(transactionsDir, fmt.Sprintf("%s_%s.csv", accountID, month))
			if err := writeCSV(path, parsers.StandardTransactionSchema.Columns, rows); err != nil {
				return err
			}
			summary.FilesWritten++
		}
	}

	rows := make([][]string, 0, len(accounts))
	for _, account := range accounts {
		rows = append(rows, parsers.AccountRecord(account))
	}
	if err := writeCSV(filepath.Join(destDir, validators.AccountsFileName),
		parsers.StandardAccountSchema.Columns, rows); err != nil {
		return err
	}
	summary.AccountsWritten = len(accounts)

	return nil
}

// writeCSV writes one standardized CSV with its header row.
func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.StructuralError(errors.CodeFileMissing, path, err.Error())
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return errors.InternalError("write csv header", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return errors.InternalError("write csv row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.InternalError("flush csv", err)
	}

	return f.Close()
}
