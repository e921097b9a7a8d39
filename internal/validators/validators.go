// Package validators runs pre-flight structural checks on import source
// directories before any parsing or persistence starts. Checks fail fast:
// the first problem found is returned and the run must be aborted.
package validators

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang-ledger-ingestion-service/internal/models"
	"golang-ledger-ingestion-service/internal/parsers"
	"golang-ledger-ingestion-service/pkg/errors"
)

// AccountsFileName is the required account metadata file at the top of an
// import source directory.
const AccountsFileName = "Accounts.csv"

// TransactionsDirName is the required transactions directory.
const TransactionsDirName = "Transactions"

// ValidateImportDir validates the whole standardized import layout:
//
//	<source-dir>/
//	├── Accounts.csv
//	└── Transactions/
//	    └── <AccountID>_<YYYY>-<MM>[-<DD>].csv
//
// A nil return means the directory is safe to import.
func ValidateImportDir(dir string) error {
	if err := ValidateSourceDir(dir); err != nil {
		return err
	}
	if err := ValidateAccountsFile(dir); err != nil {
		return err
	}
	return ValidateTransactionsDir(dir)
}

// ValidateSourceDir checks that the required top-level entries exist.
func ValidateSourceDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return errors.StructuralError(errors.CodeDirectoryMissing, dir, dir)
	}

	accountsPath := filepath.Join(dir, AccountsFileName)
	info, err = os.Stat(accountsPath)
	if err != nil {
		return errors.StructuralError(errors.CodeFileMissing, dir, AccountsFileName)
	}
	if info.IsDir() {
		return errors.StructuralError(errors.CodeFileMissing, dir,
			fmt.Sprintf("%s is not a file", AccountsFileName))
	}

	transactionsPath := filepath.Join(dir, TransactionsDirName)
	if _, err := os.Stat(transactionsPath); err != nil {
		return errors.StructuralError(errors.CodeFileMissing, dir, TransactionsDirName)
	}

	return nil
}

// ValidateAccountsFile checks the account file's headers and row values:
// AmountInitial must parse as a decimal, DateStart as an ISO date, and the
// string columns must be non-empty.
func ValidateAccountsFile(dir string) error {
	path := filepath.Join(dir, AccountsFileName)
	walker := parsers.NewCSVWalker(parsers.StandardAccountSchema)

	return walker.Walk(path, func(rec *parsers.Record) error {
		for _, col := range []string{"AccountID", "Name", "Institution"} {
			if rec.Get(col) == "" {
				return errors.ValidationError(errors.CodeMissingField,
					fmt.Sprintf("%s (row %d in %s)", col, rec.Row, path), "", nil)
			}
		}

		if _, err := models.ParseAmount(rec.Get("AmountInitial")); err != nil {
			return errors.ValidationError(errors.CodeInvalidAmount,
				fmt.Sprintf("AmountInitial (row %d in %s)", rec.Row, path), rec.Get("AmountInitial"), err)
		}

		if _, err := models.ParseDate(rec.Get("DateStart")); err != nil {
			return errors.ValidationError(errors.CodeInvalidDate,
				fmt.Sprintf("DateStart (row %d in %s)", rec.Row, path), rec.Get("DateStart"), err)
		}

		return nil
	})
}

// ValidateTransactionsDir checks that every CSV in the transactions
// directory follows the <AccountID>_<YYYY>-<MM>[-<DD>].csv naming scheme.
func ValidateTransactionsDir(dir string) error {
	path := filepath.Join(dir, TransactionsDirName)
	entries, err := os.ReadDir(path)
	if err != nil {
		return errors.StructuralError(errors.CodeDirectoryMissing, path, path)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".csv") {
			return errors.StructuralError(errors.CodeBadFileName, path,
				fmt.Sprintf("non-CSV file %s", name))
		}

		if !validTransactionFileName(name) {
			return errors.StructuralError(errors.CodeBadFileName, path, name)
		}
	}

	return nil
}

// validTransactionFileName checks the <AccountID>_<YYYY>-<MM>[-<DD>].csv
// pattern. The date portion is everything after the last underscore.
func validTransactionFileName(name string) bool {
	base := strings.TrimSuffix(name, ".csv")
	idx := strings.LastIndex(base, "_")
	if idx <= 0 {
		return false
	}

	dateStr := base[idx+1:]
	if _, err := time.Parse("2006-01", dateStr); err == nil {
		return true
	}
	if _, err := time.Parse("2006-01-02", dateStr); err == nil {
		return true
	}
	return false
}

// ValidateParseSourceDir checks the raw institution export layout consumed
// by the parse run: <Institution>__<AccountID>/ directories of CSV
// exports. Stray top-level files must at least be CSVs.
func ValidateParseSourceDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return errors.StructuralError(errors.CodeDirectoryMissing, dir, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.StructuralError(errors.CodeDirectoryMissing, dir, dir)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".csv") {
			return errors.StructuralError(errors.CodeBadFileName, dir,
				fmt.Sprintf("non-CSV file %s", entry.Name()))
		}
	}

	return nil
}
