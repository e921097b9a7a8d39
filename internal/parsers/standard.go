package parsers

import (
	"path/filepath"
	"sort"

	"golang-ledger-ingestion-service/internal/models"
	"golang-ledger-ingestion-service/pkg/errors"
)

// StandardTransactionSchema is the canonical transaction CSV layout that
// all institution parsers converge to.
var StandardTransactionSchema = Schema{Columns: []string{
	"Date",
	"AccountID",
	"TransactionID",
	"TransactionIDRaw",
	"Amount",
}}

// StandardAccountSchema is the canonical account CSV layout.
var StandardAccountSchema = Schema{Columns: []string{
	"AccountID",
	"Name",
	"Institution",
	"AmountInitial",
	"DateStart",
}}

// ParseStandardTransactionsFile reads one standardized transaction CSV into
// canonical transactions. These files carry synthesized ids already, so no
// id generation happens here.
func ParseStandardTransactionsFile(path string) ([]*models.Transaction, error) {
	walker := NewCSVWalker(StandardTransactionSchema)

	var transactions []*models.Transaction
	err := walker.Walk(path, func(rec *Record) error {
		date, err := models.ParseDate(rec.Get("Date"))
		if err != nil {
			return errors.RowError(errors.CodeInvalidData, rec.File, rec.Row, "Date", rec.Get("Date"), err)
		}

		amount, err := models.ParseAmount(rec.Get("Amount"))
		if err != nil {
			return errors.RowError(errors.CodeInvalidData, rec.File, rec.Row, "Amount", rec.Get("Amount"), err)
		}

		trx := &models.Transaction{
			TransactionID:    rec.Get("TransactionID"),
			TransactionIDRaw: rec.Get("TransactionIDRaw"),
			AccountID:        rec.Get("AccountID"),
			Amount:           amount,
			Date:             models.DateOnly(date),
		}
		if err := trx.Validate(); err != nil {
			return errors.RowError(errors.CodeInvalidData, rec.File, rec.Row, "TransactionID", trx.TransactionID, err)
		}

		transactions = append(transactions, trx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

// ParseStandardTransactionsDir reads every standardized transaction CSV in
// the directory, in lexical file order.
func ParseStandardTransactionsDir(dir string) ([]*models.Transaction, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryStructural, errors.CodeDirectoryMissing, dir)
	}
	sort.Strings(paths)

	var all []*models.Transaction
	for _, path := range paths {
		transactions, err := ParseStandardTransactionsFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, transactions...)
	}

	return all, nil
}

// ParseAccountsFile reads a standardized Accounts.csv into accounts.
func ParseAccountsFile(path string) ([]*models.Account, error) {
	walker := NewCSVWalker(StandardAccountSchema)

	var accounts []*models.Account
	err := walker.Walk(path, func(rec *Record) error {
		amountInitial, err := models.ParseAmount(rec.Get("AmountInitial"))
		if err != nil {
			return errors.RowError(errors.CodeInvalidData, rec.File, rec.Row, "AmountInitial", rec.Get("AmountInitial"), err)
		}

		dateStart, err := models.ParseDate(rec.Get("DateStart"))
		if err != nil {
			return errors.RowError(errors.CodeInvalidData, rec.File, rec.Row, "DateStart", rec.Get("DateStart"), err)
		}

		account := &models.Account{
			AccountID:     rec.Get("AccountID"),
			Name:          rec.Get("Name"),
			Institution:   rec.Get("Institution"),
			AmountInitial: amountInitial,
			DateStart:     models.DateOnly(dateStart),
		}
		if err := account.Validate(); err != nil {
			return errors.RowError(errors.CodeInvalidData, rec.File, rec.Row, "AccountID", account.AccountID, err)
		}

		accounts = append(accounts, account)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// TransactionRecord renders a canonical transaction as a standardized CSV
// record. Amounts render through decimal.String, so no binary floating
// point ever touches the value.
func TransactionRecord(t *models.Transaction) []string {
	return []string{
		t.Date.Format(models.DateFormat),
		t.AccountID,
		t.TransactionID,
		t.TransactionIDRaw,
		t.Amount.String(),
	}
}

// AccountRecord renders an account as a standardized CSV record.
func AccountRecord(a *models.Account) []string {
	return []string{
		a.AccountID,
		a.Name,
		a.Institution,
		a.AmountInitial.String(),
		a.DateStart.Format(models.DateFormat),
	}
}
