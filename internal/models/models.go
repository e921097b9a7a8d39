// Package models defines the canonical data model every institution parser
// converges to: accounts keyed by their natural id and ledger transactions
// keyed by a synthesized, globally unique transaction id.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the canonical date representation used on disk and in the
// standardized CSV schema.
const DateFormat = "2006-01-02"

// AmountPlaces is the fractional precision of canonical amounts. Bank
// exports typically carry two places; the ledger stores four.
const AmountPlaces = 4

// Institution identifies a supported source institution. The set is closed:
// parser dispatch happens once at the entry point, against these values.
type Institution string

const (
	InstitutionTDCanada Institution = "TDCanada"
	InstitutionKOHO     Institution = "KOHO"
)

// ParseInstitution resolves an institution name, case-insensitively.
func ParseInstitution(s string) (Institution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tdcanada", "td_canada", "td":
		return InstitutionTDCanada, nil
	case "koho":
		return InstitutionKOHO, nil
	default:
		return "", fmt.Errorf("unsupported institution: %s", s)
	}
}

// String returns the string representation of the Institution.
func (i Institution) String() string {
	return string(i)
}

// IsValid checks if the institution is one of the supported values.
func (i Institution) IsValid() bool {
	return i == InstitutionTDCanada || i == InstitutionKOHO
}

// Account represents a bank account owned by the household. AccountID is
// the natural key originating from source data; the store assigns its own
// surrogate key.
type Account struct {
	AccountID     string          `json:"account_id" csv:"AccountID"`
	Name          string          `json:"name" csv:"Name"`
	Institution   string          `json:"institution" csv:"Institution"`
	AmountInitial decimal.Decimal `json:"amount_initial" csv:"AmountInitial"`
	DateStart     time.Time       `json:"date_start" csv:"DateStart"`
}

// Validate performs basic validation on the Account.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.AccountID) == "" {
		return fmt.Errorf("account id cannot be empty")
	}

	if strings.TrimSpace(a.Institution) == "" {
		return fmt.Errorf("account institution cannot be empty")
	}

	if a.DateStart.IsZero() {
		return fmt.Errorf("account start date cannot be zero")
	}

	return nil
}

// String returns a string representation of the Account.
func (a *Account) String() string {
	return fmt.Sprintf("Account{ID: %s, Institution: %s, Initial: %s, Start: %s}",
		a.AccountID, a.Institution, a.AmountInitial.String(), a.DateStart.Format(DateFormat))
}

// Transaction is the canonical ledger transaction. TransactionID is unique
// across the whole ledger; TransactionIDRaw is the institution-native
// identifier and may repeat across re-exports and even within one day.
type Transaction struct {
	TransactionID    string          `json:"transaction_id" csv:"TransactionID"`
	TransactionIDRaw string          `json:"transaction_id_raw" csv:"TransactionIDRaw"`
	AccountID        string          `json:"account_id" csv:"AccountID"`
	Amount           decimal.Decimal `json:"amount" csv:"Amount"`
	Date             time.Time       `json:"date" csv:"Date"`
}

// Validate performs basic validation on the Transaction.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.TransactionID) == "" {
		return fmt.Errorf("transaction id cannot be empty")
	}

	if strings.TrimSpace(t.AccountID) == "" {
		return fmt.Errorf("transaction account id cannot be empty")
	}

	if t.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}

	return nil
}

// String returns a string representation of the Transaction.
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{ID: %s, Account: %s, Amount: %s, Date: %s}",
		t.TransactionID, t.AccountID, t.Amount.String(), t.Date.Format(DateFormat))
}

// IsDebit returns true if the transaction amount is negative.
func (t *Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// IsCredit returns true if the transaction amount is positive.
func (t *Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

// ParsedTransaction is a candidate record produced by a row parser before
// conversion to the canonical Transaction. It is never persisted directly.
type ParsedTransaction struct {
	Date             time.Time
	TransactionIDRaw string
	TransactionID    string
	Amount           decimal.Decimal
	SourceRow        int
	SourceFile       string
}

// ToTransaction converts the candidate to a canonical Transaction bound to
// the given account natural key.
func (p *ParsedTransaction) ToTransaction(accountID string) *Transaction {
	return &Transaction{
		TransactionID:    p.TransactionID,
		TransactionIDRaw: p.TransactionIDRaw,
		AccountID:        accountID,
		Amount:           p.Amount,
		Date:             p.Date,
	}
}

// ParseAmount parses a monetary amount from a source string. Currency
// symbols and thousand separators are stripped; the result is exact
// decimal, never binary floating point.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseDate parses a date string in the canonical YYYY-MM-DD format.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s': %w", s, err)
	}
	return t, nil
}

// ParseDateWithFormats attempts each layout in order; used by institution
// parsers whose exports switch between locale and ISO dates.
func ParseDateWithFormats(s string, layouts ...string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	var lastErr error
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// DateOnly truncates a time to its date component in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
