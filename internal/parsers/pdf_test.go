package parsers

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"golang-ledger-ingestion-service/internal/idgen"
	"golang-ledger-ingestion-service/pkg/errors"
)

const sampleStatementText = `TD CANADA TRUST
STATEMENT OF ACCOUNT

JAN 01/20 - FEB 01/20

DESCRIPTION                       AMOUNT   DATE    BALANCE
MONTHLY PLAN FEE                  4.95 JAN05 1,234.56
TFR-TO C/C 50.00 JAN06
TFR-TO C/C 50.00 JAN06
PAYROLL DEP                       1,250.00 JAN07 2,434.61

Page 1 of 1
`

func newTestPDFParser() *TDCanadaPDFParser {
	return NewTDCanadaPDFParser(idgen.NewOccurrenceCounter())
}

func TestTDCanadaPDFParser_MatchesTransaction(t *testing.T) {
	p := newTestPDFParser()

	tests := []struct {
		line string
		want bool
	}{
		{"MONTHLY PLAN FEE                  4.95 JAN05 1,234.56", true},
		{"TFR-TO C/C 50.00 JAN06", true},
		{"PAYROLL DEP                       1,250.00 JAN07 2,434.61", true},
		{"JAN 01/20 - FEB 01/20", false},
		{"STATEMENT OF ACCOUNT", false},
		{"Page 1 of 1", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := p.MatchesTransaction(tt.line); got != tt.want {
			t.Errorf("MatchesTransaction(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestTDCanadaPDFParser_MatchesPeriodHeader(t *testing.T) {
	p := newTestPDFParser()

	if !p.MatchesPeriodHeader("JAN 01/20 - FEB 01/20") {
		t.Error("Expected period header to match")
	}
	if p.MatchesPeriodHeader("TFR-TO C/C 50.00 JAN06") {
		t.Error("Transaction line must not match the period header pattern")
	}
}

func TestTDCanadaPDFParser_ParseText(t *testing.T) {
	p := newTestPDFParser()

	parsed, stats, err := p.ParseText(strings.NewReader(sampleStatementText), "stmt.pdf")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(parsed) != 4 {
		t.Fatalf("Expected 4 transactions, got %d", len(parsed))
	}

	// Year context from the period header applies to every line.
	wantDates := []string{"2020-01-05", "2020-01-06", "2020-01-06", "2020-01-07"}
	for i, want := range wantDates {
		if got := parsed[i].Date.Format("2006-01-02"); got != want {
			t.Errorf("Transaction %d date = %s, want %s", i, got, want)
		}
	}

	// With a trailing balance the amount is third from last; without, it
	// is second from last.
	wantAmounts := []string{"4.95", "50.00", "50.00", "1250.00"}
	for i, want := range wantAmounts {
		if !parsed[i].Amount.Equal(decimal.RequireFromString(want)) {
			t.Errorf("Transaction %d amount = %s, want %s", i, parsed[i].Amount, want)
		}
	}

	wantRawIDs := []string{"MONTHLY PLAN FEE", "TFR-TO C/C", "TFR-TO C/C", "PAYROLL DEP"}
	for i, want := range wantRawIDs {
		if parsed[i].TransactionIDRaw != want {
			t.Errorf("Transaction %d raw id = %q, want %q", i, parsed[i].TransactionIDRaw, want)
		}
	}

	if stats.LinesMatched != 4 || stats.PeriodHeaders != 1 {
		t.Errorf("Unexpected stats: matched=%d headers=%d", stats.LinesMatched, stats.PeriodHeaders)
	}
	if stats.LinesSkipped == 0 {
		t.Error("Non-data lines must be counted as skipped")
	}
	if stats.LinesSeen != stats.LinesMatched+stats.LinesSkipped+stats.PeriodHeaders {
		t.Errorf("Line accounting does not add up: %+v", stats)
	}
}

func TestTDCanadaPDFParser_OccurrenceDisambiguation(t *testing.T) {
	p := newTestPDFParser()

	parsed, _, err := p.ParseText(strings.NewReader(sampleStatementText), "stmt.pdf")
	if err != nil {
		t.Fatal(err)
	}

	// Two identical same-day transfers differ only in the trailing index.
	if parsed[1].TransactionID != "TFR-TO C/C:2020-01-06:0" {
		t.Errorf("First occurrence id = %q", parsed[1].TransactionID)
	}
	if parsed[2].TransactionID != "TFR-TO C/C:2020-01-06:1" {
		t.Errorf("Second occurrence id = %q", parsed[2].TransactionID)
	}
}

func TestTDCanadaPDFParser_IDsStableAcrossRuns(t *testing.T) {
	first, _, err := newTestPDFParser().ParseText(strings.NewReader(sampleStatementText), "stmt.pdf")
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := newTestPDFParser().ParseText(strings.NewReader(sampleStatementText), "stmt.pdf")
	if err != nil {
		t.Fatal(err)
	}

	for i := range first {
		if first[i].TransactionID != second[i].TransactionID {
			t.Errorf("Run 2 id %d = %q, want %q", i, second[i].TransactionID, first[i].TransactionID)
		}
	}
}

func TestTDCanadaPDFParser_TransactionBeforePeriodHeaderFails(t *testing.T) {
	text := "TFR-TO C/C 50.00 JAN06\nJAN 01/20 - FEB 01/20\n"

	_, _, err := newTestPDFParser().ParseText(strings.NewReader(text), "stmt.pdf")
	if err == nil {
		t.Fatal("Expected error for transaction line before any period header")
	}

	ledgerErr, ok := errors.AsLedgerError(err)
	if !ok || ledgerErr.Code != errors.CodeInvalidFormat {
		t.Errorf("Expected %s, got %v", errors.CodeInvalidFormat, err)
	}
}

func TestTDCanadaPDFParser_YearContextSupersedes(t *testing.T) {
	text := "JAN 01/20 - FEB 01/20\n" +
		"TFR-TO C/C 50.00 JAN06\n" +
		"JAN 01/21 - FEB 01/21\n" +
		"TFR-TO C/C 50.00 JAN06\n"

	parsed, _, err := newTestPDFParser().ParseText(strings.NewReader(text), "stmt.pdf")
	if err != nil {
		t.Fatal(err)
	}

	if parsed[0].Date.Year() != 2020 {
		t.Errorf("First transaction year = %d, want 2020", parsed[0].Date.Year())
	}
	if parsed[1].Date.Year() != 2021 {
		t.Errorf("Second transaction year = %d, want 2021", parsed[1].Date.Year())
	}
}

func TestParseMonthDayCode(t *testing.T) {
	date, err := parseMonthDayCode("JAN05", 2020)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if date.Format("2006-01-02") != "2020-01-05" {
		t.Errorf("parseMonthDayCode = %v", date)
	}

	if _, err := parseMonthDayCode("JAN32", 2020); err == nil {
		t.Error("Expected error for impossible day")
	}
	if _, err := parseMonthDayCode("XXX01", 2020); err == nil {
		t.Error("Expected error for unknown month")
	}
	if _, err := parseMonthDayCode("J05", 2020); err == nil {
		t.Error("Expected error for malformed code")
	}
}

func TestParsePeriodYear(t *testing.T) {
	year, err := parsePeriodYear("JAN 01/20 - FEB 01/20")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if year != 2020 {
		t.Errorf("parsePeriodYear = %d, want 2020", year)
	}
}
