package parsers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"golang-ledger-ingestion-service/internal/idgen"
	"golang-ledger-ingestion-service/pkg/errors"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

func TestTDCanadaCSVParser_ParseFile(t *testing.T) {
	content := "01/05/2020,SEND E-TFR,50.04,,1000.00\n" +
		"01/06/2020,PAYROLL DEP,,1250.00,2250.00\n" +
		"2020-01-07,MONTHLY FEE,4.95,,2245.05\n"

	parsed, stats, err := ParseTransactionsFile(NewTDCanadaCSVParser(), writeTempCSV(t, content))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(parsed) != 3 {
		t.Fatalf("Expected 3 candidates, got %d", len(parsed))
	}
	if stats.LinesMatched != 3 || stats.LinesSkipped != 0 {
		t.Errorf("Unexpected stats: %s", stats)
	}

	wantAmounts := []string{"-50.04", "1250.00", "-4.95"}
	for i, want := range wantAmounts {
		if !parsed[i].Amount.Equal(decimal.RequireFromString(want)) {
			t.Errorf("Candidate %d amount = %s, want %s", i, parsed[i].Amount, want)
		}
	}

	// Locale and ISO dates both land on the expected day.
	if parsed[0].Date.Format("2006-01-02") != "2020-01-05" {
		t.Errorf("Locale date parsed as %v", parsed[0].Date)
	}
	if parsed[2].Date.Format("2006-01-02") != "2020-01-07" {
		t.Errorf("ISO fallback date parsed as %v", parsed[2].Date)
	}
}

func TestTDCanadaCSVParser_IDStableAcrossReparses(t *testing.T) {
	content := "01/05/2020,SEND E-TFR,50.04,,1000.00\n"
	path := writeTempCSV(t, content)

	first, _, err := ParseTransactionsFile(NewTDCanadaCSVParser(), path)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := ParseTransactionsFile(NewTDCanadaCSVParser(), path)
	if err != nil {
		t.Fatal(err)
	}

	if first[0].TransactionID != second[0].TransactionID {
		t.Errorf("Re-parse changed the id: %q vs %q", first[0].TransactionID, second[0].TransactionID)
	}
	if first[0].TransactionID != idgen.ContentHashID("SEND E-TFR", "01/05/2020", 0) {
		t.Errorf("Id does not follow the content-hash convention: %q", first[0].TransactionID)
	}
}

func TestTDCanadaCSVParser_BothAmountColumnsAreTolerated(t *testing.T) {
	// This format is deliberately lenient: both columns filled nets out
	// rather than failing, unlike the KOHO parser.
	content := "01/05/2020,ADJUSTMENT,10.00,25.00,1000.00\n"

	parsed, _, err := ParseTransactionsFile(NewTDCanadaCSVParser(), writeTempCSV(t, content))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !parsed[0].Amount.Equal(decimal.RequireFromString("15.00")) {
		t.Errorf("Expected netted amount 15.00, got %s", parsed[0].Amount)
	}
}

func TestTDCanadaCSVParser_BadDateFailsFile(t *testing.T) {
	content := "01/05/2020,OK,1.00,,0\n" +
		"not-a-date,BAD,1.00,,0\n"

	_, _, err := ParseTransactionsFile(NewTDCanadaCSVParser(), writeTempCSV(t, content))
	if err == nil {
		t.Fatal("Expected error for unparseable date")
	}

	ledgerErr, ok := errors.AsLedgerError(err)
	if !ok || ledgerErr.Code != errors.CodeInvalidData {
		t.Errorf("Expected %s, got %v", errors.CodeInvalidData, err)
	}
}

func TestTDCanadaCSVParser_BadAmountFailsFile(t *testing.T) {
	content := "01/05/2020,BAD,abc,,0\n"

	_, _, err := ParseTransactionsFile(NewTDCanadaCSVParser(), writeTempCSV(t, content))
	if err == nil {
		t.Fatal("Expected error for unparseable amount")
	}
}
