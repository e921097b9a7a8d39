package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"golang-ledger-ingestion-service/internal/charts"
	"golang-ledger-ingestion-service/internal/ingest"
)

func TestOutputFormat_IsValid(t *testing.T) {
	if !FormatConsole.IsValid() || !FormatJSON.IsValid() {
		t.Error("Built-in formats must be valid")
	}
	if OutputFormat("xml").IsValid() {
		t.Error("Unknown format must be invalid")
	}
}

func TestWriteImportSummary_Console(t *testing.T) {
	var buf bytes.Buffer
	summary := &ingest.ImportSummary{
		AccountsCreated:     2,
		TransactionsCreated: 40,
		AuditID:             "abc-123",
	}

	if err := WriteImportSummary(&buf, summary, FormatConsole); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"Accounts created:", "40", "abc-123"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteImportSummary_JSON(t *testing.T) {
	var buf bytes.Buffer
	summary := &ingest.ImportSummary{TransactionsCreated: 7}

	if err := WriteImportSummary(&buf, summary, FormatJSON); err != nil {
		t.Fatal(err)
	}

	var decoded ingest.ImportSummary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if decoded.TransactionsCreated != 7 {
		t.Errorf("Round-tripped summary = %+v", decoded)
	}
}

func TestWriteBalanceSeries_Console(t *testing.T) {
	var buf bytes.Buffer
	series := []charts.Point{
		{Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Value: decimal.RequireFromString("-63.37")},
		{Date: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), Value: decimal.RequireFromString("36.63")},
	}

	if err := WriteBalanceSeries(&buf, series, FormatConsole); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "2020-01-01") || !strings.Contains(out, "-63.37") {
		t.Errorf("Output missing expected values:\n%s", out)
	}
}
