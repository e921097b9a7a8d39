// Package report renders run summaries for the CLI in console or JSON
// form.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang-ledger-ingestion-service/internal/charts"
	"golang-ledger-ingestion-service/internal/ingest"
	"golang-ledger-ingestion-service/internal/models"
)

// OutputFormat represents the supported output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	return f == FormatConsole || f == FormatJSON
}

// WriteImportSummary renders an import summary.
func WriteImportSummary(w io.Writer, summary *ingest.ImportSummary, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, summary)
	}

	fmt.Fprintln(w, "Import Summary")
	fmt.Fprintln(w, strings.Repeat("=", 40))
	fmt.Fprintf(w, "%-25s %d\n", "Accounts created:", summary.AccountsCreated)
	fmt.Fprintf(w, "%-25s %d\n", "Accounts updated:", summary.AccountsUpdated)
	fmt.Fprintf(w, "%-25s %d\n", "Transactions parsed:", summary.TransactionsParsed)
	fmt.Fprintf(w, "%-25s %d\n", "Transactions created:", summary.TransactionsCreated)
	fmt.Fprintf(w, "%-25s %d\n", "Transactions updated:", summary.TransactionsUpdated)
	if summary.AuditID != "" {
		fmt.Fprintf(w, "%-25s %s\n", "Audit id:", summary.AuditID)
	}
	return nil
}

// WriteParseSummary renders a standardization run summary.
func WriteParseSummary(w io.Writer, summary *ingest.ParseSummary, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, summary)
	}

	fmt.Fprintln(w, "Parse Summary")
	fmt.Fprintln(w, strings.Repeat("=", 40))
	fmt.Fprintf(w, "%-25s %d\n", "Accounts written:", summary.AccountsWritten)
	fmt.Fprintf(w, "%-25s %d\n", "Files parsed:", summary.FilesParsed)
	fmt.Fprintf(w, "%-25s %d\n", "Files written:", summary.FilesWritten)
	fmt.Fprintf(w, "%-25s %d\n", "Transactions parsed:", summary.TransactionsParsed)
	fmt.Fprintf(w, "%-25s %d\n", "Lines skipped:", summary.LinesSkipped)
	return nil
}

// WriteBalanceSeries renders a balance series, one day per line.
func WriteBalanceSeries(w io.Writer, series []charts.Point, format OutputFormat) error {
	if format == FormatJSON {
		out := make([]map[string]string, 0, len(series))
		for _, point := range series {
			out = append(out, map[string]string{
				"date":  point.Date.Format(models.DateFormat),
				"value": point.Value.String(),
			})
		}
		return writeJSON(w, out)
	}

	fmt.Fprintf(w, "%-12s %s\n", "Date", "Balance")
	fmt.Fprintln(w, strings.Repeat("-", 28))
	for _, point := range series {
		fmt.Fprintf(w, "%-12s %s\n", point.Date.Format(models.DateFormat), point.Value.StringFixed(2))
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
