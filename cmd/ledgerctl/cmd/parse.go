package cmd

import (
	"github.com/spf13/cobra"

	"golang-ledger-ingestion-service/internal/ingest"
	"golang-ledger-ingestion-service/internal/report"
	"golang-ledger-ingestion-service/pkg/errors"
)

var (
	parseSourceDir    string
	parseDestDir      string
	parseOutputFormat string
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Standardize raw institution exports",
	Long: `Parse walks a raw export tree of <Institution>__<AccountID>
directories, parses each institution's CSV format, and writes the
standardized import layout: Accounts.csv plus one transaction file per
account and month.

Examples:
  ledgerctl parse --source-dir ./raw --dest-dir ./standardized
  ledgerctl parse -s ./raw -d ./standardized --output-format json`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&parseSourceDir, "source-dir", "s", "", "raw export directory (required)")
	parseCmd.Flags().StringVarP(&parseDestDir, "dest-dir", "d", "", "destination for the standardized layout (required)")
	parseCmd.Flags().StringVarP(&parseOutputFormat, "output-format", "f", "console", "output format: console, json")
	parseCmd.MarkFlagRequired("source-dir")
	parseCmd.MarkFlagRequired("dest-dir")
}

func runParse(cmd *cobra.Command, args []string) error {
	format := report.OutputFormat(parseOutputFormat)
	if !format.IsValid() {
		return errors.ValidationError(errors.CodeMissingField, "output-format", parseOutputFormat, nil).
			WithSuggestion("supported formats: console, json")
	}

	summary, err := ingest.ParseDirectory(cmd.Context(), parseSourceDir, parseDestDir)
	if err != nil {
		return err
	}

	return report.WriteParseSummary(cmd.OutOrStdout(), summary, format)
}
