package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-ledger-ingestion-service/internal/ingest"
	"golang-ledger-ingestion-service/internal/ledger"
	"golang-ledger-ingestion-service/internal/report"
	"golang-ledger-ingestion-service/pkg/errors"
)

var (
	importSourceDir    string
	importChunkSize    int
	importOutputFormat string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a standardized directory into the ledger",
	Long: `Import validates a standardized directory, upserts its accounts,
and reconciles every transaction file into the ledger. The merge is keyed
on synthesized transaction ids, so importing the same directory twice
creates nothing the second time.

Examples:
  ledgerctl import --source-dir ./standardized
  ledgerctl import -s ./standardized --chunk-size 250 --output-format json`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importSourceDir, "source-dir", "s", "", "standardized import directory (required)")
	importCmd.Flags().IntVar(&importChunkSize, "chunk-size", ledger.DefaultChunkSize, "transactions merged per database transaction")
	importCmd.Flags().StringVarP(&importOutputFormat, "output-format", "f", "console", "output format: console, json")
	importCmd.MarkFlagRequired("source-dir")

	viper.BindPFlag("chunk_size", importCmd.Flags().Lookup("chunk-size"))
}

func runImport(cmd *cobra.Command, args []string) error {
	format := report.OutputFormat(importOutputFormat)
	if !format.IsValid() {
		return errors.ValidationError(errors.CodeMissingField, "output-format", importOutputFormat, nil).
			WithSuggestion("supported formats: console, json")
	}

	store, err := ledger.Open(databasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	service := ingest.NewService(store, ledger.WithChunkSize(viper.GetInt("chunk_size")))

	summary, err := service.ImportDirectory(cmd.Context(), importSourceDir)
	if err != nil {
		return err
	}

	return report.WriteImportSummary(cmd.OutOrStdout(), summary, format)
}
