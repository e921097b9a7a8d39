package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"golang-ledger-ingestion-service/internal/ingest"
	"golang-ledger-ingestion-service/internal/ledger"
	"golang-ledger-ingestion-service/internal/models"
	"golang-ledger-ingestion-service/pkg/errors"
)

var (
	pdfSource      string
	pdfInstitution string
	pdfAccountID   string
)

// importPDFCmd represents the import-pdf command
var importPDFCmd = &cobra.Command{
	Use:   "import-pdf",
	Short: "Import one PDF statement into the ledger",
	Long: `Import-pdf extracts the text of one PDF bank statement, parses its
transaction lines, and reconciles them into the ledger under the given
account. The account must already exist.

Examples:
  ledgerctl import-pdf --source statement.pdf --institution TDCanada --account chequing`,
	RunE: runImportPDF,
}

func init() {
	rootCmd.AddCommand(importPDFCmd)

	importPDFCmd.Flags().StringVarP(&pdfSource, "source", "s", "", "path to the PDF statement (required)")
	importPDFCmd.Flags().StringVarP(&pdfInstitution, "institution", "i", "", "issuing institution (required)")
	importPDFCmd.Flags().StringVarP(&pdfAccountID, "account", "a", "", "account natural id (required)")
	importPDFCmd.MarkFlagRequired("source")
	importPDFCmd.MarkFlagRequired("institution")
	importPDFCmd.MarkFlagRequired("account")
}

func runImportPDF(cmd *cobra.Command, args []string) error {
	institution, err := models.ParseInstitution(pdfInstitution)
	if err != nil {
		return errors.ReferenceError(errors.CodeUnknownInstitution, pdfInstitution)
	}

	store, err := ledger.Open(databasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	service := ingest.NewService(store)

	result, stats, err := service.ImportStatementPDF(cmd.Context(), pdfSource, institution, pdfAccountID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: created=%d updated=%d skipped_lines=%d\n",
		pdfSource, result.Created, result.Updated, stats.LinesSkipped)
	return nil
}
