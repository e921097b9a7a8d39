package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"golang-ledger-ingestion-service/internal/validators"
)

var validateSourceDir string

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a standardized import directory",
	Long: `Validate runs the pre-flight checks against a standardized import
directory without touching the ledger: the directory layout, the account
file's headers and values, and the transaction file naming scheme.

Examples:
  ledgerctl validate --source-dir ./standardized`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateSourceDir, "source-dir", "s", "", "standardized import directory (required)")
	validateCmd.MarkFlagRequired("source-dir")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := validators.ValidateImportDir(validateSourceDir); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", validateSourceDir)
	return nil
}
