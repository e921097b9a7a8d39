package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"golang-ledger-ingestion-service/pkg/errors"
	"golang-ledger-ingestion-service/pkg/logger"
)

// HandleError prints a user-facing rendering of the error and returns the
// process exit code mapped from the error taxonomy.
func HandleError(err error) int {
	if err == nil {
		return 0
	}

	logger.GetGlobalLogger().WithComponent("cli").WithError(err).Error("Command failed")

	ledgerErr, ok := errors.AsLedgerError(err)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(os.Stderr, "Error: %s\n", ledgerErr.Message)

	if len(ledgerErr.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range ledgerErr.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if ledgerErr.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", ledgerErr.Suggestion)
	}

	if viper.GetBool("verbose") && ledgerErr.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", ledgerErr.Cause)
	}

	return ledgerErr.GetExitCode()
}
