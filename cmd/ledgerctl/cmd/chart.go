package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"golang-ledger-ingestion-service/internal/charts"
	"golang-ledger-ingestion-service/internal/ledger"
	"golang-ledger-ingestion-service/internal/models"
	"golang-ledger-ingestion-service/internal/report"
	"golang-ledger-ingestion-service/pkg/errors"
)

var (
	chartAccounts     []string
	chartFrom         string
	chartTo           string
	chartOutputFormat string
)

// chartCmd represents the chart command
var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Compute a running-balance series",
	Long: `Chart prefix-sums daily transaction totals over a date window, one
point per day. Account initial amounts join the running sum on their start
date. With no window given, the window persisted by the last import is
used.

Examples:
  ledgerctl chart --from 2020-01-01 --to 2020-12-31
  ledgerctl chart --account chequing --account savings --output-format json`,
	RunE: runChart,
}

func init() {
	rootCmd.AddCommand(chartCmd)

	chartCmd.Flags().StringArrayVarP(&chartAccounts, "account", "a", nil, "account natural ids (default: all accounts)")
	chartCmd.Flags().StringVar(&chartFrom, "from", "", "window start (YYYY-MM-DD)")
	chartCmd.Flags().StringVar(&chartTo, "to", "", "window end (YYYY-MM-DD)")
	chartCmd.Flags().StringVarP(&chartOutputFormat, "output-format", "f", "console", "output format: console, json")
}

func runChart(cmd *cobra.Command, args []string) error {
	format := report.OutputFormat(chartOutputFormat)
	if !format.IsValid() {
		return errors.ValidationError(errors.CodeMissingField, "output-format", chartOutputFormat, nil).
			WithSuggestion("supported formats: console, json")
	}

	store, err := ledger.Open(databasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()

	from, to, err := chartWindow(ctx, store)
	if err != nil {
		return err
	}

	transactions, err := store.TransactionsBetween(ctx, chartAccounts, from, to)
	if err != nil {
		return err
	}

	accounts, err := store.ListAccounts(ctx)
	if err != nil {
		return err
	}
	if len(chartAccounts) > 0 {
		wanted := map[string]bool{}
		for _, accountID := range chartAccounts {
			wanted[accountID] = true
		}
		filtered := accounts[:0]
		for _, account := range accounts {
			if wanted[account.AccountID] {
				filtered = append(filtered, account)
			}
		}
		accounts = filtered
	}

	series := charts.BalanceSeries(
		charts.InitialAmounts(accounts),
		charts.DailyTotals(transactions),
		from, to,
	)

	return report.WriteBalanceSeries(cmd.OutOrStdout(), series, format)
}

// chartWindow resolves the date window from flags, falling back to the
// persisted chart config and then to the ledger's date bounds.
func chartWindow(ctx context.Context, store *ledger.Store) (time.Time, time.Time, error) {
	if chartFrom != "" && chartTo != "" {
		from, err := models.ParseDate(chartFrom)
		if err != nil {
			return time.Time{}, time.Time{}, errors.ValidationError(errors.CodeInvalidDate, "from", chartFrom, err)
		}
		to, err := models.ParseDate(chartTo)
		if err != nil {
			return time.Time{}, time.Time{}, errors.ValidationError(errors.CodeInvalidDate, "to", chartTo, err)
		}
		return from, to, nil
	}

	if cfg, ok, err := store.GetChartConfig(ctx); err != nil {
		return time.Time{}, time.Time{}, err
	} else if ok {
		return cfg.DateFrom, cfg.DateTo, nil
	}

	earliest, latest, ok, err := store.DateBounds(ctx)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !ok {
		return time.Time{}, time.Time{}, errors.New(errors.CategoryValidation, errors.CodeMissingField,
			"ledger holds no transactions and no date window was given").
			WithSuggestion("import transactions first or pass --from and --to")
	}
	return earliest, latest, nil
}
