package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"golang-ledger-ingestion-service/internal/ledger"
	"golang-ledger-ingestion-service/internal/parsers"
	"golang-ledger-ingestion-service/pkg/errors"
)

var vendorMappingFile string

// vendorMappingSchema is the CSV layout of a vendor mapping file.
var vendorMappingSchema = parsers.Schema{Columns: []string{
	"TransactionIDRaw",
	"VendorID",
}}

// mapVendorsCmd represents the map-vendors command
var mapVendorsCmd = &cobra.Command{
	Use:   "map-vendors",
	Short: "Apply a vendor mapping to ledger transactions",
	Long: `Map-vendors reads a CSV of raw transaction id to vendor id pairs and
stamps every matching ledger transaction. The mapping is persisted, so it
also applies to transactions imported later.

Examples:
  ledgerctl map-vendors --mapping-file vendors.csv`,
	RunE: runMapVendors,
}

func init() {
	rootCmd.AddCommand(mapVendorsCmd)

	mapVendorsCmd.Flags().StringVarP(&vendorMappingFile, "mapping-file", "m", "", "CSV of TransactionIDRaw,VendorID pairs (required)")
	mapVendorsCmd.MarkFlagRequired("mapping-file")
}

func runMapVendors(cmd *cobra.Command, args []string) error {
	vendorByRawID := map[string]string{}

	walker := parsers.NewCSVWalker(vendorMappingSchema)
	err := walker.Walk(vendorMappingFile, func(rec *parsers.Record) error {
		rawID := rec.Get("TransactionIDRaw")
		vendorID := rec.Get("VendorID")
		if rawID == "" || vendorID == "" {
			return errors.RowError(errors.CodeInvalidData, rec.File, rec.Row, "VendorID", vendorID,
				fmt.Errorf("both columns are required"))
		}
		vendorByRawID[rawID] = vendorID
		return nil
	})
	if err != nil {
		return err
	}

	store, err := ledger.Open(databasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	stamped, err := store.ApplyVendorMap(cmd.Context(), vendorByRawID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d mappings, stamped %d transactions\n",
		len(vendorByRawID), stamped)
	return nil
}
