package parsers

import (
	"strings"

	"golang-ledger-ingestion-service/internal/idgen"
	"golang-ledger-ingestion-service/internal/models"
	"golang-ledger-ingestion-service/pkg/errors"
	"golang-ledger-ingestion-service/pkg/logger"
)

// kohoCSVSchema is the column layout of a KOHO CSV export.
var kohoCSVSchema = Schema{Columns: []string{
	"Date Time",
	"Transaction",
	"Loads",
	"Withdrawal",
	"Balance",
	"Notes",
}}

// kohoNoValue is KOHO's sentinel for "no amount in this column". The
// export writes "0.00" rather than leaving the cell blank.
const kohoNoValue = "0.00"

// KOHOCSVParser parses KOHO CSV exports. Loads (credits) and Withdrawal
// (debits) are mutually exclusive: both carrying real values fails the
// row, and both carrying the sentinel means the row is a status-only
// event (card activation, declined charge) with no amount to record.
type KOHOCSVParser struct {
	logger logger.Logger
}

// NewKOHOCSVParser creates a KOHO CSV row parser.
func NewKOHOCSVParser() *KOHOCSVParser {
	return &KOHOCSVParser{
		logger: logger.GetGlobalLogger().WithComponent("koho_parser"),
	}
}

// Schema returns the expected column layout.
func (p *KOHOCSVParser) Schema() Schema {
	return kohoCSVSchema
}

// ParseRow converts one KOHO CSV row into a candidate transaction.
// Status-only rows return (nil, nil).
func (p *KOHOCSVParser) ParseRow(rec *Record) (*models.ParsedTransaction, error) {
	rawDateTime := rec.Get("Date Time")
	rawDate := strings.SplitN(rawDateTime, " ", 2)[0]
	date, err := models.ParseDate(rawDate)
	if err != nil {
		return nil, errors.RowError(errors.CodeInvalidData, rec.File, rec.Row, "Date Time", rawDateTime, err)
	}

	loads := strings.ReplaceAll(rec.Get("Loads"), ",", "")
	withdrawal := strings.ReplaceAll(rec.Get("Withdrawal"), ",", "")

	hasLoad := loads != "" && loads != kohoNoValue
	hasWithdrawal := withdrawal != "" && withdrawal != kohoNoValue

	rawID := rec.Get("Transaction")

	if hasLoad && hasWithdrawal {
		return nil, errors.RowError(errors.CodeMutuallyExclusive, rec.File, rec.Row,
			"Loads/Withdrawal", loads+"/"+withdrawal, nil)
	}

	if !hasLoad && !hasWithdrawal {
		p.logger.WithFields(logger.Fields{
			"file":        rec.File,
			"row":         rec.Row,
			"transaction": rawID,
		}).Info("Status-only row, no amount to record")
		return nil, nil
	}

	var amountStr string
	negate := false
	if hasLoad {
		amountStr = loads
	} else {
		amountStr = withdrawal
		negate = true
	}

	amount, err := models.ParseAmount(amountStr)
	if err != nil {
		return nil, errors.RowError(errors.CodeInvalidData, rec.File, rec.Row, "Loads/Withdrawal", amountStr, err)
	}
	if negate {
		amount = amount.Neg()
	}

	return &models.ParsedTransaction{
		Date:             models.DateOnly(date),
		TransactionIDRaw: rawID,
		TransactionID:    idgen.ContentHashID(rawID, rawDateTime, rec.Row),
		Amount:           amount,
		SourceRow:        rec.Row,
		SourceFile:       rec.File,
	}, nil
}
