package parsers

import (
	"golang-ledger-ingestion-service/internal/idgen"
	"golang-ledger-ingestion-service/internal/models"
	"golang-ledger-ingestion-service/pkg/errors"
	"golang-ledger-ingestion-service/pkg/logger"
)

// TransactionRowParser converts one raw CSV record into a candidate
// transaction. Returning (nil, nil) means the row was a recognized
// status-only event and carries no amount; it is counted as skipped.
type TransactionRowParser interface {
	Schema() Schema
	ParseRow(rec *Record) (*models.ParsedTransaction, error)
}

// NewInstitutionParser resolves an institution to its CSV row parser. The
// dispatch is closed over the supported set and happens once, at the entry
// point into a parsing run.
func NewInstitutionParser(institution models.Institution) (TransactionRowParser, error) {
	switch institution {
	case models.InstitutionTDCanada:
		return NewTDCanadaCSVParser(), nil
	case models.InstitutionKOHO:
		return NewKOHOCSVParser(), nil
	default:
		return nil, errors.ReferenceError(errors.CodeUnknownInstitution, institution.String())
	}
}

// StatementParser parses a whole PDF statement into candidate transactions.
type StatementParser interface {
	ParseFile(path string) ([]*models.ParsedTransaction, *Stats, error)
}

// NewStatementParser resolves an institution to its PDF statement parser.
// The occurrence counter is owned by the caller and must be scoped to one
// parsing run.
func NewStatementParser(institution models.Institution, counter *idgen.OccurrenceCounter) (StatementParser, error) {
	switch institution {
	case models.InstitutionTDCanada:
		return NewTDCanadaPDFParser(counter), nil
	default:
		return nil, errors.ReferenceError(errors.CodeUnknownInstitution, institution.String())
	}
}

// ParseTransactionsFile walks one CSV export with the given row parser and
// collects candidate transactions in file order.
func ParseTransactionsFile(p TransactionRowParser, path string) ([]*models.ParsedTransaction, *Stats, error) {
	log := logger.GetGlobalLogger().WithComponent("parsers").WithField("file", path)
	log.Debug("Parsing transaction file")

	walker := NewCSVWalker(p.Schema())
	stats := &Stats{}

	var parsed []*models.ParsedTransaction
	err := walker.Walk(path, func(rec *Record) error {
		stats.LinesSeen++
		candidate, err := p.ParseRow(rec)
		if err != nil {
			return err
		}
		if candidate == nil {
			stats.LinesSkipped++
			return nil
		}
		stats.LinesMatched++
		parsed = append(parsed, candidate)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.WithFields(logger.Fields{
		"matched": stats.LinesMatched,
		"skipped": stats.LinesSkipped,
	}).Debug("Parsed transaction file")

	return parsed, stats, nil
}
