package parsers

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang-ledger-ingestion-service/internal/idgen"
	"golang-ledger-ingestion-service/internal/models"
	"golang-ledger-ingestion-service/pkg/errors"
	"golang-ledger-ingestion-service/pkg/logger"
)

// Patterns for TD Canada PDF statement text, as produced by layout-preserving
// text extraction. A transaction line carries an amount followed by a
// five-character month+day code (e.g. JAN01), optionally followed by a
// trailing running-balance amount. A statement-period header line carries
// the two-digit year that applies to all following date codes.
var (
	pdfTxLineRe   = regexp.MustCompile(`^.*\s[,0-9]+\.[0-9]{2}\s[A-Z]{3}[0-9]{2}(\s[,0-9]+\.[0-9]{2})?\s*$`)
	pdfPeriodRe   = regexp.MustCompile(`^[A-Z]{3}\s[0-9]{2}/[0-9]{2}\s-\s[A-Z]{3}\s[0-9]{2}/[0-9]{2}\s*$`)
	pdfMonthDayRe = regexp.MustCompile(`^[A-Z]{3}[0-9]{2}$`)

	// Raw identifiers are whatever precedes the date and amount tokens.
	pdfDateSplitRe   = regexp.MustCompile(`\s[A-Z]{3}[0-9]{2}`)
	pdfAmountSplitRe = regexp.MustCompile(`\s[,0-9]+\.[0-9]{2}`)

	pdfPeriodYearRe = regexp.MustCompile(`([0-9]{2})$`)
)

// TDCanadaPDFParser parses TD Canada PDF statement text into candidate
// transactions. The occurrence counter is caller-owned and scoped to one
// parsing run: statement descriptions repeat (two same-day transfers of
// identical wording are legitimate), so ids append a 0-based occurrence
// index to stay unique without losing determinism across re-parses.
type TDCanadaPDFParser struct {
	counter *idgen.OccurrenceCounter
	logger  logger.Logger
}

// NewTDCanadaPDFParser creates a PDF statement parser backed by the given
// occurrence counter.
func NewTDCanadaPDFParser(counter *idgen.OccurrenceCounter) *TDCanadaPDFParser {
	return &TDCanadaPDFParser{
		counter: counter,
		logger:  logger.GetGlobalLogger().WithComponent("td_pdf_parser"),
	}
}

// MatchesTransaction reports whether the line looks like a transaction.
func (p *TDCanadaPDFParser) MatchesTransaction(line string) bool {
	return pdfTxLineRe.MatchString(line)
}

// MatchesPeriodHeader reports whether the line is a statement-period
// header.
func (p *TDCanadaPDFParser) MatchesPeriodHeader(line string) bool {
	return pdfPeriodRe.MatchString(line)
}

// ParseFile extracts the PDF's text and parses it.
func (p *TDCanadaPDFParser) ParseFile(path string) ([]*models.ParsedTransaction, *Stats, error) {
	text, err := ExtractPDFText(path)
	if err != nil {
		return nil, nil, err
	}
	return p.ParseText(strings.NewReader(text), path)
}

// ParseText walks statement text line by line in original order. The
// statement year is carried as parsing context: a period header sets it
// and it applies to every following transaction line until superseded.
// Lines matching neither pattern are non-data (running headers, footers,
// whitespace) and are skipped but counted, so a malformed real transaction
// at least shows up in the audit numbers.
func (p *TDCanadaPDFParser) ParseText(r io.Reader, file string) ([]*models.ParsedTransaction, *Stats, error) {
	stats := &Stats{}
	year := 0

	var parsed []*models.ParsedTransaction

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lineNo++
		stats.LinesSeen++

		switch {
		case p.MatchesTransaction(line):
			if year == 0 {
				return nil, nil, errors.RowError(errors.CodeInvalidFormat, file, lineNo, "line", line,
					fmt.Errorf("transaction line before any statement period header"))
			}
			candidate, err := p.parseTransactionLine(line, year, file, lineNo)
			if err != nil {
				return nil, nil, err
			}
			stats.LinesMatched++
			parsed = append(parsed, candidate)
		case p.MatchesPeriodHeader(line):
			y, err := parsePeriodYear(line)
			if err != nil {
				return nil, nil, errors.RowError(errors.CodeInvalidFormat, file, lineNo, "line", line, err)
			}
			year = y
			stats.PeriodHeaders++
		default:
			stats.LinesSkipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryParse, errors.CodeInvalidFormat,
			fmt.Sprintf("reading statement text from %s", file))
	}

	p.logger.WithFields(logger.Fields{
		"file":    file,
		"matched": stats.LinesMatched,
		"skipped": stats.LinesSkipped,
	}).Debug("Parsed statement text")

	return parsed, stats, nil
}

// parseTransactionLine extracts date, amount and raw identifier from one
// matched line. When the line ends in a trailing balance amount, the
// transaction amount is the third-from-last field and the date code the
// second-from-last; otherwise amount is second-from-last and the date code
// is last.
func (p *TDCanadaPDFParser) parseTransactionLine(line string, year int, file string, lineNo int) (*models.ParsedTransaction, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, errors.RowError(errors.CodeInvalidFormat, file, lineNo, "line", line,
			fmt.Errorf("too few fields"))
	}

	var amountStr, dateToken string
	if pdfMonthDayRe.MatchString(fields[len(fields)-1]) {
		dateToken = fields[len(fields)-1]
		amountStr = fields[len(fields)-2]
	} else {
		dateToken = fields[len(fields)-2]
		amountStr = fields[len(fields)-3]
	}

	amount, err := models.ParseAmount(amountStr)
	if err != nil {
		return nil, errors.RowError(errors.CodeInvalidData, file, lineNo, "amount", amountStr, err)
	}

	date, err := parseMonthDayCode(dateToken, year)
	if err != nil {
		return nil, errors.RowError(errors.CodeInvalidData, file, lineNo, "date", dateToken, err)
	}

	head := pdfDateSplitRe.Split(line, 2)[0]
	rawID := strings.TrimSpace(pdfAmountSplitRe.Split(head, 2)[0])

	return &models.ParsedTransaction{
		Date:             date,
		TransactionIDRaw: rawID,
		TransactionID:    p.counter.Next(rawID, date),
		Amount:           amount,
		SourceRow:        lineNo,
		SourceFile:       file,
	}, nil
}

// parseMonthDayCode parses a five-character code such as JAN01 against the
// statement year.
func parseMonthDayCode(token string, year int) (time.Time, error) {
	if !pdfMonthDayRe.MatchString(token) {
		return time.Time{}, fmt.Errorf("invalid month-day code '%s'", token)
	}

	month := token[:1] + strings.ToLower(token[1:3])
	day := token[3:]

	date, err := time.Parse("2006Jan02", fmt.Sprintf("%d%s%s", year, month, day))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date code '%s' for year %d: %w", token, year, err)
	}
	return models.DateOnly(date), nil
}

// parsePeriodYear reads the trailing two digits of a statement-period
// header as a 20YY year.
func parsePeriodYear(line string) (int, error) {
	trimmed := strings.TrimSpace(line)
	match := pdfPeriodYearRe.FindStringSubmatch(trimmed)
	if match == nil {
		return 0, fmt.Errorf("no year in statement period line '%s'", trimmed)
	}

	yy, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, err
	}
	return 2000 + yy, nil
}
