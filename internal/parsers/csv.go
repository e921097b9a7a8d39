// Package parsers converts heterogeneous bank export formats into the
// canonical transaction schema.
//
// Each institution/format pair gets its own parser implementing a small
// shared contract: match a raw unit of input, parse it into a candidate
// record. A document walker streams units in file order and maintains any
// running context (the inferred statement year for PDFs, the row number
// for CSVs). Dispatch over institutions is closed: the entry point resolves
// an Institution value to a concrete parser exactly once.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang-ledger-ingestion-service/pkg/errors"
	"golang-ledger-ingestion-service/pkg/logger"
)

// Schema is an ordered column descriptor for a CSV format. The order is
// significant: values are bound to columns by position, so a header that
// names the right columns in the wrong order is a structural error, not
// something to silently realign.
type Schema struct {
	Columns []string
}

// Index returns the position of a column name, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// columnSet returns the column names as a set.
func (s Schema) columnSet() map[string]bool {
	set := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		set[c] = true
	}
	return set
}

// Record is one raw CSV row bound to a schema, with source metadata.
// Values are whitespace-trimmed. Records are ephemeral: produced by the
// walker, consumed once by a row parser.
type Record struct {
	schema Schema
	values []string

	// Row is the 0-based row number within the file, counting the header
	// row if one was present. Ids derived from it are therefore stable
	// across re-parses of the same file.
	Row  int
	File string
}

// Get returns the trimmed value of the named column.
func (r *Record) Get(name string) string {
	i := r.schema.Index(name)
	if i == -1 || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

// CSVWalker streams rows from one CSV file in order, detecting and
// skipping a header row when present and failing fast when the header
// names the expected columns in a different order or shape.
type CSVWalker struct {
	schema Schema
	logger logger.Logger
}

// NewCSVWalker creates a walker for the given schema.
func NewCSVWalker(schema Schema) *CSVWalker {
	return &CSVWalker{
		schema: schema,
		logger: logger.GetGlobalLogger().WithComponent("csv_walker"),
	}
}

// Walk opens the file and calls fn for each data row in file order.
// A non-nil error from fn aborts the walk and is returned as-is: a
// malformed row fails the whole file rather than producing a partial
// batch.
func (w *CSVWalker) Walk(path string, fn func(rec *Record) error) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.StructuralError(errors.CodeFileMissing, path, path)
		}
		return errors.Wrap(err, errors.CategoryStructural, errors.CodeFileMissing,
			fmt.Sprintf("cannot open %s", path))
	}
	defer file.Close()

	return w.walk(file, path, fn)
}

func (w *CSVWalker) walk(r io.Reader, path string, fn func(rec *Record) error) error {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	log := w.logger.WithField("file", path)

	rowNum := 0
	first := true
	for {
		raw, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.RowError(errors.CodeInvalidFormat, path, rowNum, "row", "", err)
		}

		values := trimAll(raw)

		if first {
			first = false
			header, err := w.classifyFirstRow(path, values)
			if err != nil {
				return err
			}
			if header {
				log.Debug("First row is a header, skipping it")
				rowNum++
				continue
			}
		}

		if isEmptyRow(values) {
			rowNum++
			continue
		}

		rec := &Record{
			schema: w.schema,
			values: values,
			Row:    rowNum,
			File:   path,
		}
		if err := fn(rec); err != nil {
			return err
		}
		rowNum++
	}
}

// classifyFirstRow decides whether the first row is a header. An exact
// ordered match on the schema is a header; a row that names some expected
// columns but not in the expected shape is a schema mismatch; anything
// else is data (the file has no header).
func (w *CSVWalker) classifyFirstRow(path string, values []string) (bool, error) {
	if equalOrdered(values, w.schema.Columns) {
		return true, nil
	}

	expected := w.schema.columnSet()
	overlap := 0
	for _, v := range values {
		if expected[v] {
			overlap++
		}
	}
	if overlap > 0 {
		return false, errors.StructuralError(
			errors.CodeSchemaMismatch,
			path,
			fmt.Sprintf("header %v does not match expected columns %v", values, w.schema.Columns),
		)
	}

	return false, nil
}

func equalOrdered(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func trimAll(values []string) []string {
	trimmed := make([]string, len(values))
	for i, v := range values {
		trimmed[i] = strings.TrimSpace(v)
	}
	return trimmed
}

func isEmptyRow(values []string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}

// Stats summarizes one file parse. LinesSkipped is the audit signal for
// input the parser deliberately ignored (PDF headers, footers, whitespace);
// importers log it per file so silent data loss is at least visible.
type Stats struct {
	LinesSeen     int
	LinesMatched  int
	LinesSkipped  int
	PeriodHeaders int
}

// String returns a human-readable summary.
func (s *Stats) String() string {
	return fmt.Sprintf("seen %d lines, matched %d, skipped %d",
		s.LinesSeen, s.LinesMatched, s.LinesSkipped)
}
