// Package idgen synthesizes globally unique transaction identifiers for
// source rows that carry no unique key of their own.
//
// Two conventions exist, one per source format family, and each must stay
// stable across re-imports so that reconciliation can match prior inserts:
//
//   - occurrence ids ("{raw}:{date}:{n}") for PDF statement lines, where n
//     is the 0-based count of prior appearances of the raw identifier in
//     the current parsing run;
//   - content-hash ids ("{raw}-{md5(raw-date-row)[:10]}") for CSV exports,
//     where the row number inside the file disambiguates repeats.
package idgen

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// OccurrenceCounter disambiguates repeated raw identifiers within a single
// parsing run. It is owned by the caller and scoped to one run; two runs
// over the same file start from zero and therefore produce identical ids.
type OccurrenceCounter struct {
	counts map[string]int
}

// NewOccurrenceCounter creates an empty counter for one parsing run.
func NewOccurrenceCounter() *OccurrenceCounter {
	return &OccurrenceCounter{counts: make(map[string]int)}
}

// Next returns the synthesized id for the next occurrence of rawID on the
// given date and advances the counter. The first occurrence gets index 0.
func (c *OccurrenceCounter) Next(rawID string, date time.Time) string {
	n := c.counts[rawID]
	c.counts[rawID]++
	return fmt.Sprintf("%s:%s:%d", rawID, date.Format("2006-01-02"), n)
}

// Count returns the number of occurrences seen so far for rawID.
func (c *OccurrenceCounter) Count(rawID string) int {
	return c.counts[rawID]
}

// ContentHashID synthesizes an id from the raw identifier, the raw date
// string as it appeared in the source, and the row number within the file.
// Whitespace inside the raw identifier is removed first, matching the
// standardized CSV id convention.
func ContentHashID(rawID, rawDate string, rowNum int) string {
	cleaned := CleanRawID(rawID)
	sum := md5.Sum([]byte(fmt.Sprintf("%s-%s-%d", cleaned, rawDate, rowNum)))
	return fmt.Sprintf("%s-%s", cleaned, hex.EncodeToString(sum[:])[:10])
}

// CleanRawID strips surrounding and embedded whitespace from a raw
// institution identifier.
func CleanRawID(rawID string) string {
	return strings.ReplaceAll(strings.TrimSpace(rawID), " ", "")
}
