// Package charts computes running-balance series over the ledger. Only the
// arithmetic lives here; rendering is out of scope.
package charts

import (
	"time"

	"github.com/shopspring/decimal"

	"golang-ledger-ingestion-service/internal/models"
)

// Point is one day of a balance series.
type Point struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// BalanceSeries prefix-sums daily transaction totals from from to to,
// inclusive, one point per day. Account initial amounts join the running
// sum on their start date, so a balance can swing negative before an
// account's opening balance lands and recover afterwards.
func BalanceSeries(initials, totalsByDate map[string]decimal.Decimal, from, to time.Time) []Point {
	from = models.DateOnly(from)
	to = models.DateOnly(to)

	var series []Point
	running := decimal.Zero

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(models.DateFormat)
		if initial, ok := initials[key]; ok {
			running = running.Add(initial)
		}
		if total, ok := totalsByDate[key]; ok {
			running = running.Add(total)
		}
		series = append(series, Point{Date: day, Value: running})
	}

	return series
}

// DailyTotals sums transaction amounts per date.
func DailyTotals(transactions []*models.Transaction) map[string]decimal.Decimal {
	totals := map[string]decimal.Decimal{}
	for _, trx := range transactions {
		key := trx.Date.Format(models.DateFormat)
		totals[key] = totals[key].Add(trx.Amount)
	}
	return totals
}

// InitialAmounts sums account initial amounts per start date. Two accounts
// opening the same day fold into one entry.
func InitialAmounts(accounts []*models.Account) map[string]decimal.Decimal {
	initials := map[string]decimal.Decimal{}
	for _, account := range accounts {
		key := account.DateStart.Format(models.DateFormat)
		initials[key] = initials[key].Add(account.AmountInitial)
	}
	return initials
}
