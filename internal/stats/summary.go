// Package stats computes dashboard and worker aggregates from in-memory
// transaction collections. All functions are pure and synchronous: given the
// same transactions, period, and "now", they return the same result.
package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"paytrack/internal/core"
)

// DefaultTopWorkers is the ranking size shown on the dashboard.
const DefaultTopWorkers = 5

// WorkerTotal is one row of the period earnings ranking.
type WorkerTotal struct {
	WorkerID int
	Name     string
	Total    decimal.Decimal
}

// Summary holds the dashboard aggregates for one period.
type Summary struct {
	Period         core.TimePeriod
	TotalIncome    decimal.Decimal
	IncomeBySource map[core.PaymentSource]decimal.Decimal
	ChangeBySource map[core.PaymentSource]core.PercentChange
	TopWorkers     []WorkerTotal
	Chart          []ChartPoint
}

// Summarize computes the full dashboard summary from raw transactions.
// Only completed transactions inside the current window count toward income;
// the previous window of identical length feeds the percent-change values.
func Summarize(txns []core.Transaction, workers []core.Worker, period core.TimePeriod, now time.Time) Summary {
	curStart := period.CurrentStart(now)
	prevStart := period.PreviousStart(now)

	current := sumBySource(txns, curStart, now)
	previous := sumBySource(txns, prevStart, curStart)

	total := decimal.Zero
	changes := make(map[core.PaymentSource]core.PercentChange, len(current))
	for _, src := range core.Sources() {
		total = total.Add(current[src])
		changes[src] = core.ComputePercentChange(previous[src], current[src])
	}

	return Summary{
		Period:         period,
		TotalIncome:    total,
		IncomeBySource: current,
		ChangeBySource: changes,
		TopWorkers:     TopWorkers(txns, workers, period, now, DefaultTopWorkers),
		Chart:          ChartSeries(txns, period, now),
	}
}

// TopWorkers ranks workers by completed in-period earnings, descending.
// Ties break by worker id ascending so the ranking is deterministic.
func TopWorkers(txns []core.Transaction, workers []core.Worker, period core.TimePeriod, now time.Time, n int) []WorkerTotal {
	if n <= 0 {
		return nil
	}
	curStart := period.CurrentStart(now)

	totals := make(map[int]decimal.Decimal)
	for _, tx := range txns {
		if !inWindow(tx, curStart, now) {
			continue
		}
		totals[tx.WorkerID] = totals[tx.WorkerID].Add(tx.Amount)
	}
	if len(totals) == 0 {
		return nil
	}

	names := make(map[int]string, len(workers))
	for _, w := range workers {
		names[w.ID] = w.Name
	}
	// Fall back to the name carried on the transaction when the worker
	// record is not in the collection.
	for _, tx := range txns {
		if _, ok := names[tx.WorkerID]; !ok {
			names[tx.WorkerID] = tx.WorkerName
		}
	}

	ranked := make([]WorkerTotal, 0, len(totals))
	for id, total := range totals {
		ranked = append(ranked, WorkerTotal{WorkerID: id, Name: names[id], Total: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if cmp := ranked[i].Total.Cmp(ranked[j].Total); cmp != 0 {
			return cmp > 0
		}
		return ranked[i].WorkerID < ranked[j].WorkerID
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// sumBySource sums completed transaction amounts per source over [from, to).
// Every source is present in the result, zero when inactive.
func sumBySource(txns []core.Transaction, from, to time.Time) map[core.PaymentSource]decimal.Decimal {
	sums := make(map[core.PaymentSource]decimal.Decimal, 2)
	for _, src := range core.Sources() {
		sums[src] = decimal.Zero
	}
	for _, tx := range txns {
		if !inWindow(tx, from, to) {
			continue
		}
		sums[tx.Source] = sums[tx.Source].Add(tx.Amount)
	}
	return sums
}

func inWindow(tx core.Transaction, from, to time.Time) bool {
	if !tx.Completed() {
		return false
	}
	return !tx.Date.Before(from) && tx.Date.Before(to)
}
