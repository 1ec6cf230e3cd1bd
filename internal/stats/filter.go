package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"paytrack/internal/core"
)

// TransactionFilter narrows a transaction listing. Zero fields match all.
// Unlike income totals, a listing keeps pending and failed records.
type TransactionFilter struct {
	Period core.TimePeriod
	Source core.PaymentSource
	Status core.TransactionStatus
	Search string
}

// FilterTransactions applies the filter and sorts date descending.
func FilterTransactions(txns []core.Transaction, f TransactionFilter, now time.Time) []core.Transaction {
	var from time.Time
	if f.Period.Valid() {
		from = f.Period.CurrentStart(now)
	}
	query := strings.ToLower(strings.TrimSpace(f.Search))

	var out []core.Transaction
	for _, tx := range txns {
		if !from.IsZero() && tx.Date.Before(from) {
			continue
		}
		if f.Source != "" && tx.Source != f.Source {
			continue
		}
		if f.Status != "" && tx.Status != f.Status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(tx.WorkerName), query) &&
			!strings.Contains(strings.ToLower(tx.Reference), query) {
			continue
		}
		out = append(out, tx)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// FilteredTotal sums the amounts of an already filtered listing.
func FilteredTotal(txns []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txns {
		total = total.Add(tx.Amount)
	}
	return total
}

// DayGroup is a listing section: all transactions of one calendar day.
type DayGroup struct {
	Key          string // "2006-01-02"
	Header       string // "Today", "Yesterday", or a formatted date
	Transactions []core.Transaction
}

// GroupByDay sections a date-descending listing into calendar days,
// newest day first.
func GroupByDay(txns []core.Transaction, now time.Time) []DayGroup {
	grouped := make(map[string][]core.Transaction)
	for _, tx := range txns {
		key := tx.Date.In(now.Location()).Format("2006-01-02")
		grouped[key] = append(grouped[key], tx)
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")

	groups := make([]DayGroup, 0, len(keys))
	for _, key := range keys {
		day := grouped[key]
		sort.SliceStable(day, func(i, j int) bool { return day[i].Date.After(day[j].Date) })

		header := key
		switch key {
		case today:
			header = "Today"
		case yesterday:
			header = "Yesterday"
		default:
			if t, err := time.ParseInLocation("2006-01-02", key, now.Location()); err == nil {
				header = t.Format("Mon, 2 Jan 2006")
			}
		}
		groups = append(groups, DayGroup{Key: key, Header: header, Transactions: day})
	}
	return groups
}

// WorkerSort orders a worker listing.
type WorkerSort string

const (
	SortByEarnings   WorkerSort = "earnings"
	SortByName       WorkerSort = "name"
	SortByDateJoined WorkerSort = "joined"
)

// FilterWorkers narrows and orders a worker listing by source, name search,
// and sort option.
func FilterWorkers(workers []core.Worker, source core.PaymentSource, search string, by WorkerSort) []core.Worker {
	query := strings.ToLower(strings.TrimSpace(search))

	var out []core.Worker
	for _, w := range workers {
		if source != "" && w.Source != source {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(w.Name), query) {
			continue
		}
		out = append(out, w)
	}

	switch by {
	case SortByName:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	case SortByDateJoined:
		sort.SliceStable(out, func(i, j int) bool { return out[i].JoinedDate.After(out[j].JoinedDate) })
	default:
		sort.SliceStable(out, func(i, j int) bool {
			if cmp := out[i].TotalEarnings.Cmp(out[j].TotalEarnings); cmp != 0 {
				return cmp > 0
			}
			return out[i].ID < out[j].ID
		})
	}
	return out
}

// WorkerStats summarizes one worker's completed transactions.
type WorkerStats struct {
	AveragePerTransaction decimal.Decimal
	HighestTransaction    decimal.Decimal
	TotalCount            int
	LastTransactionDate   time.Time
}

// StatsForWorker computes average, highest, count, and last transaction
// date over all of a worker's completed transactions.
func StatsForWorker(txns []core.Transaction, workerID int) WorkerStats {
	var stats WorkerStats
	total := decimal.Zero

	for _, tx := range txns {
		if tx.WorkerID != workerID || !tx.Completed() {
			continue
		}
		stats.TotalCount++
		total = total.Add(tx.Amount)
		if tx.Amount.GreaterThan(stats.HighestTransaction) {
			stats.HighestTransaction = tx.Amount
		}
		if tx.Date.After(stats.LastTransactionDate) {
			stats.LastTransactionDate = tx.Date
		}
	}
	if stats.TotalCount > 0 {
		stats.AveragePerTransaction = total.Div(decimal.NewFromInt(int64(stats.TotalCount))).Round(2)
	}
	return stats
}

// EarningsInPeriod sums one worker's completed in-period amounts.
func EarningsInPeriod(txns []core.Transaction, workerID int, period core.TimePeriod, now time.Time) decimal.Decimal {
	from := period.CurrentStart(now)
	total := decimal.Zero
	for _, tx := range txns {
		if tx.WorkerID != workerID || !inWindow(tx, from, now) {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total
}
