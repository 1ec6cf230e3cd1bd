package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"paytrack/internal/core"
)

// ChartPoint is one time bucket of the income chart, with per-source sums.
type ChartPoint struct {
	Label    string
	Start    time.Time
	BySource map[core.PaymentSource]decimal.Decimal
}

// Total sums the point across sources.
func (p ChartPoint) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range p.BySource {
		total = total.Add(v)
	}
	return total
}

// ChartSeries buckets completed in-period transactions by the period's
// granularity and returns one point per bucket, sorted ascending. Buckets
// without transactions are zero-filled so chart axes stay evenly spaced,
// including the case where the whole period is empty.
func ChartSeries(txns []core.Transaction, period core.TimePeriod, now time.Time) []ChartPoint {
	g := period.Granularity()
	curStart := period.CurrentStart(now)

	// Keyed by unix seconds so transactions carrying different locations
	// still land in the same bucket.
	sums := make(map[int64]map[core.PaymentSource]decimal.Decimal)
	for _, tx := range txns {
		if !inWindow(tx, curStart, now) {
			continue
		}
		start := g.BucketStart(tx.Date.In(now.Location()))
		bucket, ok := sums[start.Unix()]
		if !ok {
			bucket = newBucket()
			sums[start.Unix()] = bucket
		}
		bucket[tx.Source] = bucket[tx.Source].Add(tx.Amount)
	}

	var series []ChartPoint
	for start := g.BucketStart(curStart); !start.After(now); start = g.Next(start) {
		bucket, ok := sums[start.Unix()]
		if !ok {
			bucket = newBucket()
		}
		series = append(series, ChartPoint{
			Label:    g.Label(start),
			Start:    start,
			BySource: bucket,
		})
	}
	return series
}

// Sparkline returns the trailing n bucket sums for a single source, oldest
// first. Shorter series are returned as-is.
func Sparkline(txns []core.Transaction, period core.TimePeriod, now time.Time, source core.PaymentSource, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	series := ChartSeries(txns, period, now)
	if len(series) > n {
		series = series[len(series)-n:]
	}
	out := make([]decimal.Decimal, len(series))
	for i, p := range series {
		out[i] = p.BySource[source]
	}
	return out
}

// WorkerSeries buckets one worker's completed in-period transactions for the
// per-worker earnings chart. Same bucketing and zero-fill rules as
// ChartSeries, restricted to a single worker.
func WorkerSeries(txns []core.Transaction, workerID int, period core.TimePeriod, now time.Time) []ChartPoint {
	var own []core.Transaction
	for _, tx := range txns {
		if tx.WorkerID == workerID {
			own = append(own, tx)
		}
	}
	return ChartSeries(own, period, now)
}

func newBucket() map[core.PaymentSource]decimal.Decimal {
	bucket := make(map[core.PaymentSource]decimal.Decimal, 2)
	for _, src := range core.Sources() {
		bucket[src] = decimal.Zero
	}
	return bucket
}
