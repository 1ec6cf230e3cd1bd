package stats

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"paytrack/internal/core"
)

var testNow = time.Date(2025, 2, 8, 15, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tx(worker int, amount string, status core.TransactionStatus, source core.PaymentSource, date time.Time) core.Transaction {
	return core.Transaction{
		ID:         amount + date.Format("150405") + source.String(),
		WorkerID:   worker,
		WorkerName: "Worker",
		Source:     source,
		Amount:     decimal.RequireFromString(amount),
		Date:       date,
		Status:     status,
		Reference:  "REF",
	}
}

func TestSummarize_PendingExcluded(t *testing.T) {
	yesterday := testNow.Add(-12 * time.Hour)
	txns := []core.Transaction{
		tx(1, "100.00", core.StatusCompleted, core.SourcePaysafe, yesterday),
		tx(1, "50.00", core.StatusPending, core.SourcePaysafe, yesterday),
	}

	s := Summarize(txns, nil, core.PeriodDaily, testNow)

	if got := s.TotalIncome.String(); got != "100" {
		t.Errorf("TotalIncome = %s, want 100 (pending excluded)", got)
	}
	if got := s.IncomeBySource[core.SourcePaysafe].String(); got != "100" {
		t.Errorf("paysafe income = %s, want 100", got)
	}
	if got := s.IncomeBySource[core.SourcePaypal].String(); got != "0" {
		t.Errorf("paypal income = %s, want 0", got)
	}
}

func TestSummarize_TotalMatchesSourceSum(t *testing.T) {
	txns := []core.Transaction{
		tx(1, "10.50", core.StatusCompleted, core.SourcePaysafe, testNow.AddDate(0, 0, -2)),
		tx(2, "4.25", core.StatusCompleted, core.SourcePaypal, testNow.AddDate(0, 0, -3)),
		tx(3, "0.10", core.StatusCompleted, core.SourcePaypal, testNow.AddDate(0, 0, -1)),
		tx(3, "99.99", core.StatusFailed, core.SourcePaysafe, testNow.AddDate(0, 0, -1)),
	}

	s := Summarize(txns, nil, core.PeriodWeekly, testNow)

	sum := decimal.Zero
	for _, v := range s.IncomeBySource {
		sum = sum.Add(v)
	}
	if !s.TotalIncome.Equal(sum) {
		t.Errorf("TotalIncome %s != sum of sources %s", s.TotalIncome, sum)
	}
	if got := s.TotalIncome.String(); got != "14.85" {
		t.Errorf("TotalIncome = %s, want 14.85", got)
	}
}

func TestSummarize_PercentChange(t *testing.T) {
	// Previous week: 100 paysafe. Current week: 150 paysafe, 200 paypal
	// (paypal had no prior activity).
	txns := []core.Transaction{
		tx(1, "100", core.StatusCompleted, core.SourcePaysafe, testNow.AddDate(0, 0, -10)),
		tx(1, "150", core.StatusCompleted, core.SourcePaysafe, testNow.AddDate(0, 0, -2)),
		tx(2, "200", core.StatusCompleted, core.SourcePaypal, testNow.AddDate(0, 0, -2)),
	}

	s := Summarize(txns, nil, core.PeriodWeekly, testNow)

	v, ok := s.ChangeBySource[core.SourcePaysafe].Value()
	if !ok || v != 50 {
		t.Errorf("paysafe change = %v (present=%v), want +50", v, ok)
	}
	if !s.ChangeBySource[core.SourcePaypal].NoActivity() {
		t.Error("paypal change must be the no-activity marker, not a number")
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, nil, core.PeriodMonthly, testNow)

	if !s.TotalIncome.IsZero() {
		t.Errorf("TotalIncome = %s, want 0", s.TotalIncome)
	}
	if len(s.TopWorkers) != 0 {
		t.Errorf("TopWorkers = %v, want empty", s.TopWorkers)
	}
	// The chart stays zero-filled across the whole span for axis stability.
	if len(s.Chart) == 0 {
		t.Fatal("empty period must still produce zero-filled chart buckets")
	}
	for _, p := range s.Chart {
		if !p.Total().IsZero() {
			t.Errorf("bucket %s total = %s, want 0", p.Label, p.Total())
		}
	}
}

func TestTopWorkers_OrderAndTies(t *testing.T) {
	day := testNow.Add(-6 * time.Hour)
	txns := []core.Transaction{
		tx(3, "50", core.StatusCompleted, core.SourcePaysafe, day),
		tx(1, "50", core.StatusCompleted, core.SourcePaypal, day),
		tx(2, "75", core.StatusCompleted, core.SourcePaysafe, day),
		tx(2, "25", core.StatusCompleted, core.SourcePaysafe, day),
		tx(4, "10", core.StatusPending, core.SourcePaypal, day),
	}
	workers := []core.Worker{
		{ID: 1, Name: "Anna"},
		{ID: 2, Name: "Berta"},
		{ID: 3, Name: "Carl"},
	}

	got := TopWorkers(txns, workers, core.PeriodDaily, testNow, 10)

	wantIDs := []int{2, 1, 3} // 100, then 50/50 tie broken by id asc
	if len(got) != len(wantIDs) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(wantIDs), got)
	}
	for i, id := range wantIDs {
		if got[i].WorkerID != id {
			t.Errorf("rank %d = worker %d, want %d", i, got[i].WorkerID, id)
		}
	}
	if got[0].Name != "Berta" || got[0].Total.String() != "100" {
		t.Errorf("rank 0 = %+v, want Berta/100", got[0])
	}

	// Determinism: identical input yields identical ordering.
	again := TopWorkers(txns, workers, core.PeriodDaily, testNow, 10)
	for i := range got {
		if got[i].WorkerID != again[i].WorkerID || !got[i].Total.Equal(again[i].Total) {
			t.Fatalf("non-deterministic ranking: %v vs %v", got, again)
		}
	}
}

func TestTopWorkers_TruncatesToN(t *testing.T) {
	day := testNow.Add(-2 * time.Hour)
	txns := []core.Transaction{
		tx(1, "10", core.StatusCompleted, core.SourcePaysafe, day),
		tx(2, "20", core.StatusCompleted, core.SourcePaysafe, day),
		tx(3, "30", core.StatusCompleted, core.SourcePaysafe, day),
	}

	got := TopWorkers(txns, nil, core.PeriodDaily, testNow, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].WorkerID != 3 || got[1].WorkerID != 2 {
		t.Errorf("order = %v, want workers 3 then 2", got)
	}
}
