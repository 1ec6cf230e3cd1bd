package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"paytrack/internal/api"
	applog "paytrack/internal/log"
)

// Payment status values used by the backend.
const (
	StatusPaid        = "paid"
	StatusOutstanding = "outstanding"
)

const paymentDateLayout = "2006-01-02"

// Gateway is the slice of the backend the payments service needs.
type Gateway interface {
	DailyPayments(ctx context.Context, workerID, days int) (api.DailyPaymentsResponse, error)
	BiweeklyPayments(ctx context.Context, workerID, count int) (api.BiweeklyPaymentsResponse, error)
	MarkPaymentPaid(ctx context.Context, workerID int, req api.MarkPaidRequest) (api.MarkPaidResponse, error)
}

// Ledger is the locally held payment state for one worker.
type Ledger struct {
	WorkerID        int
	Daily           []api.DailyPaymentDTO
	Biweekly        []api.BiweeklyPaymentDTO
	DailySummary    api.DailyPaymentSummary
	BiweeklySummary api.BiweeklySummary
}

// Service loads and mutates payment ledgers. Mutations are optimistic;
// screens observing the ledger see the flip before the backend confirms.
type Service struct {
	gateway Gateway
	logger  *applog.Logger

	mu      sync.Mutex
	ledgers map[int]*Ledger
}

func NewService(gateway Gateway, logger *applog.Logger) *Service {
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentPayments})
	}
	return &Service{
		gateway: gateway,
		logger:  logger,
		ledgers: make(map[int]*Ledger),
	}
}

// Load fetches both payment views for a worker and replaces the local
// ledger.
func (s *Service) Load(ctx context.Context, workerID, days, periods int) (Ledger, error) {
	daily, err := s.gateway.DailyPayments(ctx, workerID, days)
	if err != nil {
		return Ledger{}, fmt.Errorf("load daily payments: %w", err)
	}
	biweekly, err := s.gateway.BiweeklyPayments(ctx, workerID, periods)
	if err != nil {
		return Ledger{}, fmt.Errorf("load biweekly payments: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[workerID] = &Ledger{
		WorkerID:        workerID,
		Daily:           daily.Payments,
		Biweekly:        biweekly.Periods,
		DailySummary:    daily.Summary,
		BiweeklySummary: biweekly.Summary,
	}
	return s.snapshotLocked(workerID), nil
}

// Ledger returns a copy of the current local state for a worker.
func (s *Service) Ledger(workerID int) (Ledger, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledgers[workerID]; !ok {
		return Ledger{}, false
	}
	return s.snapshotLocked(workerID), true
}

// ToggleDaily flips one daily record between paid and outstanding. Daily
// toggles never touch the biweekly rollup.
func (s *Service) ToggleDaily(ctx context.Context, workerID, paymentID int) error {
	s.mu.Lock()
	ledger, ok := s.ledgers[workerID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("worker %d: ledger not loaded", workerID)
	}

	idx := -1
	for i := range ledger.Daily {
		if ledger.Daily[i].ID == paymentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("worker %d: daily payment %d not found", workerID, paymentID)
	}

	previous := ledger.Daily[idx].PaymentStatus
	next := toggled(previous)
	s.mu.Unlock()

	cmd := Command{
		Name: applog.OpMarkPaid,
		Apply: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			ledger.Daily[idx].PaymentStatus = next
			s.recalcDailyLocked(ledger)
		},
		Rollback: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			ledger.Daily[idx].PaymentStatus = previous
			s.recalcDailyLocked(ledger)
		},
	}

	return Run(ctx, s.logger, cmd, func(ctx context.Context) error {
		_, err := s.gateway.MarkPaymentPaid(ctx, workerID, api.MarkPaidRequest{
			PaymentType: "daily",
			PaymentID:   paymentID,
			Status:      next,
		})
		return err
	})
}

// ToggleBiweekly flips one biweekly period. Marking a period paid cascades
// to the daily records inside it once the backend confirms; flipping back
// to outstanding never cascades.
func (s *Service) ToggleBiweekly(ctx context.Context, workerID, periodID int) error {
	s.mu.Lock()
	ledger, ok := s.ledgers[workerID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("worker %d: ledger not loaded", workerID)
	}

	idx := -1
	for i := range ledger.Biweekly {
		if ledger.Biweekly[i].ID == periodID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("worker %d: biweekly period %d not found", workerID, periodID)
	}

	previous := ledger.Biweekly[idx].PaymentStatus
	next := toggled(previous)
	period := ledger.Biweekly[idx]
	s.mu.Unlock()

	cmd := Command{
		Name: applog.OpMarkPaid,
		Apply: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			ledger.Biweekly[idx].PaymentStatus = next
			s.recalcBiweeklyLocked(ledger)
		},
		Rollback: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			ledger.Biweekly[idx].PaymentStatus = previous
			s.recalcBiweeklyLocked(ledger)
		},
	}

	err := Run(ctx, s.logger, cmd, func(ctx context.Context) error {
		_, err := s.gateway.MarkPaymentPaid(ctx, workerID, api.MarkPaidRequest{
			PaymentType: "biweekly",
			PaymentID:   periodID,
			Status:      next,
			Cascade:     next == StatusPaid,
		})
		return err
	})
	if err != nil {
		return err
	}

	if next == StatusPaid {
		s.mu.Lock()
		s.cascadeDailyLocked(ledger, period)
		s.mu.Unlock()
	}
	return nil
}

// cascadeDailyLocked marks the daily records inside a confirmed-paid
// period as paid. Callers hold s.mu.
func (s *Service) cascadeDailyLocked(ledger *Ledger, period api.BiweeklyPaymentDTO) {
	start, errStart := time.Parse(paymentDateLayout, period.PeriodStart)
	end, errEnd := time.Parse(paymentDateLayout, period.PeriodEnd)
	if errStart != nil || errEnd != nil {
		s.logger.Warn("unparseable period bounds, skipping cascade",
			applog.FieldWorkerID, ledger.WorkerID,
			"period_start", period.PeriodStart,
			"period_end", period.PeriodEnd)
		return
	}

	updated := 0
	for i := range ledger.Daily {
		day, err := time.Parse(paymentDateLayout, ledger.Daily[i].Date)
		if err != nil {
			continue
		}
		if day.Before(start) || day.After(end) {
			continue
		}
		if ledger.Daily[i].PaymentStatus != StatusPaid {
			ledger.Daily[i].PaymentStatus = StatusPaid
			updated++
		}
	}
	if updated > 0 {
		s.recalcDailyLocked(ledger)
		s.logger.Debug("cascaded paid status to daily records",
			applog.FieldWorkerID, ledger.WorkerID, "updated", updated)
	}
}

func (s *Service) recalcDailyLocked(ledger *Ledger) {
	outstanding, paid := decimal.Zero, decimal.Zero
	active := 0
	for _, p := range ledger.Daily {
		if p.TransactionCount > 0 {
			active++
		}
		if p.PaymentStatus == StatusPaid {
			paid = paid.Add(p.TotalPayment)
		} else {
			outstanding = outstanding.Add(p.TotalPayment)
		}
	}
	ledger.DailySummary = api.DailyPaymentSummary{
		TotalOutstanding: outstanding,
		TotalPaid:        paid,
		DaysWithActivity: active,
	}
}

func (s *Service) recalcBiweeklyLocked(ledger *Ledger) {
	outstanding, paid := decimal.Zero, decimal.Zero
	for _, p := range ledger.Biweekly {
		if p.PaymentStatus == StatusPaid {
			paid = paid.Add(p.TotalPayment)
		} else {
			outstanding = outstanding.Add(p.TotalPayment)
		}
	}
	ledger.BiweeklySummary = api.BiweeklySummary{
		TotalOutstanding: outstanding,
		TotalPaid:        paid,
	}
}

func (s *Service) snapshotLocked(workerID int) Ledger {
	src := s.ledgers[workerID]
	out := Ledger{
		WorkerID:        src.WorkerID,
		Daily:           append([]api.DailyPaymentDTO(nil), src.Daily...),
		Biweekly:        append([]api.BiweeklyPaymentDTO(nil), src.Biweekly...),
		DailySummary:    src.DailySummary,
		BiweeklySummary: src.BiweeklySummary,
	}
	return out
}

func toggled(status string) string {
	if status == StatusPaid {
		return StatusOutstanding
	}
	return StatusPaid
}
