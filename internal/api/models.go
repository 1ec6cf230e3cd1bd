package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"paytrack/internal/core"
)

// Server timestamps are ISO-8601 without zone, interpreted as UTC.
const apiTimeLayout = "2006-01-02 15:04:05"

// ChangeValue carries the server's polymorphic percent-change field:
// a JSON number, the "no_activity" sentinel string, or null. Decoding
// preserves the tri-state; it never collapses to 0.
type ChangeValue struct {
	change core.PercentChange
}

func (c ChangeValue) PercentChange() core.PercentChange { return c.change }

func (c *ChangeValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		c.change = core.PercentChange{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != "no_activity" {
			return fmt.Errorf("unexpected percent-change sentinel %q", s)
		}
		c.change = core.PercentChangeNoActivity()
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("percent-change: %w", err)
	}
	c.change = core.PercentChangeOf(v)
	return nil
}

func (c ChangeValue) MarshalJSON() ([]byte, error) {
	if v, ok := c.change.Value(); ok {
		return json.Marshal(v)
	}
	if c.change.NoActivity() {
		return json.Marshal("no_activity")
	}
	return []byte("null"), nil
}

// DashboardResponse is the server-side dashboard aggregate.
type DashboardResponse struct {
	TotalIncome        decimal.Decimal  `json:"total_income"`
	PaysafeIncome      decimal.Decimal  `json:"paysafe_income"`
	PaypalIncome       decimal.Decimal  `json:"paypal_income"`
	PaysafeChange      ChangeValue      `json:"paysafe_change"`
	PaypalChange       ChangeValue      `json:"paypal_change"`
	ChartData          []ChartPointDTO  `json:"chart_data"`
	TopWorkers         []TopWorkerDTO   `json:"top_workers"`
	RecentTransactions []TransactionDTO `json:"recent_transactions"`
	PaysafeSparkline   []float64        `json:"paysafe_sparkline"`
	PaypalSparkline    []float64        `json:"paypal_sparkline"`
	Period             string           `json:"period"`
}

type ChartPointDTO struct {
	Label   string          `json:"label"`
	Date    string          `json:"date"`
	Paysafe decimal.Decimal `json:"paysafe"`
	Paypal  decimal.Decimal `json:"paypal"`
}

type TopWorkerDTO struct {
	WorkerID   int             `json:"worker_id"`
	WorkerName string          `json:"worker_name"`
	Total      decimal.Decimal `json:"total"`
}

// TransactionsResponse is one page of the transaction listing.
type TransactionsResponse struct {
	Transactions []TransactionDTO `json:"transactions"`
	Page         int              `json:"page"`
	TotalPages   int              `json:"total_pages"`
	TotalCount   int              `json:"total_count"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
}

type TransactionDTO struct {
	ID                 string          `json:"id"`
	WorkerID           int             `json:"worker_id"`
	WorkerName         string          `json:"worker_name"`
	Source             string          `json:"source"`
	Amount             decimal.Decimal `json:"amount"`
	Date               string          `json:"date"`
	Status             string          `json:"status"`
	Reference          string          `json:"reference"`
	HasScreenshot      bool            `json:"has_screenshot"`
	ScreenshotFilename string          `json:"screenshot_filename,omitempty"`
}

// Transaction maps the wire record into the domain model. Unrecognized
// source or status strings fall back to the defaults the backend uses.
// An unparsable date stays the zero time, which sits outside every
// trailing window, so a malformed record can never count toward the
// current period's income.
func (d TransactionDTO) Transaction() core.Transaction {
	source, err := core.ParseSource(d.Source)
	if err != nil {
		source = core.SourcePaysafe
	}
	status, err := core.ParseStatus(d.Status)
	if err != nil {
		status = core.StatusCompleted
	}
	date, err := time.Parse(apiTimeLayout, d.Date)
	if err != nil {
		date = time.Time{}
	}
	return core.Transaction{
		ID:                 d.ID,
		WorkerID:           d.WorkerID,
		WorkerName:         d.WorkerName,
		Source:             source,
		Amount:             d.Amount,
		Date:               date,
		Status:             status,
		Reference:          d.Reference,
		HasScreenshot:      d.HasScreenshot,
		ScreenshotFilename: d.ScreenshotFilename,
	}
}

// TransactionToDTO converts a domain transaction back to the wire shape,
// used for optimistic local inserts echoed into the cache.
func TransactionToDTO(t core.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:                 t.ID,
		WorkerID:           t.WorkerID,
		WorkerName:         t.WorkerName,
		Source:             t.Source.String(),
		Amount:             t.Amount,
		Date:               t.Date.UTC().Format(apiTimeLayout),
		Status:             t.Status.String(),
		Reference:          t.Reference,
		HasScreenshot:      t.HasScreenshot,
		ScreenshotFilename: t.ScreenshotFilename,
	}
}

type NewTransactionsResponse struct {
	Transactions []TransactionDTO `json:"transactions"`
	Count        int              `json:"count"`
	PolledAt     string           `json:"polled_at"`
}

type WorkersResponse struct {
	Workers []WorkerDTO `json:"workers"`
}

type WorkerDTO struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Username      string          `json:"username"`
	Source        string          `json:"source"`
	IsActive      bool            `json:"is_active"`
	JoinedDate    string          `json:"joined_date"`
	DailyHours    *float64        `json:"daily_hours"`
	HourlyRate    *float64        `json:"hourly_rate"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
}

func (d WorkerDTO) Worker() core.Worker {
	source, err := core.ParseSource(d.Source)
	if err != nil {
		source = core.SourcePaysafe
	}
	joined, err := time.Parse(apiTimeLayout, d.JoinedDate)
	if err != nil {
		joined = time.Time{}
	}
	return core.Worker{
		ID:            d.ID,
		Name:          d.Name,
		Username:      d.Username,
		Source:        source,
		TotalEarnings: d.TotalEarnings,
		IsActive:      d.IsActive,
		JoinedDate:    joined,
		DailyHours:    d.DailyHours,
		HourlyRate:    d.HourlyRate,
	}
}

type WorkerDetailResponse struct {
	Worker             WorkerDetailDTO  `json:"worker"`
	RecentTransactions []TransactionDTO `json:"recent_transactions"`
}

type WorkerDetailDTO struct {
	WorkerDTO
	TransactionCount      int             `json:"transaction_count"`
	AveragePerTransaction decimal.Decimal `json:"average_per_transaction"`
	HighestTransaction    decimal.Decimal `json:"highest_transaction"`
	LastTransactionDate   string          `json:"last_transaction_date"`
}

// WorkerRequest is the create/update payload.
type WorkerRequest struct {
	Name       string   `json:"name"`
	Username   string   `json:"username"`
	Source     string   `json:"source"`
	IsActive   bool     `json:"is_active"`
	DailyHours *float64 `json:"daily_hours,omitempty"`
	HourlyRate *float64 `json:"hourly_rate,omitempty"`
}

type PaymentBreakdownResponse struct {
	WorkerID         int             `json:"user_id"`
	Period           string          `json:"period"`
	TotalEarned      decimal.Decimal `json:"total_eur_earned"`
	ShiftPay         decimal.Decimal `json:"shift_pay"`
	Bonus            decimal.Decimal `json:"bonus"`
	TotalPayment     decimal.Decimal `json:"total_payment"`
	TransactionCount int             `json:"transaction_count"`
	HourlyRate       *float64        `json:"hourly_rate"`
	DailyHours       *float64        `json:"daily_hours"`
}

type DailyPaymentDTO struct {
	ID               int             `json:"id"`
	Date             string          `json:"date"`
	TotalPayment     decimal.Decimal `json:"total_payment"`
	TransactionCount int             `json:"transaction_count"`
	PaymentStatus    string          `json:"payment_status"`
}

type DailyPaymentsResponse struct {
	Payments []DailyPaymentDTO   `json:"payments"`
	Summary  DailyPaymentSummary `json:"summary"`
}

type DailyPaymentSummary struct {
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	DaysWithActivity int             `json:"days_with_activity"`
}

type BiweeklyPaymentDTO struct {
	ID            int             `json:"id"`
	PeriodStart   string          `json:"period_start"`
	PeriodEnd     string          `json:"period_end"`
	TotalPayment  decimal.Decimal `json:"total_payment"`
	PaymentStatus string          `json:"payment_status"`
}

type BiweeklyPaymentsResponse struct {
	Periods []BiweeklyPaymentDTO `json:"periods"`
	Summary BiweeklySummary      `json:"summary"`
}

type BiweeklySummary struct {
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
}

// MarkPaidRequest toggles a payment record's paid state. Cascade is only
// honored for biweekly records; the daily direction never cascades up.
type MarkPaidRequest struct {
	PaymentType string `json:"payment_type"` // "daily" | "biweekly"
	PaymentID   int    `json:"payment_id"`
	Status      string `json:"status"` // "paid" | "outstanding"
	Cascade     bool   `json:"cascade,omitempty"`
}

type MarkPaidResponse struct {
	Success bool   `json:"success"`
	Updated int    `json:"updated"`
	Message string `json:"message"`
}

type BreakDTO struct {
	ID       int    `json:"id"`
	WorkerID int    `json:"user_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Reason   string `json:"reason"`
}

type BreaksResponse struct {
	Breaks []BreakDTO `json:"breaks"`
}

type TelegramAccountDTO struct {
	ID       int    `json:"id"`
	Phone    string `json:"phone"`
	Username string `json:"username"`
	Verified bool   `json:"verified"`
}

type TelegramStatsResponse struct {
	Accounts        []TelegramAccountDTO `json:"accounts"`
	AvgResponseSecs float64              `json:"avg_response_seconds"`
	AnalyzedChats   int                  `json:"analyzed_chats"`
	LastAnalyzedAt  string               `json:"last_analyzed_at"`
}

type TelegramRegisterRequest struct {
	Phone string `json:"phone"`
}

type TelegramVerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type TelegramAnalyzeRequest struct {
	AccountID int `json:"account_id"`
	Days      int `json:"days"`
}

type TelegramAnalyzeResponse struct {
	AccountID       int     `json:"account_id"`
	AnalyzedChats   int     `json:"analyzed_chats"`
	AvgResponseSecs float64 `json:"avg_response_seconds"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
