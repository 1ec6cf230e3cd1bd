package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SourcePaysafe PaymentSource = "PaySafe"
	SourcePaypal  PaymentSource = "PayPal"
)

const (
	StatusCompleted TransactionStatus = "Completed"
	StatusPending   TransactionStatus = "Pending"
	StatusFailed    TransactionStatus = "Failed"
)

type (
	PaymentSource string

	TransactionStatus string

	// Worker is a payout recipient. Identity is immutable; records are
	// replaced wholesale, never mutated field by field.
	Worker struct {
		ID            int
		Name          string
		Username      string
		Source        PaymentSource
		TotalEarnings decimal.Decimal
		IsActive      bool
		JoinedDate    time.Time
		DailyHours    *float64
		HourlyRate    *float64
	}

	// Transaction is a single payment record. Immutable once created;
	// status transitions happen server-side only.
	Transaction struct {
		ID                 string
		WorkerID           int
		WorkerName         string
		Source             PaymentSource
		Amount             decimal.Decimal
		Date               time.Time
		Status             TransactionStatus
		Reference          string
		HasScreenshot      bool
		ScreenshotFilename string
	}
)

var (
	ErrInvalidSource  = errors.New("invalid payment source")
	ErrInvalidStatus  = errors.New("invalid transaction status")
	ErrNegativeAmount = errors.New("negative amount")
	ErrEmptyName      = errors.New("empty worker name")
	ErrInvalidID      = errors.New("invalid id")
)

// ParseSource maps an API source string to a PaymentSource.
// Matching is case-insensitive because backend versions disagree on casing.
func ParseSource(s string) (PaymentSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paysafe":
		return SourcePaysafe, nil
	case "paypal":
		return SourcePaypal, nil
	default:
		return "", ErrInvalidSource
	}
}

// Sources returns all payment sources in a fixed order.
func Sources() []PaymentSource {
	return []PaymentSource{SourcePaysafe, SourcePaypal}
}

func (s PaymentSource) Valid() bool {
	return s == SourcePaysafe || s == SourcePaypal
}

func (s PaymentSource) String() string { return string(s) }

// ParseStatus maps an API status string to a TransactionStatus.
func ParseStatus(s string) (TransactionStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "completed":
		return StatusCompleted, nil
	case "pending":
		return StatusPending, nil
	case "failed":
		return StatusFailed, nil
	default:
		return "", ErrInvalidStatus
	}
}

func (s TransactionStatus) Valid() bool {
	return s == StatusCompleted || s == StatusPending || s == StatusFailed
}

func (s TransactionStatus) String() string { return string(s) }

func (w Worker) Validate() error {
	if w.ID <= 0 {
		return ErrInvalidID
	}
	if strings.TrimSpace(w.Name) == "" {
		return ErrEmptyName
	}
	if w.TotalEarnings.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrInvalidID
	}
	if t.WorkerID <= 0 {
		return ErrInvalidID
	}
	if !t.Source.Valid() {
		return ErrInvalidSource
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// Completed reports whether the transaction counts toward income totals.
// Pending and failed records still appear in raw listings.
func (t Transaction) Completed() bool {
	return t.Status == StatusCompleted
}
