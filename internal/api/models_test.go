package api

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"paytrack/internal/core"
)

func TestTransactionMapping(t *testing.T) {
	dto := TransactionDTO{
		ID:         "t1",
		WorkerID:   3,
		WorkerName: "Dana",
		Source:     "PayPal",
		Amount:     decimal.RequireFromString("42.50"),
		Date:       "2025-02-08 12:00:00",
		Status:     "Pending",
		Reference:  "ref-9",
	}

	tx := dto.Transaction()
	assert.Equal(t, core.SourcePaypal, tx.Source)
	assert.Equal(t, core.StatusPending, tx.Status)
	assert.Equal(t, time.Date(2025, 2, 8, 12, 0, 0, 0, time.UTC), tx.Date)
	assert.True(t, decimal.RequireFromString("42.50").Equal(tx.Amount))
}

func TestTransactionMappingMalformedDateStaysOutOfWindow(t *testing.T) {
	dto := TransactionDTO{
		ID:     "t2",
		Source: "PaySafe",
		Amount: decimal.RequireFromString("10.00"),
		Date:   "08/02/2025",
		Status: "Completed",
	}

	tx := dto.Transaction()
	assert.True(t, tx.Date.IsZero(), "a malformed date must not become the current time")
	assert.True(t, tx.Date.Before(core.PeriodOneYear.CurrentStart(time.Now().UTC())))
}

func TestWorkerMappingMalformedJoinedDate(t *testing.T) {
	dto := WorkerDTO{ID: 1, Name: "Dana", Source: "PaySafe", JoinedDate: "yesterday"}
	assert.True(t, dto.Worker().JoinedDate.IsZero())
}
