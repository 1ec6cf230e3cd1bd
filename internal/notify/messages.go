package notify

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"paytrack/internal/core"
)

// TransactionAlert is the message published for a batch of newly observed
// transactions. Consumers fetch details they need from the backend; the
// alert carries only what a notification needs to render.
type TransactionAlert struct {
	Transactions []AlertTransaction `json:"transactions"`
	Count        int                `json:"count"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	ObservedAt   time.Time          `json:"observed_at"`
}

// AlertTransaction is one transaction inside an alert.
type AlertTransaction struct {
	ID         string          `json:"id"`
	WorkerID   int             `json:"worker_id"`
	WorkerName string          `json:"worker_name"`
	Source     string          `json:"source"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
}

// NewTransactionAlert builds an alert for a batch.
func NewTransactionAlert(txns []core.Transaction) *TransactionAlert {
	alert := &TransactionAlert{
		Count:      len(txns),
		ObservedAt: time.Now().UTC(),
	}
	total := decimal.Zero
	for _, tx := range txns {
		total = total.Add(tx.Amount)
		alert.Transactions = append(alert.Transactions, AlertTransaction{
			ID:         tx.ID,
			WorkerID:   tx.WorkerID,
			WorkerName: tx.WorkerName,
			Source:     tx.Source.String(),
			Amount:     tx.Amount,
			Date:       tx.Date,
		})
	}
	alert.TotalAmount = total
	return alert
}

// ToJSON converts the alert to JSON bytes.
func (a *TransactionAlert) ToJSON() ([]byte, error) {
	return json.Marshal(a)
}

// TransactionAlertFromJSON parses an alert from JSON bytes.
func TransactionAlertFromJSON(data []byte) (*TransactionAlert, error) {
	var alert TransactionAlert
	if err := json.Unmarshal(data, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}
