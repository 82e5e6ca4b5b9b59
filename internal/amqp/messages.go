package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyChangedMessage notifies downstream consumers that a user's ledger
// currency changed. It carries the audit entry so consumers do not need to
// re-read the user.
type CurrencyChangedMessage struct {
	UserID            string          `json:"userId"`
	From              string          `json:"from"`
	To                string          `json:"to"`
	Rate              decimal.Decimal `json:"rate"`
	DataConverted     bool            `json:"dataConverted"`
	ExpensesConverted int64           `json:"expensesConverted"`
	BudgetsConverted  int64           `json:"budgetsConverted"`
	ChangedAt         time.Time       `json:"changedAt"`
	Timestamp         time.Time       `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *CurrencyChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CurrencyChangedMessageFromJSON creates a message from JSON bytes
func CurrencyChangedMessageFromJSON(data []byte) (*CurrencyChangedMessage, error) {
	var msg CurrencyChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
