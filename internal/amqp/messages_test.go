package amqp

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCurrencyChangedMessage_JSON(t *testing.T) {
	changedAt := time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC)
	msg := &CurrencyChangedMessage{
		UserID:            "u1",
		From:              "USD",
		To:                "EUR",
		Rate:              decimal.RequireFromString("0.92"),
		DataConverted:     true,
		ExpensesConverted: 12,
		BudgetsConverted:  3,
		ChangedAt:         changedAt,
		Timestamp:         changedAt,
	}

	// Test JSON marshaling
	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	// Test JSON unmarshaling
	parsedMsg, err := CurrencyChangedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("CurrencyChangedMessageFromJSON() error = %v", err)
	}

	if parsedMsg.UserID != msg.UserID {
		t.Errorf("Parsed UserID = %v, want %v", parsedMsg.UserID, msg.UserID)
	}
	if parsedMsg.From != "USD" || parsedMsg.To != "EUR" {
		t.Errorf("Parsed currencies = %s->%s, want USD->EUR", parsedMsg.From, parsedMsg.To)
	}
	if !parsedMsg.Rate.Equal(msg.Rate) {
		t.Errorf("Parsed Rate = %v, want %v", parsedMsg.Rate, msg.Rate)
	}
	if parsedMsg.ExpensesConverted != 12 || parsedMsg.BudgetsConverted != 3 {
		t.Errorf("Parsed counts = (%d, %d), want (12, 3)",
			parsedMsg.ExpensesConverted, parsedMsg.BudgetsConverted)
	}
	if !parsedMsg.ChangedAt.Equal(msg.ChangedAt) {
		t.Errorf("Parsed ChangedAt = %v, want %v", parsedMsg.ChangedAt, msg.ChangedAt)
	}
}

func TestCurrencyChangedMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"userId": 42, "rate": "not_a_rate"}`)

	_, err := CurrencyChangedMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("CurrencyChangedMessageFromJSON() should fail with invalid JSON")
	}
}
