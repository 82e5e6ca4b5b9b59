package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ConversionAudit carries the non-destructive conversion fields shared by
// every monetary record. AmountOriginal and CurrencyOriginal are set exactly
// once, at the first conversion that touches the record, and never change
// afterwards. The remaining fields describe the most recent conversion only.
type ConversionAudit struct {
	AmountOriginal   *decimal.Decimal `json:"amountOriginal,omitempty"`
	CurrencyOriginal *string          `json:"currencyOriginal,omitempty"`
	ConversionRate   *decimal.Decimal `json:"conversionRate,omitempty"`
	ConvertedAt      *time.Time       `json:"convertedAt,omitempty"`
	ConvertedFrom    *string          `json:"convertedFrom,omitempty"`
	ConvertedTo      *string          `json:"convertedTo,omitempty"`
}

// Expense is a single spending record owned by one user. Amount is expressed
// in the user's current ledger currency.
type Expense struct {
	ID          string
	UserID      string
	CategoryID  string
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	Conversion  ConversionAudit
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Budget is a per-category monthly spending limit. One budget per
// (category, user, month, year).
type Budget struct {
	ID         string
	UserID     string
	CategoryID string
	Amount     decimal.Decimal
	Month      int
	Year       int
	Conversion ConversionAudit
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Category is owned by an external collaborator; the engine only reads
// id and name and never validates existence on write paths.
type Category struct {
	ID        string
	Name      string
	IsDefault bool
}

// User owns a ledger currency and the audit entry of the last currency change.
type User struct {
	ID                 string
	Email              string
	Currency           string
	LastCurrencyChange *CurrencyChange
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CurrencyChange is the audit entry recorded on the user after every
// successful currency change.
type CurrencyChange struct {
	From              string          `json:"from"`
	To                string          `json:"to"`
	Rate              decimal.Decimal `json:"rate"`
	ChangedAt         time.Time       `json:"changedAt"`
	DataConverted     bool            `json:"dataConverted"`
	ExpensesConverted int64           `json:"expensesConverted"`
	BudgetsConverted  int64           `json:"budgetsConverted"`
}

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidMonth     = errors.New("month must be between 1 and 12")
	ErrInvalidYear      = errors.New("year must be 2020 or later")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyUserID      = errors.New("empty user id")
)

func (e Expense) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if e.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(b.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if b.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 2020 {
		return ErrInvalidYear
	}
	return nil
}
