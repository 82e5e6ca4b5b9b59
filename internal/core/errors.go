package core

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence wraps transactional write failures. State is guaranteed
	// unchanged when it is returned, so callers may retry.
	ErrPersistence = errors.New("persistence failure")

	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// ValidationError reports malformed caller input. It is never retried
// automatically.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConfirmationRequiredError is a control-flow signal, not a failure: the user
// owns monetary records and the caller has not said whether to convert them.
// The caller must re-invoke with an explicit decision.
type ConfirmationRequiredError struct {
	ExpenseCount int64  `json:"expenseCount"`
	BudgetCount  int64  `json:"budgetCount"`
	FromCurrency string `json:"fromCurrency"`
	ToCurrency   string `json:"toCurrency"`
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("confirmation required: user owns %d expenses and %d budgets in %s; pass convertExisting to change to %s",
		e.ExpenseCount, e.BudgetCount, e.FromCurrency, e.ToCurrency)
}

// ProviderFailure records one failed exchange-rate provider attempt.
type ProviderFailure struct {
	Provider string `json:"provider"`
	Message  string `json:"message"`
}

// RateUnavailableError is returned once every configured provider has failed.
// Attempts holds the per-provider failures for diagnostics.
type RateUnavailableError struct {
	From     string            `json:"from"`
	To       string            `json:"to"`
	Attempts []ProviderFailure `json:"attempts"`
}

func (e *RateUnavailableError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("exchange rate %s->%s unavailable: no providers configured", e.From, e.To)
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("exchange rate %s->%s unavailable after %d providers, last error from %s: %s",
		e.From, e.To, len(e.Attempts), last.Provider, last.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConfirmationRequired reports whether err is the confirmation gate signal.
func IsConfirmationRequired(err error) bool {
	var ce *ConfirmationRequiredError
	return errors.As(err, &ce)
}

// IsRateUnavailable reports whether err means all providers were exhausted.
func IsRateUnavailable(err error) bool {
	var re *RateUnavailableError
	return errors.As(err, &re)
}
