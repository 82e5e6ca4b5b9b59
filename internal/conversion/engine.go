// Package conversion orchestrates ledger currency changes: confirmation
// gating, rate resolution and the atomic reconversion of historical records.
package conversion

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/currency"
)

// RateResolver yields a live from->to exchange rate.
type RateResolver interface {
	Resolve(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// MonetaryStore is the scoped view over the user's expense and budget
// collections.
type MonetaryStore interface {
	CountOwned(ctx context.Context, userID string) (expenseCount, budgetCount int64, err error)
	BulkReconvert(ctx context.Context, userID string, rate decimal.Decimal, fromCurrency, toCurrency string) (expensesModified, budgetsModified int64, err error)
}

// UserStore reads and commits the user's currency preference and audit trail.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*core.User, error)
	UpdateUserCurrency(ctx context.Context, id, newCurrency string, change core.CurrencyChange) error
}

// EventPublisher fans out a successful currency change. Publishing is
// best-effort and never fails the conversion.
type EventPublisher interface {
	PublishCurrencyChanged(ctx context.Context, event core.CurrencyChange, userID string) error
}

// Result reports a completed currency change. DataConverted distinguishes
// "preference changed, no data touched" from a full reconversion; Rate is
// always included for transparency.
type Result struct {
	From              string          `json:"from"`
	To                string          `json:"to"`
	Rate              decimal.Decimal `json:"rate"`
	DataConverted     bool            `json:"dataConverted"`
	ExpensesConverted int64           `json:"expensesConverted"`
	BudgetsConverted  int64           `json:"budgetsConverted"`
	NoOp              bool            `json:"noOp,omitempty"`
}

// Engine runs the currency-change state machine. It performs no partial
// commits: the user's currency changes if and only if rate resolution and any
// requested reconversion both succeeded.
//
// Two concurrent changes for the same user are not deduplicated here; callers
// that care about that race must serialize per-user requests, because two
// successful conversions compound the rate twice.
type Engine struct {
	resolver  RateResolver
	store     MonetaryStore
	users     UserStore
	publisher EventPublisher
	now       func() time.Time
}

func NewEngine(resolver RateResolver, store MonetaryStore, users UserStore, publisher EventPublisher) *Engine {
	return &Engine{
		resolver:  resolver,
		store:     store,
		users:     users,
		publisher: publisher,
		now:       time.Now,
	}
}

// ChangeCurrency switches the user's ledger currency to newCurrency.
//
// convertExisting is tri-state: nil means the caller has not decided what to
// do with existing records, and when any exist the call fails with
// *core.ConfirmationRequiredError so the decision is always explicit. No step
// is retried automatically; transient failures must be retried by the caller
// with the same explicit convertExisting value.
func (e *Engine) ChangeCurrency(ctx context.Context, userID, newCurrency string, convertExisting *bool) (*Result, error) {
	if !currency.IsValid(newCurrency) {
		return nil, core.NewValidationError("currency", "must be a 3-letter currency code")
	}
	target := currency.Normalize(newCurrency)

	user, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	current := currency.Normalize(user.Currency)

	if current == target {
		slog.InfoContext(ctx, "Currency change is a no-op",
			"user_id", userID, "currency", target)
		return &Result{From: current, To: target, Rate: decimal.NewFromInt(1), NoOp: true}, nil
	}

	expenseCount, budgetCount, err := e.store.CountOwned(ctx, userID)
	if err != nil {
		return nil, err
	}

	ownsRecords := expenseCount > 0 || budgetCount > 0
	if ownsRecords && convertExisting == nil {
		return nil, &core.ConfirmationRequiredError{
			ExpenseCount: expenseCount,
			BudgetCount:  budgetCount,
			FromCurrency: current,
			ToCurrency:   target,
		}
	}

	// Resolve exactly once; the same rate is reused for the bulk update and
	// the audit entry so a multi-step conversion cannot mix rates.
	rate, err := e.resolver.Resolve(ctx, current, target)
	if err != nil {
		return nil, err
	}

	var expensesConverted, budgetsConverted int64
	convert := ownsRecords && convertExisting != nil && *convertExisting
	if convert {
		expensesConverted, budgetsConverted, err = e.store.BulkReconvert(ctx, userID, rate, current, target)
		if err != nil {
			return nil, err
		}
	}

	change := core.CurrencyChange{
		From:              current,
		To:                target,
		Rate:              rate,
		ChangedAt:         e.now().UTC(),
		DataConverted:     convert,
		ExpensesConverted: expensesConverted,
		BudgetsConverted:  budgetsConverted,
	}
	if err := e.users.UpdateUserCurrency(ctx, userID, target, change); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Currency changed",
		"user_id", userID,
		"from", current,
		"to", target,
		"rate", rate.String(),
		"data_converted", convert,
		"expenses_converted", expensesConverted,
		"budgets_converted", budgetsConverted)

	if e.publisher != nil {
		if err := e.publisher.PublishCurrencyChanged(ctx, change, userID); err != nil {
			slog.WarnContext(ctx, "Failed to publish currency change event",
				"user_id", userID, "error", err)
		}
	}

	return &Result{
		From:              current,
		To:                target,
		Rate:              rate,
		DataConverted:     convert,
		ExpensesConverted: expensesConverted,
		BudgetsConverted:  budgetsConverted,
	}, nil
}
