package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tally/internal/core"
)

var ErrRecordNotFound = errors.New("record not found")

// CreateExpense inserts an expense in the user's then-current ledger
// currency. The conversion fields start null; the first bulk reconversion
// touching the record populates the originals.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e *core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, user_id, category_id, description, amount, date,
		                       amount_original, currency_original, conversion_rate,
		                       converted_at, converted_from, converted_to,
		                       created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.CategoryID, e.Description, e.Amount.String(), formatTime(e.Date),
		nullDecimal(e.Conversion.AmountOriginal),
		nullString(e.Conversion.CurrencyOriginal),
		nullDecimal(e.Conversion.ConversionRate),
		nullTime(e.Conversion.ConvertedAt),
		nullString(e.Conversion.ConvertedFrom),
		nullString(e.Conversion.ConvertedTo),
		formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// GetExpense loads a single expense with its conversion audit.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (*core.Expense, error) {
	var (
		e         core.Expense
		amount    string
		date      string
		conv      conversionColumns
		createdAt string
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, description, amount, date,
		        amount_original, currency_original, conversion_rate,
		        converted_at, converted_from, converted_to,
		        created_at, updated_at
		 FROM expenses WHERE id = ?`, id).
		Scan(&e.ID, &e.UserID, &e.CategoryID, &e.Description, &amount, &date,
			&conv.amountOriginal, &conv.currencyOriginal, &conv.conversionRate,
			&conv.convertedAt, &conv.convertedFrom, &conv.convertedTo,
			&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}

	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse expense amount: %w", err)
	}
	if e.Date, err = parseTime(date); err != nil {
		return nil, fmt.Errorf("parse expense date: %w", err)
	}
	if e.Conversion, err = conv.toAudit(); err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &e, nil
}

// CreateBudget inserts a budget. The unique index on
// (category_id, user_id, month, year) enforces one budget per category per
// month per user.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b *core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, category_id, amount, month, year,
		                      amount_original, currency_original, conversion_rate,
		                      converted_at, converted_from, converted_to,
		                      created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.CategoryID, b.Amount.String(), b.Month, b.Year,
		nullDecimal(b.Conversion.AmountOriginal),
		nullString(b.Conversion.CurrencyOriginal),
		nullDecimal(b.Conversion.ConversionRate),
		nullTime(b.Conversion.ConvertedAt),
		nullString(b.Conversion.ConvertedFrom),
		nullString(b.Conversion.ConvertedTo),
		formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

// GetBudget loads a single budget with its conversion audit.
func (r *SQLiteRepository) GetBudget(ctx context.Context, id string) (*core.Budget, error) {
	var (
		b         core.Budget
		amount    string
		conv      conversionColumns
		createdAt string
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, amount, month, year,
		        amount_original, currency_original, conversion_rate,
		        converted_at, converted_from, converted_to,
		        created_at, updated_at
		 FROM budgets WHERE id = ?`, id).
		Scan(&b.ID, &b.UserID, &b.CategoryID, &amount, &b.Month, &b.Year,
			&conv.amountOriginal, &conv.currencyOriginal, &conv.conversionRate,
			&conv.convertedAt, &conv.convertedFrom, &conv.convertedTo,
			&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}

	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse budget amount: %w", err)
	}
	if b.Conversion, err = conv.toAudit(); err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &b, nil
}
