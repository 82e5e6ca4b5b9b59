package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// BudgetsForPeriod returns the user's budgets for one calendar month, joined
// with their categories. A budget whose category no longer exists is silently
// excluded by the inner join: one dangling reference must not break the whole
// overview.
func (r *SQLiteRepository) BudgetsForPeriod(ctx context.Context, userID string, month, year int) ([]core.BudgetLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.amount,
		        b.amount_original, b.currency_original, b.conversion_rate,
		        b.converted_at, b.converted_from, b.converted_to,
		        c.id, c.name, c.is_default
		 FROM budgets b
		 JOIN categories c ON c.id = b.category_id
		 WHERE b.user_id = ? AND b.month = ? AND b.year = ?`,
		userID, month, year)
	if err != nil {
		return nil, fmt.Errorf("query budgets for period: %w", err)
	}
	defer rows.Close()

	var lines []core.BudgetLine
	for rows.Next() {
		var (
			line      core.BudgetLine
			amount    string
			conv      conversionColumns
			isDefault int
		)
		if err := rows.Scan(&line.BudgetID, &amount,
			&conv.amountOriginal, &conv.currencyOriginal, &conv.conversionRate,
			&conv.convertedAt, &conv.convertedFrom, &conv.convertedTo,
			&line.Category.ID, &line.Category.Name, &isDefault); err != nil {
			return nil, fmt.Errorf("scan budget line: %w", err)
		}
		if line.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse budget amount: %w", err)
		}
		if line.Conversion, err = conv.toAudit(); err != nil {
			return nil, fmt.Errorf("budget %s: %w", line.BudgetID, err)
		}
		line.Category.IsDefault = isDefault != 0
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budget lines: %w", err)
	}
	return lines, nil
}

// CategorySpending sums the user's expenses per category for the given
// categories and date range (inclusive). Sums are computed with decimal
// arithmetic in Go, not SQLite float math.
func (r *SQLiteRepository) CategorySpending(ctx context.Context, userID string, categoryIDs []string, from, to time.Time) ([]core.CategorySpend, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(categoryIDs)-1) + "?"
	args := make([]any, 0, len(categoryIDs)+3)
	args = append(args, userID)
	for _, id := range categoryIDs {
		args = append(args, id)
	}
	args = append(args, formatTime(from), formatTime(to))

	rows, err := r.db.QueryContext(ctx,
		`SELECT category_id, amount FROM expenses
		 WHERE user_id = ? AND category_id IN (`+placeholders+`) AND date >= ? AND date <= ?`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query category spending: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]*core.CategorySpend)
	var order []string
	for rows.Next() {
		var categoryID, amount string
		if err := rows.Scan(&categoryID, &amount); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse expense amount: %w", err)
		}
		spend, ok := totals[categoryID]
		if !ok {
			spend = &core.CategorySpend{CategoryID: categoryID}
			totals[categoryID] = spend
			order = append(order, categoryID)
		}
		spend.Spent = spend.Spent.Add(d)
		spend.ExpenseCount++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	result := make([]core.CategorySpend, 0, len(order))
	for _, id := range order {
		result = append(result, *totals[id])
	}
	return result, nil
}
