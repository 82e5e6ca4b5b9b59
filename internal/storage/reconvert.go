package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// BulkReconvert converts every expense and budget owned by userID to the new
// ledger currency inside a single transaction: either both tables are fully
// updated or neither is touched.
//
// Per record: amount_original and currency_original are populated only when
// still unset, so the first-ever original survives any number of later
// conversions; amount is multiplied by rate and rounded to two decimals; the
// remaining audit columns always reflect this latest conversion. Running the
// update again for a further currency switch compounds amount again, which is
// the intended semantics of a real second switch.
//
// Failures are wrapped with core.ErrPersistence and guarantee an untouched
// database.
func (r *SQLiteRepository) BulkReconvert(ctx context.Context, userID string, rate decimal.Decimal, fromCurrency, toCurrency string) (int64, int64, error) {
	if rate.LessThanOrEqual(decimal.Zero) {
		return 0, 0, fmt.Errorf("bulk reconvert: rate must be positive, got %s", rate)
	}

	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("bulk reconvert: %w", errors.Join(core.ErrPersistence, err))
	}
	defer tx.Rollback()

	expensesModified, err := reconvertTable(ctx, tx, "expenses", userID, rate, fromCurrency, toCurrency, now)
	if err != nil {
		return 0, 0, fmt.Errorf("bulk reconvert expenses: %w", errors.Join(core.ErrPersistence, err))
	}

	budgetsModified, err := reconvertTable(ctx, tx, "budgets", userID, rate, fromCurrency, toCurrency, now)
	if err != nil {
		return 0, 0, fmt.Errorf("bulk reconvert budgets: %w", errors.Join(core.ErrPersistence, err))
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("bulk reconvert commit: %w", errors.Join(core.ErrPersistence, err))
	}

	slog.InfoContext(ctx, "Bulk reconversion committed",
		"user_id", userID,
		"from", fromCurrency,
		"to", toCurrency,
		"rate", rate.String(),
		"expenses_modified", expensesModified,
		"budgets_modified", budgetsModified)

	return expensesModified, budgetsModified, nil
}

type reconvertRow struct {
	id               string
	amount           string
	amountOriginal   sql.NullString
	currencyOriginal sql.NullString
}

// reconvertTable applies the per-record update to one table inside the
// caller's transaction. The decimal arithmetic happens in Go so rounding is
// exact rather than SQLite float math.
func reconvertTable(ctx context.Context, tx *sql.Tx, table, userID string, rate decimal.Decimal, fromCurrency, toCurrency string, now time.Time) (int64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, amount, amount_original, currency_original FROM `+table+` WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("select records: %w", err)
	}

	var records []reconvertRow
	for rows.Next() {
		var rec reconvertRow
		if err := rows.Scan(&rec.id, &rec.amount, &rec.amountOriginal, &rec.currencyOriginal); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Close(); err != nil {
		return 0, fmt.Errorf("close rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate records: %w", err)
	}

	var modified int64
	for _, rec := range records {
		amount, err := decimal.NewFromString(rec.amount)
		if err != nil {
			return 0, fmt.Errorf("parse amount of record %s: %w", rec.id, err)
		}

		// First conversion pins the originals; later conversions preserve them.
		amountOriginal := rec.amount
		if rec.amountOriginal.Valid {
			amountOriginal = rec.amountOriginal.String
		}
		currencyOriginal := fromCurrency
		if rec.currencyOriginal.Valid {
			currencyOriginal = rec.currencyOriginal.String
		}

		newAmount := amount.Mul(rate).Round(2)

		res, err := tx.ExecContext(ctx,
			`UPDATE `+table+` SET amount = ?, amount_original = ?, currency_original = ?,
			        conversion_rate = ?, converted_at = ?, converted_from = ?, converted_to = ?,
			        updated_at = ?
			 WHERE id = ?`,
			newAmount.String(), amountOriginal, currencyOriginal,
			rate.String(), formatTime(now), fromCurrency, toCurrency,
			formatTime(now), rec.id)
		if err != nil {
			return 0, fmt.Errorf("update record %s: %w", rec.id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected for record %s: %w", rec.id, err)
		}
		modified += n
	}

	return modified, nil
}
