// Package storage persists users, expenses and budgets in SQLite and owns
// the transactional bulk reconversion of monetary records.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// CreateUser inserts a user, assigning an id and the default USD currency
// when absent.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u *core.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Currency == "" {
		u.Currency = "USD"
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	var change sql.NullString
	if u.LastCurrencyChange != nil {
		raw, err := json.Marshal(u.LastCurrencyChange)
		if err != nil {
			return fmt.Errorf("marshal currency change: %w", err)
		}
		change = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, currency, last_currency_change, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Currency, change, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser loads a user by id, including the last currency change audit entry.
func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (*core.User, error) {
	var (
		u         core.User
		change    sql.NullString
		createdAt string
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, currency, last_currency_change, created_at, updated_at
		 FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Currency, &change, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if change.Valid {
		var cc core.CurrencyChange
		if err := json.Unmarshal([]byte(change.String), &cc); err != nil {
			return nil, fmt.Errorf("unmarshal currency change: %w", err)
		}
		u.LastCurrencyChange = &cc
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &u, nil
}

// UpdateUserCurrency commits a currency change: the new ledger currency plus
// the audit entry, in one row write. It is only called after rate resolution
// and any bulk reconversion have already succeeded.
func (r *SQLiteRepository) UpdateUserCurrency(ctx context.Context, id, newCurrency string, change core.CurrencyChange) error {
	raw, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal currency change: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET currency = ?, last_currency_change = ?, updated_at = ? WHERE id = ?`,
		newCurrency, string(raw), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update user currency: %w", errors.Join(core.ErrPersistence, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user currency: %w", errors.Join(core.ErrPersistence, err))
	}
	if n == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

// CreateCategory inserts a category. Categories are otherwise managed by an
// external collaborator; this exists for seeding and tests.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c *core.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, is_default) VALUES (?, ?, ?)`,
		c.ID, c.Name, boolToInt(c.IsDefault))
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// CountOwned returns how many expenses and budgets the user owns. The
// conversion engine uses it to decide whether confirmation is required.
func (r *SQLiteRepository) CountOwned(ctx context.Context, userID string) (int64, int64, error) {
	var expenseCount, budgetCount int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE user_id = ?`, userID).Scan(&expenseCount)
	if err != nil {
		return 0, 0, fmt.Errorf("count expenses: %w", err)
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budgets WHERE user_id = ?`, userID).Scan(&budgetCount)
	if err != nil {
		return 0, 0, fmt.Errorf("count budgets: %w", err)
	}
	return expenseCount, budgetCount, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

// conversionColumns scans the six persisted conversion fields of a monetary
// record. Exactly these six are persisted; no other derived currency fields.
type conversionColumns struct {
	amountOriginal   sql.NullString
	currencyOriginal sql.NullString
	conversionRate   sql.NullString
	convertedAt      sql.NullString
	convertedFrom    sql.NullString
	convertedTo      sql.NullString
}

func (c *conversionColumns) toAudit() (core.ConversionAudit, error) {
	var audit core.ConversionAudit
	if c.amountOriginal.Valid {
		d, err := decimal.NewFromString(c.amountOriginal.String)
		if err != nil {
			return audit, fmt.Errorf("parse amount_original: %w", err)
		}
		audit.AmountOriginal = &d
	}
	if c.currencyOriginal.Valid {
		s := c.currencyOriginal.String
		audit.CurrencyOriginal = &s
	}
	if c.conversionRate.Valid {
		d, err := decimal.NewFromString(c.conversionRate.String)
		if err != nil {
			return audit, fmt.Errorf("parse conversion_rate: %w", err)
		}
		audit.ConversionRate = &d
	}
	if c.convertedAt.Valid {
		t, err := parseTime(c.convertedAt.String)
		if err != nil {
			return audit, fmt.Errorf("parse converted_at: %w", err)
		}
		audit.ConvertedAt = &t
	}
	if c.convertedFrom.Valid {
		s := c.convertedFrom.String
		audit.ConvertedFrom = &s
	}
	if c.convertedTo.Valid {
		s := c.convertedTo.String
		audit.ConvertedTo = &s
	}
	return audit, nil
}
