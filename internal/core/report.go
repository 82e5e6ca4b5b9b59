package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period identifies one calendar month.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// CategoryRef is the slice of a category the overview exposes.
type CategoryRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}

// CategoryBudget is one row of the budget-vs-spending overview.
type CategoryBudget struct {
	ID                     string           `json:"id"`
	Category               CategoryRef      `json:"category"`
	Budget                 decimal.Decimal  `json:"budget"`
	BudgetOriginal         *decimal.Decimal `json:"budgetOriginal"`
	BudgetOriginalCurrency *string          `json:"budgetOriginalCurrency"`
	BudgetConversionRate   *decimal.Decimal `json:"budgetConversionRate"`
	BudgetConvertedAt      *time.Time       `json:"budgetConvertedAt"`
	Spent                  decimal.Decimal  `json:"spent"`
	Remaining              decimal.Decimal  `json:"remaining"`
	PercentageUsed         decimal.Decimal  `json:"percentageUsed"`
	IsOverBudget           bool             `json:"isOverBudget"`
	IsNearLimit            bool             `json:"isNearLimit"`
	ExpenseCount           int64            `json:"expenseCount"`
}

// OverviewSummary aggregates the overview across all budgeted categories.
// PercentageUsed is rounded to an integer here but to two decimals at the
// category level; the asymmetry is observed behavior and kept on purpose.
type OverviewSummary struct {
	PercentageUsed      decimal.Decimal `json:"percentageUsed"`
	IsOverBudget        bool            `json:"isOverBudget"`
	NearLimitCategories int             `json:"nearLimitCategories"`
}

// BudgetOverview is the per-period budget-vs-actual report.
type BudgetOverview struct {
	TotalBudget     decimal.Decimal  `json:"totalBudget"`
	TotalSpent      decimal.Decimal  `json:"totalSpent"`
	TotalRemaining  decimal.Decimal  `json:"totalRemaining"`
	BudgetCount     int              `json:"budgetCount"`
	OverBudgetCount int              `json:"overBudgetCount"`
	Categories      []CategoryBudget `json:"categories"`
	Period          Period           `json:"period"`
	Summary         OverviewSummary  `json:"summary"`
}

// BudgetTrend is one month of the multi-period trend series.
type BudgetTrend struct {
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	MonthName       string          `json:"monthName"`
	TotalBudget     decimal.Decimal `json:"totalBudget"`
	TotalSpent      decimal.Decimal `json:"totalSpent"`
	PercentageUsed  decimal.Decimal `json:"percentageUsed"`
	OverBudgetCount int             `json:"overBudgetCount"`
	CategoryCount   int             `json:"categoryCount"`
}

// BudgetAlerts splits an overview's categories into the two alert buckets.
// Over-budget takes precedence: a category is never in both.
type BudgetAlerts struct {
	OverBudget []CategoryBudget `json:"overBudget"`
	NearLimit  []CategoryBudget `json:"nearLimit"`
	Period     Period           `json:"period"`
}

// BudgetLine is a budget joined with its category, as read for aggregation.
type BudgetLine struct {
	BudgetID   string
	Category   CategoryRef
	Amount     decimal.Decimal
	Conversion ConversionAudit
}

// CategorySpend is the summed spending of one category inside a period.
type CategorySpend struct {
	CategoryID   string
	Spent        decimal.Decimal
	ExpenseCount int64
}
