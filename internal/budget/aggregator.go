// Package budget computes budget-vs-actual reports from the stored monetary
// records. All reads are point-in-time; nothing here writes.
package budget

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"tally/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Store is the read surface the aggregator needs.
type Store interface {
	BudgetsForPeriod(ctx context.Context, userID string, month, year int) ([]core.BudgetLine, error)
	CategorySpending(ctx context.Context, userID string, categoryIDs []string, from, to time.Time) ([]core.CategorySpend, error)
}

// Aggregator builds overview, trend and alert reports for one user at a time.
type Aggregator struct {
	store Store
	now   func() time.Time
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// Overview reports budget vs actual spending for one calendar month. A zero
// month or year defaults to the current period. Users without budgets get a
// zeroed overview, never an error.
//
// Percentage rounding differs on purpose between levels: per-category values
// keep two decimals, the summary percentage is rounded to a whole number.
func (a *Aggregator) Overview(ctx context.Context, userID string, month, year int) (*core.BudgetOverview, error) {
	if month < 0 || month > 12 {
		return nil, core.NewValidationError("month", "must be between 1 and 12")
	}
	if month == 0 || year == 0 {
		now := a.now().UTC()
		if month == 0 {
			month = int(now.Month())
		}
		if year == 0 {
			year = now.Year()
		}
	}

	period := core.Period{Month: month, Year: year}

	lines, err := a.store.BudgetsForPeriod(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return &core.BudgetOverview{
			Categories: []core.CategoryBudget{},
			Period:     period,
		}, nil
	}

	categoryIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		categoryIDs = append(categoryIDs, line.Category.ID)
	}

	// Spending window is the full calendar month: first instant through the
	// last second, matching the inclusive range the store queries with.
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Second)

	spends, err := a.store.CategorySpending(ctx, userID, categoryIDs, from, to)
	if err != nil {
		return nil, err
	}
	spendByCategory := make(map[string]core.CategorySpend, len(spends))
	for _, s := range spends {
		spendByCategory[s.CategoryID] = s
	}

	overview := &core.BudgetOverview{
		Categories:  make([]core.CategoryBudget, 0, len(lines)),
		BudgetCount: len(lines),
		Period:      period,
	}

	for _, line := range lines {
		spend := spendByCategory[line.Category.ID]

		cb := core.CategoryBudget{
			ID:                     line.BudgetID,
			Category:               line.Category,
			Budget:                 line.Amount,
			BudgetOriginal:         line.Conversion.AmountOriginal,
			BudgetOriginalCurrency: line.Conversion.CurrencyOriginal,
			BudgetConversionRate:   line.Conversion.ConversionRate,
			BudgetConvertedAt:      line.Conversion.ConvertedAt,
			Spent:                  spend.Spent,
			Remaining:              line.Amount.Sub(spend.Spent),
			ExpenseCount:           spend.ExpenseCount,
		}
		if line.Amount.IsPositive() {
			cb.PercentageUsed = spend.Spent.Div(line.Amount).Mul(hundred).Round(2)
		}
		cb.IsOverBudget = spend.Spent.GreaterThan(line.Amount)
		cb.IsNearLimit = !cb.IsOverBudget && cb.PercentageUsed.GreaterThanOrEqual(decimal.NewFromInt(80))

		overview.TotalBudget = overview.TotalBudget.Add(line.Amount)
		overview.TotalSpent = overview.TotalSpent.Add(spend.Spent)
		if cb.IsOverBudget {
			overview.OverBudgetCount++
		}
		if cb.IsNearLimit {
			overview.Summary.NearLimitCategories++
		}
		overview.Categories = append(overview.Categories, cb)
	}

	sort.Slice(overview.Categories, func(i, j int) bool {
		return overview.Categories[i].Category.Name < overview.Categories[j].Category.Name
	})

	overview.TotalRemaining = overview.TotalBudget.Sub(overview.TotalSpent)
	if overview.TotalBudget.IsPositive() {
		overview.Summary.PercentageUsed = overview.TotalSpent.Div(overview.TotalBudget).Mul(hundred).Round(0)
	}
	overview.Summary.IsOverBudget = overview.TotalSpent.GreaterThan(overview.TotalBudget)

	return overview, nil
}

// Trends returns one entry per month for the periodsBack months ending at the
// current month, oldest first. The per-month overviews are independent reads,
// so they run concurrently and land in the slice by index.
func (a *Aggregator) Trends(ctx context.Context, userID string, periodsBack int) ([]core.BudgetTrend, error) {
	if periodsBack <= 0 {
		return nil, core.NewValidationError("months", "must be a positive number of months")
	}

	now := a.now().UTC()
	// Anchor to the first of the current month before stepping back:
	// AddDate on day 29-31 normalizes into the wrong month.
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	trends := make([]core.BudgetTrend, periodsBack)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < periodsBack; i++ {
		target := anchor.AddDate(0, -(periodsBack - 1 - i), 0)
		month, year := int(target.Month()), target.Year()
		monthName := target.Format("January 2006")

		g.Go(func() error {
			overview, err := a.Overview(gctx, userID, month, year)
			if err != nil {
				return err
			}
			trends[i] = core.BudgetTrend{
				Month:           month,
				Year:            year,
				MonthName:       monthName,
				TotalBudget:     overview.TotalBudget,
				TotalSpent:      overview.TotalSpent,
				PercentageUsed:  overview.Summary.PercentageUsed,
				OverBudgetCount: overview.OverBudgetCount,
				CategoryCount:   overview.BudgetCount,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trends, nil
}

// Alerts filters one month's overview into the two attention buckets.
// Over-budget wins: a category never appears in both lists.
func (a *Aggregator) Alerts(ctx context.Context, userID string, month, year int) (*core.BudgetAlerts, error) {
	overview, err := a.Overview(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}

	alerts := &core.BudgetAlerts{
		OverBudget: []core.CategoryBudget{},
		NearLimit:  []core.CategoryBudget{},
		Period:     overview.Period,
	}
	for _, cb := range overview.Categories {
		switch {
		case cb.IsOverBudget:
			alerts.OverBudget = append(alerts.OverBudget, cb)
		case cb.IsNearLimit:
			alerts.NearLimit = append(alerts.NearLimit, cb)
		}
	}
	return alerts, nil
}
