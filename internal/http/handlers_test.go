package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/budget"
	"tally/internal/conversion"
	"tally/internal/core"
)

type fakeResolver struct {
	rate decimal.Decimal
	err  error
}

func (f *fakeResolver) Resolve(context.Context, string, string) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.rate, nil
}

type fakeStore struct {
	expenseCount int64
	budgetCount  int64
	budgets      []core.BudgetLine
	spending     []core.CategorySpend
}

func (f *fakeStore) CountOwned(context.Context, string) (int64, int64, error) {
	return f.expenseCount, f.budgetCount, nil
}

func (f *fakeStore) BulkReconvert(context.Context, string, decimal.Decimal, string, string) (int64, int64, error) {
	return f.expenseCount, f.budgetCount, nil
}

func (f *fakeStore) BudgetsForPeriod(context.Context, string, int, int) ([]core.BudgetLine, error) {
	return f.budgets, nil
}

func (f *fakeStore) CategorySpending(context.Context, string, []string, time.Time, time.Time) ([]core.CategorySpend, error) {
	return f.spending, nil
}

type fakeUsers struct {
	user *core.User
}

func (f *fakeUsers) GetUser(context.Context, string) (*core.User, error) {
	if f.user == nil {
		return nil, core.ErrUserNotFound
	}
	return f.user, nil
}

func (f *fakeUsers) UpdateUserCurrency(context.Context, string, string, core.CurrencyChange) error {
	return nil
}

func newTestServer(resolver *fakeResolver, store *fakeStore, users *fakeUsers) *Server {
	engine := conversion.NewEngine(resolver, store, users, nil)
	aggregator := budget.NewAggregator(store)
	return NewServer(":0", engine, aggregator)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestHandleBudgetOverview(t *testing.T) {
	store := &fakeStore{
		budgets: []core.BudgetLine{
			{
				BudgetID: "b1",
				Category: core.CategoryRef{ID: "c1", Name: "Food"},
				Amount:   decimal.RequireFromString("100.00"),
			},
		},
		spending: []core.CategorySpend{
			{CategoryID: "c1", Spent: decimal.RequireFromString("110.00"), ExpenseCount: 2},
		},
	}
	s := newTestServer(&fakeResolver{}, store, &fakeUsers{})

	req := httptest.NewRequest(http.MethodGet, "/api/budgets/overview?userId=u1&month=3&year=2026", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	data := body["data"].(map[string]any)
	if data["totalSpent"] != "110.00" {
		t.Errorf("totalSpent = %v, want 110.00", data["totalSpent"])
	}
	summary := data["summary"].(map[string]any)
	if summary["isOverBudget"] != true {
		t.Errorf("summary.isOverBudget = %v, want true", summary["isOverBudget"])
	}
}

func TestHandleBudgetOverview_MissingUserID(t *testing.T) {
	s := newTestServer(&fakeResolver{}, &fakeStore{}, &fakeUsers{})

	req := httptest.NewRequest(http.MethodGet, "/api/budgets/overview", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleBudgetOverview_InvalidMonthParam(t *testing.T) {
	s := newTestServer(&fakeResolver{}, &fakeStore{}, &fakeUsers{})

	req := httptest.NewRequest(http.MethodGet, "/api/budgets/overview?userId=u1&month=abc", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleBudgetTrends_RejectsNonPositiveMonths(t *testing.T) {
	s := newTestServer(&fakeResolver{}, &fakeStore{}, &fakeUsers{})

	req := httptest.NewRequest(http.MethodGet, "/api/budgets/trends?userId=u1&months=0", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleBudgetAlerts(t *testing.T) {
	store := &fakeStore{
		budgets: []core.BudgetLine{
			{
				BudgetID: "b1",
				Category: core.CategoryRef{ID: "c1", Name: "Food"},
				Amount:   decimal.RequireFromString("100.00"),
			},
		},
		spending: []core.CategorySpend{
			{CategoryID: "c1", Spent: decimal.RequireFromString("150.00"), ExpenseCount: 1},
		},
	}
	s := newTestServer(&fakeResolver{}, store, &fakeUsers{})

	req := httptest.NewRequest(http.MethodGet, "/api/budgets/alerts?userId=u1&month=3&year=2026", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]any)
	over := data["overBudget"].([]any)
	if len(over) != 1 {
		t.Errorf("overBudget length = %d, want 1", len(over))
	}
}

func TestHandleChangeCurrency_ConfirmationConflict(t *testing.T) {
	store := &fakeStore{expenseCount: 12, budgetCount: 3}
	users := &fakeUsers{user: &core.User{ID: "u1", Currency: "USD"}}
	s := newTestServer(&fakeResolver{rate: decimal.RequireFromString("1.08")}, store, users)

	req := httptest.NewRequest(http.MethodPost, "/api/user/currency",
		strings.NewReader(`{"userId":"u1","currency":"EUR"}`))
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	errBody := body["error"].(map[string]any)
	if errBody["requiresConfirmation"] != true {
		t.Errorf("requiresConfirmation = %v, want true", errBody["requiresConfirmation"])
	}
	if errBody["expenseCount"] != float64(12) {
		t.Errorf("expenseCount = %v, want 12", errBody["expenseCount"])
	}
	if errBody["fromCurrency"] != "USD" || errBody["toCurrency"] != "EUR" {
		t.Errorf("currencies = %v -> %v, want USD -> EUR", errBody["fromCurrency"], errBody["toCurrency"])
	}
}

func TestHandleChangeCurrency_Success(t *testing.T) {
	store := &fakeStore{expenseCount: 4, budgetCount: 2}
	users := &fakeUsers{user: &core.User{ID: "u1", Currency: "USD"}}
	s := newTestServer(&fakeResolver{rate: decimal.RequireFromString("1.08")}, store, users)

	req := httptest.NewRequest(http.MethodPost, "/api/user/currency",
		strings.NewReader(`{"userId":"u1","currency":"EUR","convertExisting":true}`))
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]any)
	if data["dataConverted"] != true {
		t.Errorf("dataConverted = %v, want true", data["dataConverted"])
	}
	if data["expensesConverted"] != float64(4) {
		t.Errorf("expensesConverted = %v, want 4", data["expensesConverted"])
	}
}

func TestHandleChangeCurrency_InvalidCurrency(t *testing.T) {
	users := &fakeUsers{user: &core.User{ID: "u1", Currency: "USD"}}
	s := newTestServer(&fakeResolver{}, &fakeStore{}, users)

	req := httptest.NewRequest(http.MethodPost, "/api/user/currency",
		strings.NewReader(`{"userId":"u1","currency":"EURO"}`))
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleChangeCurrency_RateUnavailable(t *testing.T) {
	resolver := &fakeResolver{err: &core.RateUnavailableError{From: "USD", To: "EUR"}}
	users := &fakeUsers{user: &core.User{ID: "u1", Currency: "USD"}}
	s := newTestServer(resolver, &fakeStore{}, users)

	req := httptest.NewRequest(http.MethodPost, "/api/user/currency",
		strings.NewReader(`{"userId":"u1","currency":"EUR"}`))
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502; body %s", rec.Code, rec.Body.String())
	}
}

func TestHandleChangeCurrency_UserNotFound(t *testing.T) {
	s := newTestServer(&fakeResolver{}, &fakeStore{}, &fakeUsers{})

	req := httptest.NewRequest(http.MethodPost, "/api/user/currency",
		strings.NewReader(`{"userId":"ghost","currency":"EUR"}`))
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&fakeResolver{}, &fakeStore{}, &fakeUsers{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/healthz", nil)
	rec = httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET" {
		t.Errorf("Allow header = %q, want GET", allow)
	}
}

func TestHandleChangeCurrency_MethodNotAllowed(t *testing.T) {
	s := newTestServer(&fakeResolver{}, &fakeStore{}, &fakeUsers{})

	req := httptest.NewRequest(http.MethodGet, "/api/user/currency", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
