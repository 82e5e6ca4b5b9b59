package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tally/internal/core"
)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Error   any  `json:"error,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type confirmationBody struct {
	Message              string `json:"message"`
	RequiresConfirmation bool   `json:"requiresConfirmation"`
	ExpenseCount         int64  `json:"expenseCount"`
	BudgetCount          int64  `json:"budgetCount"`
	FromCurrency         string `json:"fromCurrency"`
	ToCurrency           string `json:"toCurrency"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeData(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, envelope{Success: true, Data: data})
}

// writeError maps domain errors onto HTTP status codes. The confirmation gate
// is a 409 with enough detail for the client to re-submit with a decision.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation   *core.ValidationError
		confirmation *core.ConfirmationRequiredError
		unavailable  *core.RateUnavailableError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, envelope{
			Error: errorBody{Message: validation.Message, Field: validation.Field},
		})
	case errors.As(err, &confirmation):
		writeJSON(w, http.StatusConflict, envelope{
			Error: confirmationBody{
				Message:              confirmation.Error(),
				RequiresConfirmation: true,
				ExpenseCount:         confirmation.ExpenseCount,
				BudgetCount:          confirmation.BudgetCount,
				FromCurrency:         confirmation.FromCurrency,
				ToCurrency:           confirmation.ToCurrency,
			},
		})
	case errors.As(err, &unavailable):
		slog.ErrorContext(r.Context(), "Exchange rate unavailable",
			"from", unavailable.From, "to", unavailable.To, "error", err)
		writeJSON(w, http.StatusBadGateway, envelope{
			Error: errorBody{Message: "exchange rate temporarily unavailable, try again later"},
		})
	case errors.Is(err, core.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, envelope{
			Error: errorBody{Message: "user not found"},
		})
	default:
		slog.ErrorContext(r.Context(), "Request failed", "url", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope{
			Error: errorBody{Message: "internal error"},
		})
	}
}
