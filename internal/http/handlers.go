package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"tally/internal/core"
)

const defaultTrendMonths = 6

func (s *Server) handleBudgetOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	month, err := intQuery(r, "month", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	year, err := intQuery(r, "year", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	overview, err := s.aggregator.Overview(r.Context(), userID, month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, overview)
}

func (s *Server) handleBudgetTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	months, err := intQuery(r, "months", defaultTrendMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}

	trends, err := s.aggregator.Trends(r.Context(), userID, months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, trends)
}

func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	month, err := intQuery(r, "month", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	year, err := intQuery(r, "year", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	alerts, err := s.aggregator.Alerts(r.Context(), userID, month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, alerts)
}

type changeCurrencyRequest struct {
	UserID          string `json:"userId"`
	Currency        string `json:"currency"`
	ConvertExisting *bool  `json:"convertExisting"`
}

func (s *Server) handleChangeCurrency(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req changeCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, core.NewValidationError("body", "invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, r, core.NewValidationError("userId", "required"))
		return
	}

	result, err := s.engine.ChangeCurrency(r.Context(), req.UserID, req.Currency, req.ConvertExisting)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, r, core.NewValidationError("userId", "required"))
		return "", false
	}
	return userID, true
}

func intQuery(r *http.Request, name string, defaultValue int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.NewValidationError(name, "must be a number")
	}
	return n, nil
}
