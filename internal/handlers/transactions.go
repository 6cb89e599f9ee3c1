package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/report"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type transactionRequest struct {
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// parseTransaction validates client input. The store itself accepts any
// amount and description, so these checks only exist here.
func parseTransaction(r *http.Request) (models.Transaction, error) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return models.Transaction{}, errors.New("invalid request body")
	}

	if req.Date == "" {
		return models.Transaction{}, errors.New("date is required")
	}
	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	typ, err := models.ParseTxType(req.Type)
	if err != nil {
		return models.Transaction{}, err
	}
	if req.Amount.IsNegative() {
		return models.Transaction{}, errors.New("amount must not be negative")
	}
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		return models.Transaction{}, errors.New("description is required")
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "Others"
	}

	return models.Transaction{
		Date:        date,
		Type:        typ,
		Category:    category,
		Description: desc,
		Amount:      req.Amount,
	}, nil
}

// parseFilter reads optional month and year query parameters. An empty value
// or "All" selects every date.
func parseFilter(r *http.Request) (models.Filter, error) {
	var f models.Filter
	q := r.URL.Query()

	if s := q.Get("month"); s != "" && !strings.EqualFold(s, "all") {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			return f, errors.New("month must be between 1 and 12")
		}
		f.Month = m
	}
	if s := q.Get("year"); s != "" && !strings.EqualFold(s, "all") {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1 || y > 9999 {
			return f, errors.New("year must be a four-digit year")
		}
		f.Year = y
	}
	return f, nil
}

// CreateTransaction stores a transaction for the authenticated user.
func (h *Handlers) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	t, err := parseTransaction(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t.UserID = user.ID

	id, err := h.db.AddTransaction(r.Context(), t)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("AddTransaction error")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	t.ID = id

	writeJSON(w, http.StatusCreated, t)
}

// ListTransactions returns the authenticated user's transactions.
func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := h.db.ListTransactions(r.Context(), user.ID, f)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("ListTransactions error")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}

	writeJSON(w, http.StatusOK, txs)
}

// SummaryResponse is the payload of the summary endpoint.
type SummaryResponse struct {
	report.Summary
	Warning string `json:"warning,omitempty"`
}

// Summary aggregates the authenticated user's transactions for the same
// month/year filter as ListTransactions.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := h.db.ListTransactions(r.Context(), user.ID, f)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("ListTransactions error")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := SummaryResponse{Summary: report.Summarize(txs)}
	if len(resp.Overspending) > 0 {
		resp.Warning = overspendingWarning(resp.Overspending)

		amounts := zerolog.Dict()
		for _, c := range resp.Overspending {
			amounts.Str(c.Category, c.Amount.StringFixed(2))
		}
		zerolog.Ctx(r.Context()).Warn().
			Dict("categories", amounts).
			Str("threshold", report.OverspendThreshold.String()).
			Msg("High spending detected")
	}

	writeJSON(w, http.StatusOK, resp)
}

func overspendingWarning(over []report.CategoryAmount) string {
	parts := make([]string, 0, len(over))
	for _, c := range over {
		parts = append(parts, fmt.Sprintf("%s ($%s)", c.Category, c.Amount.StringFixed(2)))
	}
	return "High spending detected in: " + strings.Join(parts, ", ")
}

// Categories lists the suggested transaction categories.
func (h *Handlers) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Categories)
}
