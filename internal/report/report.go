// Package report derives totals, category breakdowns, monthly series and
// overspending warnings from a set of transactions. Nothing here touches
// storage.
package report

import (
	"sort"

	"finance-tracker/internal/models"

	"github.com/shopspring/decimal"
)

// OverspendThreshold is the per-category expense sum above which a category
// is reported as overspent.
var OverspendThreshold = decimal.NewFromInt(1000)

// Totals holds income, expense and their difference.
type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// CategoryAmount is an amount summed under one category.
type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// MonthAmounts is one row of the month x type matrix. Both cells are always
// present, zero when the month has no rows of that type.
type MonthAmounts struct {
	Month   string          `json:"month"` // YYYY-MM
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Summary bundles every aggregate for one transaction set.
type Summary struct {
	Totals       Totals           `json:"totals"`
	ByCategory   []CategoryAmount `json:"by_category"`
	Monthly      []MonthAmounts   `json:"monthly"`
	Overspending []CategoryAmount `json:"overspending"`
}

// Summarize computes all aggregates. An empty input yields zero totals and
// empty (non-nil) slices.
func Summarize(txs []models.Transaction) Summary {
	byCategory := CategoryBreakdown(txs)
	return Summary{
		Totals:       ComputeTotals(txs),
		ByCategory:   byCategory,
		Monthly:      MonthlySeries(txs),
		Overspending: Overspending(byCategory),
	}
}

// ComputeTotals sums income and expense amounts.
func ComputeTotals(txs []models.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case models.Income:
			t.Income = t.Income.Add(tx.Amount)
		case models.Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Net = t.Income.Sub(t.Expense)
	return t
}

// CategoryBreakdown sums expenses per category, sorted by category name.
// Income rows are ignored.
func CategoryBreakdown(txs []models.Transaction) []CategoryAmount {
	sums := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type != models.Expense {
			continue
		}
		sums[tx.Category] = sums[tx.Category].Add(tx.Amount)
	}

	out := make([]CategoryAmount, 0, len(sums))
	for cat, amount := range sums {
		out = append(out, CategoryAmount{Category: cat, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// MonthlySeries sums amounts per calendar month and type, in month order.
// Only months with at least one transaction appear.
func MonthlySeries(txs []models.Transaction) []MonthAmounts {
	rows := make(map[string]*MonthAmounts)
	for _, tx := range txs {
		key := tx.MonthKey()
		row, ok := rows[key]
		if !ok {
			row = &MonthAmounts{Month: key}
			rows[key] = row
		}
		switch tx.Type {
		case models.Income:
			row.Income = row.Income.Add(tx.Amount)
		case models.Expense:
			row.Expense = row.Expense.Add(tx.Amount)
		}
	}

	out := make([]MonthAmounts, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// Overspending returns the categories whose sum strictly exceeds
// OverspendThreshold, preserving the input order.
func Overspending(breakdown []CategoryAmount) []CategoryAmount {
	out := make([]CategoryAmount, 0)
	for _, c := range breakdown {
		if c.Amount.GreaterThan(OverspendThreshold) {
			out = append(out, c)
		}
	}
	return out
}
