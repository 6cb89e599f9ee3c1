package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the on-disk and wire format of a transaction date.
const DateLayout = "2006-01-02"

// UnownedUserID marks a transaction that is not yet attributed to any user.
const UnownedUserID int64 = 0

// ErrInvalidType is returned for a transaction type other than Income or Expense.
var ErrInvalidType = errors.New("transaction type must be Income or Expense")

// TxType is the kind of a transaction.
type TxType string

const (
	Income  TxType = "Income"
	Expense TxType = "Expense"
)

// ParseTxType accepts exactly "Income" or "Expense".
func ParseTxType(s string) (TxType, error) {
	switch TxType(s) {
	case Income, Expense:
		return TxType(s), nil
	}
	return "", ErrInvalidType
}

// Valid reports whether t is one of the two known types.
func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// Categories suggested to clients. The store accepts any category string.
var Categories = []string{"Salary", "Food", "Entertainment", "Bills", "Others"}

// Transaction represents a single income or expense record.
type Transaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Date        time.Time       `json:"-"`
	Type        TxType          `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// DateString returns the transaction date as YYYY-MM-DD.
func (t Transaction) DateString() string {
	return t.Date.Format(DateLayout)
}

// MarshalJSON renders the date as YYYY-MM-DD.
func (t Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	return json.Marshal(struct {
		plain
		Date string `json:"date"`
	}{plain(t), t.DateString()})
}

// MonthKey returns the calendar month of the transaction as YYYY-MM.
func (t Transaction) MonthKey() string {
	return t.Date.Format("2006-01")
}

// Filter narrows a transaction listing. Zero values select every date.
type Filter struct {
	Month int // 1-12, 0 = any
	Year  int // 0 = any
}
