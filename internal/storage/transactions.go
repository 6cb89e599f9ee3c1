package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance-tracker/internal/models"
)

// AddTransaction inserts a transaction owned by t.UserID and returns its ID.
// Amounts and descriptions are stored as given.
func (db *DB) AddTransaction(ctx context.Context, t models.Transaction) (int64, error) {
	if !t.Type.Valid() {
		return 0, models.ErrInvalidType
	}
	result, err := db.conn.ExecContext(ctx, `
		INSERT INTO transactions (user_id, date, type, category, description, amount)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, t.DateString(), string(t.Type), t.Category, t.Description, t.Amount,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListTransactions returns the owner's transactions ordered by date, optionally
// narrowed to a calendar month and/or year of the stored date.
func (db *DB) ListTransactions(ctx context.Context, ownerID int64, f models.Filter) ([]models.Transaction, error) {
	var where strings.Builder
	where.WriteString("COALESCE(user_id, 0) = ?")
	args := []any{ownerID}
	if f.Month != 0 {
		where.WriteString(" AND strftime('%m', date) = ?")
		args = append(args, fmt.Sprintf("%02d", f.Month))
	}
	if f.Year != 0 {
		where.WriteString(" AND strftime('%Y', date) = ?")
		args = append(args, fmt.Sprintf("%04d", f.Year))
	}

	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, COALESCE(user_id, 0), date, type, category, description, amount FROM transactions WHERE "+
			where.String()+" ORDER BY date, id",
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var (
			t      models.Transaction
			date   string
			txType string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &date, &txType, &t.Category, &t.Description, &t.Amount); err != nil {
			return nil, err
		}
		t.Date, err = time.Parse(models.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: bad date %q: %w", t.ID, date, err)
		}
		t.Type = models.TxType(txType)
		txs = append(txs, t)
	}

	return txs, rows.Err()
}

// ReassignOrphans hands every unowned transaction to ownerID and returns the
// number of rows moved. Running it again once no orphans remain is a no-op.
func (db *DB) ReassignOrphans(ctx context.Context, ownerID int64) (int64, error) {
	if ownerID == models.UnownedUserID {
		return 0, errors.New("reassign orphans: owner must be a real user")
	}
	result, err := db.conn.ExecContext(ctx,
		"UPDATE transactions SET user_id = ? WHERE COALESCE(user_id, 0) = 0",
		ownerID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CountOrphans returns the number of unowned transactions.
func (db *DB) CountOrphans(ctx context.Context) (int64, error) {
	var n int64
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE COALESCE(user_id, 0) = 0",
	).Scan(&n)
	return n, err
}
