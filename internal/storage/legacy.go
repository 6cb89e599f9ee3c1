package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// upgradeLegacySchema brings tables written by the original single-user app up
// to date. Transactions gain an owner column defaulting to the unowned
// sentinel, and the users.password digest column is renamed to password_hash.
// Missing tables are left for the migrations to create.
func upgradeLegacySchema(ctx context.Context, q queryer) error {
	added, err := ensureOwnerColumn(ctx, q)
	if err != nil {
		return err
	}
	if added {
		log.Info().Str("table", "transactions").Msg("Database upgraded: 'user_id' column added")
	}

	cols, err := tableColumns(ctx, q, "users")
	if err != nil {
		return err
	}
	if cols["password"] && !cols["password_hash"] {
		if _, err := q.ExecContext(ctx, `ALTER TABLE users RENAME COLUMN password TO password_hash`); err != nil {
			return fmt.Errorf("rename users.password: %w", err)
		}
		log.Info().Str("table", "users").Msg("Database upgraded: 'password' column renamed to 'password_hash'")
	}
	return nil
}

// ensureOwnerColumn adds transactions.user_id when the table exists without
// it. It reports whether the column was added.
func ensureOwnerColumn(ctx context.Context, q queryer) (bool, error) {
	cols, err := tableColumns(ctx, q, "transactions")
	if err != nil {
		return false, err
	}
	if len(cols) == 0 || cols["user_id"] {
		return false, nil
	}
	if _, err := q.ExecContext(ctx, `ALTER TABLE transactions ADD COLUMN user_id INTEGER DEFAULT 0`); err != nil {
		return false, fmt.Errorf("add transactions.user_id: %w", err)
	}
	return true, nil
}

// tableColumns returns the column names of table, or an empty set when the
// table does not exist.
func tableColumns(ctx context.Context, q queryer, table string) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
