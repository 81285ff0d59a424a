package db

import (
	"context"
	"database/sql"
)

type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func HasTable(ctx context.Context, q QueryRower, table string) bool {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

func HasColumn(ctx context.Context, q QueryRower, table, column string) bool {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		  AND column_name = ?
		LIMIT 1
	`, table, column).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

// EnsureColumn adds column to an existing table when it is missing.
// definition is the column spec that follows the name in ALTER TABLE ... ADD COLUMN.
func EnsureColumn(ctx context.Context, q interface {
	QueryRower
	Execer
}, table, column, definition string) error {
	if HasColumn(ctx, q, table, column) {
		return nil
	}
	_, err := q.ExecContext(ctx, "ALTER TABLE "+table+" ADD COLUMN "+column+" "+definition)
	return err
}

// EnsureTable runs ddl only when table is missing.
func EnsureTable(ctx context.Context, q interface {
	QueryRower
	Execer
}, table, ddl string) error {
	if HasTable(ctx, q, table) {
		return nil
	}
	_, err := q.ExecContext(ctx, ddl)
	return err
}
