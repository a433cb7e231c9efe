package db

import (
	"context"
	"database/sql"

	"cdr.dev/slog"
	"golang.org/x/xerrors"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// LogAndQueryRow logs the statement at debug level and runs it. Errors are
// deferred to Scan, like database/sql.
func LogAndQueryRow(ctx context.Context, logger slog.Logger, db Querier, query string, args ...interface{}) *sql.Row {
	logger.Debug(ctx, "query row", slog.F("sql", query), slog.F("args", args))

	return db.QueryRowContext(ctx, query, args...)
}

func LogAndExec(ctx context.Context, logger slog.Logger, db Querier, query string, args ...interface{}) (sql.Result, error) {
	logger.Debug(ctx, "exec", slog.F("sql", query), slog.F("args", args))

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, xerrors.Errorf("exec: %w", err)
	}

	return res, nil
}
