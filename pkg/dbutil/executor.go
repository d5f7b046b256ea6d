// Package dbutil provides the SQL access layer: a query executor with an
// explicit result type, catalog introspection, and guarded DDL helpers.
// Everything runs against a Querier, which is satisfied by *sql.DB,
// *sql.Conn, and *sql.Tx alike, so callers decide whether they are working
// on a pool, a dedicated connection, or inside a transaction.
package dbutil

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rowkit/rowkit/pkg/row"
)

// Querier is the minimal statement-execution surface the executor needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Beginner is implemented by Queriers that can open transactions
// (*sql.DB and *sql.Conn, but not *sql.Tx).
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Result carries the outcome of a single statement. It distinguishes
// rows-returned, no-rows-but-ok, and failed, so callers can branch on
// failure instead of parsing logs.
type Result struct {
	Rows     []row.Row
	Affected int64
	Err      error
}

// Failed reports whether the statement failed to execute.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Executor runs SQL statements against a caller-held Querier. Execution
// failures are logged with the whitespace-collapsed statement text and
// surfaced through Result.Err; the executor itself never panics or retries.
type Executor struct {
	q      Querier
	logger *slog.Logger
}

// NewExecutor creates an executor over q.
// If logger is nil, a discard logger is used.
func NewExecutor(q Querier, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{q: q, logger: logger}
}

// Execute runs query with positional params. With wantRows it returns the
// result set as ordered rows; without, it executes the statement and
// records the affected row count.
func (e *Executor) Execute(ctx context.Context, query string, params []any, wantRows bool) Result {
	if !wantRows {
		res, err := e.q.ExecContext(ctx, query, params...)
		if err != nil {
			return e.fail(query, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			// Drivers may not report counts; not a statement failure.
			affected = 0
		}
		e.logger.Debug("executed", slog.String("sql", normalizeSQL(query)))
		return Result{Affected: affected}
	}

	rows, err := e.q.QueryContext(ctx, query, params...)
	if err != nil {
		return e.fail(query, err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRows(rows)
	if err != nil {
		return e.fail(query, err)
	}
	e.logger.Debug("executed", slog.String("sql", normalizeSQL(query)), slog.Int("rows", len(records)))
	return Result{Rows: records}
}

// ExecuteModify runs a statement that returns no rows.
func (e *Executor) ExecuteModify(ctx context.Context, query string, params []any) Result {
	return e.Execute(ctx, query, params, false)
}

// ExecuteList runs a sequence of statements as one committed transaction
// over a single connection. Unlike Execute, failure propagates: the whole
// transaction rolls back and the error is returned.
func (e *Executor) ExecuteList(ctx context.Context, queries []string, params []any) error {
	b, ok := e.q.(Beginner)
	if !ok {
		return fmt.Errorf("executor target does not support transactions")
	}

	tx, err := b.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, query := range queries {
		if _, err := tx.ExecContext(ctx, query, params...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to execute %q: %w", normalizeSQL(query), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	e.logger.Debug("executed statement list", slog.Int("count", len(queries)))
	return nil
}

// QueryFrame runs query and returns the result set as a columnar Frame,
// the tabular alternative to []row.Row.
func (e *Executor) QueryFrame(ctx context.Context, query string, params []any) (Frame, error) {
	rows, err := e.q.QueryContext(ctx, query, params...)
	if err != nil {
		e.logger.Error("failed to execute", slog.String("sql", normalizeSQL(query)), slog.Any("error", err))
		return Frame{}, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanFrame(rows)
}

func (e *Executor) fail(query string, err error) Result {
	e.logger.Error("failed to execute", slog.String("sql", normalizeSQL(query)), slog.Any("error", err))
	return Result{Err: err}
}

// scanRows materializes a result set as ordered rows.
func scanRows(rows *sql.Rows) ([]row.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read column descriptors: %w", err)
	}

	var records []row.Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		fields := make([]row.Field, len(columns))
		for i, name := range columns {
			fields[i] = row.Field{Name: name, Value: row.FromAny(values[i])}
		}
		r, err := row.FromFields(fields)
		if err != nil {
			return nil, fmt.Errorf("failed to build row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

// normalizeSQL collapses whitespace so multi-line statements log on one line.
func normalizeSQL(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
