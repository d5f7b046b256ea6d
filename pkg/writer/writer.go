// Package writer provides best-effort bulk insertion of row batches into
// auto-provisioned tables. Each table in a batch is written independently
// inside a bounded attempt loop; the final attempt abandons the held
// connection and dials a fresh one, on the assumption that a connection
// that failed every earlier attempt is poisoned.
package writer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	"github.com/sethvargo/go-retry"

	"github.com/rowkit/rowkit/pkg/dbutil"
	"github.com/rowkit/rowkit/pkg/row"
)

const (
	// DefaultMaxAttempts bounds the per-table attempt loop.
	DefaultMaxAttempts = 5

	// DefaultRetryDelay is the fixed wait between attempts.
	DefaultRetryDelay = time.Second
)

// Conn is the connection surface the writer drives directly. It is
// satisfied by *sql.DB and *sql.Conn.
type Conn interface {
	dbutil.Querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// CloseableConn is a dialed connection the writer owns and must close.
type CloseableConn interface {
	Conn
	Close() error
}

// DialFunc opens a brand-new connection from a connection descriptor. Used
// only on the final attempt.
type DialFunc func(ctx context.Context, dsn string) (CloseableConn, error)

// Config binds a Writer to a schema and tunes its retry behavior.
type Config struct {
	// Schema receives all tables written by this Writer.
	Schema string

	// AutoCreateTables derives and issues CREATE TABLE from the first row
	// of a table's batch on the first write.
	AutoCreateTables bool

	// KeyColumn names the primary key column for auto-created tables.
	// Defaults to the sequence column.
	KeyColumn string

	// MaxAttempts bounds the attempt loop per table. Defaults to
	// DefaultMaxAttempts.
	MaxAttempts int

	// RetryDelay is the fixed wait between attempts. Defaults to
	// DefaultRetryDelay.
	RetryDelay time.Duration

	// DSN is the connection descriptor used when the final attempt dials a
	// fresh connection.
	DSN string

	// Dial opens the final-attempt connection. Defaults to the pgx stdlib
	// driver against DSN.
	Dial DialFunc

	// Logger defaults to a discard logger.
	Logger *slog.Logger
}

// Writer inserts row batches into tables within one schema. Its
// created-tables set and insert-statement cache live for the Writer's
// lifetime and are never invalidated; a Writer is for a single caller at a
// time.
type Writer struct {
	conn   Conn
	ddl    *dbutil.DDL
	cfg    Config
	logger *slog.Logger

	created    map[string]bool
	statements map[string]string
}

// New creates a Writer over a dedicated connection.
func New(conn Conn, cfg Config) (*Writer, error) {
	if cfg.Schema == "" {
		return nil, fmt.Errorf("writer requires a schema")
	}
	if cfg.KeyColumn == "" {
		cfg.KeyColumn = dbutil.SequenceColumn
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Dial == nil {
		cfg.Dial = dialPostgres
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &Writer{
		conn:       conn,
		ddl:        dbutil.NewDDL(dbutil.NewExecutor(conn, cfg.Logger)),
		cfg:        cfg,
		logger:     cfg.Logger,
		created:    make(map[string]bool),
		statements: make(map[string]string),
	}, nil
}

// WriteTableData writes every table's rows from the batch. Each table gets
// its own independent attempt loop; the result is true only if all tables
// were written. Exhausted retries are logged, never raised.
func (w *Writer) WriteTableData(ctx context.Context, batch *row.Batch) bool {
	ok := true
	for _, table := range batch.Tables() {
		rows := batch.Rows(table)
		if err := w.writeTable(ctx, table, rows); err != nil {
			w.logger.Error("failed to insert rows",
				slog.String("table", table),
				slog.Int("rows", len(rows)),
				slog.Any("error", err))
			ok = false
		}
	}
	return ok
}

// writeTable runs the attempt loop for one table's rows.
func (w *Writer) writeTable(ctx context.Context, table string, rows []row.Row) error {
	attempt := 0
	backoff := retry.WithMaxRetries(uint64(w.cfg.MaxAttempts-1), retry.NewConstant(w.cfg.RetryDelay))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := w.attemptWrite(ctx, table, rows, attempt == w.cfg.MaxAttempts)
		if err != nil && attempt < w.cfg.MaxAttempts {
			w.logger.Warn("insert attempt failed",
				slog.String("table", table),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			return retry.RetryableError(err)
		}
		return err
	})
}

// attemptWrite performs one attempt: auto-create DDL if needed, build or
// reuse the insert template, then execute the multi-row INSERT in a
// transaction. On the final attempt the insert runs on a freshly dialed
// connection, closed right after commit.
func (w *Writer) attemptWrite(ctx context.Context, table string, rows []row.Row, finalAttempt bool) error {
	if len(rows) == 0 {
		return nil
	}

	if w.cfg.AutoCreateTables && !w.created[table] {
		opts := dbutil.TableOptions{SequenceColumn: true, PrimaryKey: w.cfg.KeyColumn}
		if err := w.ddl.CreateTableFromRow(ctx, w.cfg.Schema, table, rows[0], opts); err != nil {
			return err
		}
		w.created[table] = true
	}

	stmt, ok := w.statements[table]
	if !ok {
		stmt = buildInsertStatement(w.cfg.Schema, table, rows[0])
		w.statements[table] = stmt
	}

	conn := w.conn
	if finalAttempt {
		fresh, err := w.cfg.Dial(ctx, w.cfg.DSN)
		if err != nil {
			return fmt.Errorf("failed to open fresh connection: %w", err)
		}
		defer func() { _ = fresh.Close() }()
		conn = fresh
	}

	final := spliceValues(stmt, rows)

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, final); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insert into %s: %w", table, err)
	}

	w.logger.Debug("inserted rows", slog.Int("rows", len(rows)), slog.String("table", table))
	return nil
}

// dialPostgres is the default DialFunc: a single-shot pgx stdlib pool.
func dialPostgres(ctx context.Context, dsn string) (CloseableConn, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
