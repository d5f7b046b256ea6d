// Package session manages a shared PostgreSQL connection pool and hands out
// scoped readers and writers, each pinned to a dedicated connection that is
// returned to the pool when the caller is done.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver

	"github.com/rowkit/rowkit/pkg/reader"
	"github.com/rowkit/rowkit/pkg/writer"
)

// Session owns the pool for one database.
type Session struct {
	db     *sql.DB
	cfg    Config
	logger *slog.Logger
}

// Open connects to the database described by cfg and verifies the connection
// with a ping. A nil logger discards.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg.ApplyDefaults()

	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.PoolSize)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database session opened", slog.String("target", cfg.Redacted()))
	return &Session{db: db, cfg: cfg, logger: logger}, nil
}

// DB exposes the underlying pool for callers that need direct access.
func (s *Session) DB() *sql.DB {
	return s.db
}

// Reader checks out a dedicated connection, opens a reader over it and runs
// fn. The connection is released when fn returns.
func (s *Session) Reader(ctx context.Context, cfg reader.Config, fn func(r *reader.Reader) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	r, err := reader.New(conn, cfg)
	if err != nil {
		return err
	}
	return fn(r)
}

// Writer checks out a dedicated connection, opens a writer over it and runs
// fn. The writer inherits the session DSN for its fresh-connection final
// attempt. The connection is released when fn returns.
func (s *Session) Writer(ctx context.Context, cfg writer.Config, fn func(w *writer.Writer) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if cfg.DSN == "" {
		cfg.DSN = s.cfg.DSN()
	}
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	w, err := writer.New(conn, cfg)
	if err != nil {
		return err
	}
	return fn(w)
}

// Close releases the pool.
func (s *Session) Close() error {
	return s.db.Close()
}
