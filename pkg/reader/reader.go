// Package reader provides bounded-memory iteration over arbitrarily large
// tables. A Reader is bound to one (schema, table, filter, sort) tuple;
// each Open snapshots the row count and returns a fresh Cursor that pages
// through the table with a bounded look-ahead cache, so a full scan never
// holds more than one cache window in memory.
package reader

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rowkit/rowkit/pkg/dbutil"
	"github.com/rowkit/rowkit/pkg/escape"
	"github.com/rowkit/rowkit/pkg/row"
)

// DefaultCacheMaxRows is the page size used when Config.CacheMaxRows is
// unset: the maximum number of rows held in memory at once.
const DefaultCacheMaxRows = 10000

// SortColumn names a sort column and its direction.
type SortColumn struct {
	Column string
	Desc   bool
}

// Config binds a Reader to a table and iteration order.
type Config struct {
	// Schema and Table name the relation to iterate.
	Schema string
	Table  string

	// Where is an optional raw boolean filter expression. It is caller
	// trusted, but statement terminators and inline comment markers are
	// stripped before use.
	Where string

	// Sort lists the sort columns in precedence order. When empty, row
	// order is database default and may vary between pages if the table
	// mutates mid-iteration.
	Sort []SortColumn

	// CacheMaxRows caps the in-memory cache window. Defaults to
	// DefaultCacheMaxRows.
	CacheMaxRows int

	// Logger defaults to a discard logger.
	Logger *slog.Logger
}

// Reader iterates a table's rows in a stable sort order using a bounded
// look-ahead cache. A Reader is re-iterable: every Open returns an
// independent Cursor with freshly snapshotted state.
type Reader struct {
	exec *dbutil.Executor
	cfg  Config
}

// New creates a Reader over q bound to cfg.
func New(q dbutil.Querier, cfg Config) (*Reader, error) {
	if cfg.Schema == "" || cfg.Table == "" {
		return nil, fmt.Errorf("reader requires schema and table")
	}
	if cfg.CacheMaxRows <= 0 {
		cfg.CacheMaxRows = DefaultCacheMaxRows
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{exec: dbutil.NewExecutor(q, cfg.Logger), cfg: cfg}, nil
}

// Open snapshots the filtered row count and fills the first cache window
// from offset 0. The returned Cursor is independent of any previously
// opened one.
func (r *Reader) Open(ctx context.Context) (*Cursor, error) {
	count, err := r.rowCount(ctx)
	if err != nil {
		return nil, err
	}

	page, err := r.fetchPage(ctx, 0)
	if err != nil {
		return nil, err
	}

	r.cfg.Logger.Debug("opened cursor",
		slog.String("table", r.cfg.Table),
		slog.Int64("rows", count),
		slog.Int("first_page", len(page)))

	return &Cursor{
		reader:   r,
		rowCount: count,
		cache:    page,
		cacheMin: 0,
		cacheMax: int64(len(page)) - 1,
	}, nil
}

// Page fetches one window of up to limit rows at the given offset as a
// columnar frame, the tabular alternative to cursor iteration.
func (r *Reader) Page(ctx context.Context, limit, offset int64) (dbutil.Frame, error) {
	return r.exec.QueryFrame(ctx, r.selectSQL(limit, offset), nil)
}

// rowCount counts rows under the bound filter.
func (r *Reader) rowCount(ctx context.Context) (int64, error) {
	query := "SELECT COUNT(1) AS row_count FROM " + r.relation() + " " + r.whereSQL() + ";"
	res := r.exec.Execute(ctx, query, nil, true)
	if res.Failed() {
		return 0, fmt.Errorf("failed to count rows in %s: %w", r.cfg.Table, res.Err)
	}
	if len(res.Rows) == 0 {
		return 0, fmt.Errorf("row count query for %s returned no rows", r.cfg.Table)
	}
	v, ok := res.Rows[0].Get("row_count")
	if !ok || v.Kind != row.KindInt {
		return 0, fmt.Errorf("row count query for %s returned unexpected shape", r.cfg.Table)
	}
	return v.Int, nil
}

// fetchPage reads up to CacheMaxRows rows starting at offset.
func (r *Reader) fetchPage(ctx context.Context, offset int64) ([]row.Row, error) {
	res := r.exec.Execute(ctx, r.selectSQL(int64(r.cfg.CacheMaxRows), offset), nil, true)
	if res.Failed() {
		return nil, fmt.Errorf("failed to fetch page of %s at offset %d: %w", r.cfg.Table, offset, res.Err)
	}
	return res.Rows, nil
}

func (r *Reader) selectSQL(limit, offset int64) string {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(r.relation())
	b.WriteString(" ")
	b.WriteString(r.whereSQL())
	b.WriteString(" ")
	b.WriteString(r.orderSQL())
	b.WriteString(" LIMIT ")
	b.WriteString(strconv.FormatInt(limit, 10))
	b.WriteString(" OFFSET ")
	b.WriteString(strconv.FormatInt(offset, 10))
	b.WriteString(";")
	return b.String()
}

func (r *Reader) relation() string {
	return escape.Identifier(r.cfg.Schema) + "." + escape.Identifier(r.cfg.Table)
}

func (r *Reader) whereSQL() string {
	if r.cfg.Where == "" {
		return ""
	}
	return "WHERE " + escape.Clause(r.cfg.Where)
}

func (r *Reader) orderSQL() string {
	if len(r.cfg.Sort) == 0 {
		return ""
	}
	items := make([]string, len(r.cfg.Sort))
	for i, s := range r.cfg.Sort {
		direction := " ASC"
		if s.Desc {
			direction = " DESC"
		}
		items[i] = escape.Identifier(s.Column) + direction
	}
	return "ORDER BY " + strings.Join(items, ",")
}
