package dbutil

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rowkit/rowkit/pkg/escape"
	"github.com/rowkit/rowkit/pkg/row"
)

// SequenceColumn is the auto-incrementing identity column prepended to
// auto-created tables.
const SequenceColumn = "seq"

// ColumnDef pairs a column name with its PostgreSQL type.
type ColumnDef struct {
	Name string
	Type string
}

// TableOptions controls table creation.
type TableOptions struct {
	// SequenceColumn prepends a "seq" bigserial column.
	SequenceColumn bool

	// PrimaryKey names the column to receive the primary key. When empty,
	// the sequence column is used if one was created.
	PrimaryKey string
}

// DDL issues structural statements. Index and primary key creation are
// guarded: they return false instead of an error when the schema, table, or
// column they target does not exist.
type DDL struct {
	exec  *Executor
	intro *Introspector
}

// NewDDL creates a DDL helper over exec.
func NewDDL(exec *Executor) *DDL {
	return &DDL{exec: exec, intro: NewIntrospector(exec)}
}

// CreateSchema creates a schema if it does not already exist.
func (d *DDL) CreateSchema(ctx context.Context, schema string) error {
	res := d.exec.ExecuteModify(ctx, "CREATE SCHEMA IF NOT EXISTS "+escape.Identifier(schema)+";", nil)
	return res.Err
}

// DropSchema drops a schema and everything in it.
func (d *DDL) DropSchema(ctx context.Context, schema string) error {
	res := d.exec.ExecuteModify(ctx, "DROP SCHEMA IF EXISTS "+escape.Identifier(schema)+" CASCADE;", nil)
	return res.Err
}

// DropTable drops a table if it exists.
func (d *DDL) DropTable(ctx context.Context, schema, table string) error {
	res := d.exec.ExecuteModify(ctx, "DROP TABLE IF EXISTS "+qualify(schema, table)+";", nil)
	return res.Err
}

// DropView drops a view if it exists.
func (d *DDL) DropView(ctx context.Context, schema, view string) error {
	res := d.exec.ExecuteModify(ctx, "DROP VIEW IF EXISTS "+qualify(schema, view)+";", nil)
	return res.Err
}

// CreateView creates or replaces a view over the given SELECT. The schema
// is created first if it does not exist.
func (d *DDL) CreateView(ctx context.Context, schema, view, selectSQL string) error {
	if err := d.ensureSchema(ctx, schema); err != nil {
		return err
	}
	res := d.exec.ExecuteModify(ctx, "CREATE OR REPLACE VIEW "+qualify(schema, view)+" AS "+selectSQL+";", nil)
	return res.Err
}

// ColumnTypeFor maps a value kind to the PostgreSQL column type used when
// deriving DDL from sampled data.
func ColumnTypeFor(v row.Value) string {
	switch v.Kind {
	case row.KindTime:
		return "timestamptz"
	case row.KindBool:
		return "bool"
	case row.KindInt:
		return "bigint"
	case row.KindFloat:
		return "double precision"
	case row.KindBytes:
		return "bytea"
	default:
		return "text"
	}
}

// CreateTableFromRow derives a column definition from a sample row, in the
// row's column order, and creates the table.
func (d *DDL) CreateTableFromRow(ctx context.Context, schema, table string, sample row.Row, opts TableOptions) error {
	cols := make([]ColumnDef, 0, sample.Len())
	for _, f := range sample.Fields() {
		cols = append(cols, ColumnDef{Name: f.Name, Type: ColumnTypeFor(f.Value)})
	}
	return d.CreateTable(ctx, schema, table, cols, opts)
}

// CreateTable creates a table if it does not already exist, then attaches a
// primary key per opts. The schema is created first if missing.
func (d *DDL) CreateTable(ctx context.Context, schema, table string, cols []ColumnDef, opts TableOptions) error {
	if len(cols) == 0 {
		return fmt.Errorf("table %s: no columns", table)
	}
	if err := d.ensureSchema(ctx, schema); err != nil {
		return err
	}

	defs := make([]string, 0, len(cols)+1)
	if opts.SequenceColumn {
		defs = append(defs, escape.Identifier(SequenceColumn)+" bigserial")
	}
	for _, col := range cols {
		defs = append(defs, escape.Identifier(col.Name)+" "+col.Type)
	}

	createSQL := "CREATE TABLE IF NOT EXISTS " + qualify(schema, table) + " (" + strings.Join(defs, ",") + ");"
	if res := d.exec.ExecuteModify(ctx, createSQL, nil); res.Failed() {
		return fmt.Errorf("failed to create table %s: %w", table, res.Err)
	}

	keyColumn := opts.PrimaryKey
	if keyColumn != "" {
		valid := slices.ContainsFunc(cols, func(c ColumnDef) bool { return c.Name == keyColumn })
		if !valid && opts.SequenceColumn {
			keyColumn = SequenceColumn
		}
	} else if opts.SequenceColumn {
		keyColumn = SequenceColumn
	}
	if keyColumn == "" {
		return nil
	}

	if _, err := d.AddPrimaryKey(ctx, schema, table, keyColumn); err != nil {
		return fmt.Errorf("failed to add primary key to %s: %w", table, err)
	}
	return nil
}

// CreateIndex creates an index on a column. Returns false without error
// when the schema, table, or column does not exist.
func (d *DDL) CreateIndex(ctx context.Context, schema, table, column string) (bool, error) {
	ok, err := d.guard(ctx, schema, table, column)
	if !ok || err != nil {
		return false, err
	}

	indexName := escape.Identifier(table + "_" + column + "_idx")
	createSQL := "CREATE INDEX " + indexName + " ON " + qualify(schema, table) + " (" + escape.Identifier(column) + ");"
	if res := d.exec.ExecuteModify(ctx, createSQL, nil); res.Failed() {
		return false, res.Err
	}
	return true, nil
}

// AddPrimaryKey attaches a primary key to a column. Returns false without
// error when the schema, table, or column does not exist.
func (d *DDL) AddPrimaryKey(ctx context.Context, schema, table, column string) (bool, error) {
	ok, err := d.guard(ctx, schema, table, column)
	if !ok || err != nil {
		return false, err
	}

	alterSQL := "ALTER TABLE " + qualify(schema, table) + " ADD PRIMARY KEY (" + escape.Identifier(column) + ");"
	if res := d.exec.ExecuteModify(ctx, alterSQL, nil); res.Failed() {
		return false, res.Err
	}
	return true, nil
}

// guard verifies that schema, table, and column all exist.
func (d *DDL) guard(ctx context.Context, schema, table, column string) (bool, error) {
	schemas, err := d.intro.ListSchemas(ctx)
	if err != nil {
		return false, err
	}
	if !slices.Contains(schemas, schema) {
		return false, nil
	}

	tables, err := d.intro.ListTables(ctx, schema, true)
	if err != nil {
		return false, err
	}
	if !slices.Contains(tables, table) {
		return false, nil
	}

	columns, err := d.intro.ListColumns(ctx, schema, table)
	if err != nil {
		return false, err
	}
	return slices.Contains(columns, column), nil
}

func (d *DDL) ensureSchema(ctx context.Context, schema string) error {
	schemas, err := d.intro.ListSchemas(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(schemas, schema) {
		return nil
	}
	return d.CreateSchema(ctx, schema)
}

func qualify(schema, name string) string {
	return escape.Identifier(schema) + "." + escape.Identifier(name)
}
