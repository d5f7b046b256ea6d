package dbutil

import (
	"context"

	"github.com/rowkit/rowkit/pkg/escape"
	"github.com/rowkit/rowkit/pkg/row"
)

// Introspector answers read-only catalog questions about schemas, tables,
// and columns. It is used as the guard layer in front of structural DDL.
type Introspector struct {
	exec *Executor
}

// NewIntrospector creates an introspector over exec.
func NewIntrospector(exec *Executor) *Introspector {
	return &Introspector{exec: exec}
}

// ListSchemas returns all schema names in the database, sorted.
func (in *Introspector) ListSchemas(ctx context.Context) ([]string, error) {
	res := in.exec.Execute(ctx,
		`SELECT schema_name FROM information_schema.schemata ORDER BY schema_name`,
		nil, true)
	if res.Failed() {
		return nil, res.Err
	}
	return flatten(res.Rows, "schema_name"), nil
}

// ListTables returns all table names in a schema, sorted. Views are
// included unless includeViews is false.
func (in *Introspector) ListTables(ctx context.Context, schema string, includeViews bool) ([]string, error) {
	query := `SELECT table_name FROM information_schema.tables WHERE table_schema = $1 `
	if !includeViews {
		query += `AND table_type = 'BASE TABLE' `
	}
	query += `ORDER BY table_name`

	res := in.exec.Execute(ctx, query, []any{schema}, true)
	if res.Failed() {
		return nil, res.Err
	}
	return flatten(res.Rows, "table_name"), nil
}

// ListColumns returns the column names of a table, sorted.
func (in *Introspector) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	res := in.exec.Execute(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 ORDER BY column_name`,
		[]any{schema, table}, true)
	if res.Failed() {
		return nil, res.Err
	}
	return flatten(res.Rows, "column_name"), nil
}

// RelationExists probes for a table or view by casting its qualified name
// to regclass, which avoids a catalog scan.
func (in *Introspector) RelationExists(ctx context.Context, schema, table string) (bool, error) {
	relation := escape.Identifier(schema) + "." + escape.Identifier(table)
	res := in.exec.Execute(ctx, `SELECT to_regclass($1) IS NOT NULL AS exists`, []any{relation}, true)
	if res.Failed() {
		return false, res.Err
	}
	if len(res.Rows) == 0 {
		return false, nil
	}
	v, ok := res.Rows[0].Get("exists")
	return ok && v.Kind == row.KindBool && v.Bool, nil
}

// flatten extracts the named text field from each row, preserving order.
func flatten(rows []row.Row, field string) []string {
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if v, ok := r.Get(field); ok {
			names = append(names, v.Text)
		}
	}
	return names
}
