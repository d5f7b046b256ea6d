// Package row defines the data model shared by the reader and writer: an
// ordered Row of named scalar values, and a Batch grouping rows by
// destination table.
package row

import "fmt"

// Field is a single named cell within a Row.
type Field struct {
	Name  string
	Value Value
}

// Row is an ordered mapping from column name to scalar value. Column order
// is insertion order and column names are unique within a row.
type Row struct {
	fields []Field
	byName map[string]int
}

// FromFields builds a Row from an ordered field list. Duplicate column
// names are rejected.
func FromFields(fields []Field) (Row, error) {
	r := Row{
		fields: make([]Field, 0, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if _, dup := r.byName[f.Name]; dup {
			return Row{}, fmt.Errorf("duplicate column %q", f.Name)
		}
		r.byName[f.Name] = len(r.fields)
		r.fields = append(r.fields, f)
	}
	return r, nil
}

// Get returns the value for a column and whether the column exists.
func (r Row) Get(name string) (Value, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Value{}, false
	}
	return r.fields[i].Value, true
}

// Fields returns the row's fields in column order. The slice must not be
// mutated.
func (r Row) Fields() []Field {
	return r.fields
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.fields)
}
