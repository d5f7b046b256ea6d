package writer

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rowkit/rowkit/pkg/escape"
	"github.com/rowkit/rowkit/pkg/row"
)

// buildInsertStatement builds the parameterized INSERT template from the
// first row's column set. The template carries a single placeholder tuple
// that spliceValues later swaps for the rendered multi-row values.
func buildInsertStatement(schema, table string, first row.Row) string {
	cols := make([]string, first.Len())
	for i, f := range first.Fields() {
		cols[i] = escape.Identifier(f.Name)
	}

	return "INSERT INTO " + escape.Identifier(schema) + "." + escape.Identifier(table) +
		" (" + strings.Join(cols, ",") + ") VALUES " + placeholderTuple(first.Len()) + ";"
}

// placeholderTuple renders ($1,...,$n).
func placeholderTuple(n int) string {
	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	return "(" + strings.Join(placeholders, ",") + ")"
}

// spliceValues renders each row's values as one literal tuple and splices
// the comma-joined tuples into the template in place of the placeholder
// tuple, producing a single multi-row INSERT. Replacing into the cached
// template is cheaper than binding parameters row by row, which is the
// point of batching here.
func spliceValues(stmt string, rows []row.Row) string {
	tuples := make([]string, len(rows))
	for i, r := range rows {
		tuples[i] = renderTuple(r)
	}
	placeholder := "VALUES " + placeholderTuple(rows[0].Len())
	return strings.Replace(stmt, placeholder, "VALUES "+strings.Join(tuples, ","), 1)
}

func renderTuple(r row.Row) string {
	values := make([]string, r.Len())
	for i, f := range r.Fields() {
		values[i] = renderValue(f.Value)
	}
	return "(" + strings.Join(values, ",") + ")"
}

// renderValue encodes a scalar as a PostgreSQL literal: quoting and
// escaping equivalent to driver parameter binding.
func renderValue(v row.Value) string {
	switch v.Kind {
	case row.KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case row.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case row.KindFloat:
		return renderFloat(v.Float)
	case row.KindBytes:
		return `'\x` + hex.EncodeToString(v.Bytes) + `'`
	case row.KindTime:
		return escape.SingleQuote(v.Time.UTC().Format(time.RFC3339Nano))
	case row.KindNull:
		return "NULL"
	default:
		return escape.SingleQuote(escape.Literal(v.Text))
	}
}

// renderFloat quotes the non-finite values; a bare NaN or Infinity is not
// valid PostgreSQL syntax.
func renderFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "'NaN'"
	case math.IsInf(f, 1):
		return "'Infinity'"
	case math.IsInf(f, -1):
		return "'-Infinity'"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
