package writer

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowkit/rowkit/pkg/row"
)

func mustRow(t *testing.T, fields ...row.Field) row.Row {
	t.Helper()
	r, err := row.FromFields(fields)
	require.NoError(t, err)
	return r
}

func TestBuildInsertStatement(t *testing.T) {
	first := mustRow(t,
		row.Field{Name: "a", Value: row.Int(1)},
		row.Field{Name: "b", Value: row.Text("x")},
	)
	stmt := buildInsertStatement("public", "t", first)
	assert.Equal(t, `INSERT INTO "public"."t" ("a","b") VALUES ($1,$2);`, stmt)
}

func TestSpliceValues(t *testing.T) {
	first := mustRow(t,
		row.Field{Name: "a", Value: row.Int(1)},
		row.Field{Name: "b", Value: row.Text("x")},
	)
	second := mustRow(t,
		row.Field{Name: "a", Value: row.Int(2)},
		row.Field{Name: "b", Value: row.Text("y")},
	)

	stmt := buildInsertStatement("public", "t", first)
	final := spliceValues(stmt, []row.Row{first, second})
	assert.Equal(t, `INSERT INTO "public"."t" ("a","b") VALUES (1,'x'),(2,'y');`, final)
}

func TestRenderValue(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name     string
		value    row.Value
		expected string
	}{
		{name: "true", value: row.Bool(true), expected: "TRUE"},
		{name: "false", value: row.Bool(false), expected: "FALSE"},
		{name: "int", value: row.Int(-7), expected: "-7"},
		{name: "float", value: row.Float(1.25), expected: "1.25"},
		{name: "nan quoted", value: row.Float(math.NaN()), expected: "'NaN'"},
		{name: "positive infinity quoted", value: row.Float(math.Inf(1)), expected: "'Infinity'"},
		{name: "negative infinity quoted", value: row.Float(math.Inf(-1)), expected: "'-Infinity'"},
		{name: "null", value: row.Null(), expected: "NULL"},
		{name: "bytes hex encoded", value: row.Bytes([]byte{0xAB, 0x01}), expected: `'\xab01'`},
		{name: "time rfc3339 utc", value: row.Time(ts), expected: "'2024-05-01T12:30:00Z'"},
		{name: "text quoted", value: row.Text("x"), expected: "'x'"},
		{name: "text with quote escaped", value: row.Text("o'clock"), expected: "'o''clock'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderValue(tt.value))
		})
	}
}
