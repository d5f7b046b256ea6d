package dbutil

import (
	"database/sql"
	"fmt"

	"github.com/rowkit/rowkit/pkg/row"
)

// Frame is a columnar result set: ordered column names plus row-major
// records. It is the tabular counterpart to []row.Row for callers that want
// the whole page as one structure.
type Frame struct {
	Columns []string
	Records [][]row.Value
}

// Len returns the number of records in the frame.
func (f Frame) Len() int {
	return len(f.Records)
}

// Row converts record i into an ordered row.
func (f Frame) Row(i int) (row.Row, error) {
	if i < 0 || i >= len(f.Records) {
		return row.Row{}, fmt.Errorf("record %d out of range [0, %d)", i, len(f.Records))
	}
	fields := make([]row.Field, len(f.Columns))
	for c, name := range f.Columns {
		fields[c] = row.Field{Name: name, Value: f.Records[i][c]}
	}
	return row.FromFields(fields)
}

func scanFrame(rows *sql.Rows) (Frame, error) {
	columns, err := rows.Columns()
	if err != nil {
		return Frame{}, fmt.Errorf("failed to read column descriptors: %w", err)
	}

	frame := Frame{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Frame{}, fmt.Errorf("failed to scan row: %w", err)
		}

		record := make([]row.Value, len(columns))
		for i := range values {
			record[i] = row.FromAny(values[i])
		}
		frame.Records = append(frame.Records, record)
	}
	if err := rows.Err(); err != nil {
		return Frame{}, fmt.Errorf("error iterating rows: %w", err)
	}
	return frame, nil
}
