package dbutil

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowkit/rowkit/pkg/row"
)

func newDDL(t *testing.T) (*DDL, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewDDL(NewExecutor(db, nil)), mock
}

func expectSchemas(mock sqlmock.Sqlmock, schemas ...string) {
	rows := sqlmock.NewRows([]string{"schema_name"})
	for _, s := range schemas {
		rows.AddRow(s)
	}
	mock.ExpectQuery("SELECT schema_name FROM information_schema.schemata").WillReturnRows(rows)
}

func expectTables(mock sqlmock.Sqlmock, schema string, tables ...string) {
	rows := sqlmock.NewRows([]string{"table_name"})
	for _, tbl := range tables {
		rows.AddRow(tbl)
	}
	mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
		WithArgs(schema).
		WillReturnRows(rows)
}

func expectColumns(mock sqlmock.Sqlmock, schema, table string, columns ...string) {
	rows := sqlmock.NewRows([]string{"column_name"})
	for _, c := range columns {
		rows.AddRow(c)
	}
	mock.ExpectQuery("SELECT column_name FROM information_schema.columns").
		WithArgs(schema, table).
		WillReturnRows(rows)
}

func TestColumnTypeFor(t *testing.T) {
	tests := []struct {
		name     string
		value    row.Value
		expected string
	}{
		{name: "time", value: row.Time(time.Now()), expected: "timestamptz"},
		{name: "bool", value: row.Bool(true), expected: "bool"},
		{name: "int", value: row.Int(1), expected: "bigint"},
		{name: "float", value: row.Float(1.5), expected: "double precision"},
		{name: "bytes", value: row.Bytes([]byte{0x1}), expected: "bytea"},
		{name: "text", value: row.Text("x"), expected: "text"},
		{name: "null", value: row.Null(), expected: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ColumnTypeFor(tt.value))
		})
	}
}

func TestDDL_CreateTableFromRow(t *testing.T) {
	ddl, mock := newDDL(t)

	// Schema exists, so no CREATE SCHEMA.
	expectSchemas(mock, "public")
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "public"."t" \("seq" bigserial,"a" bigint,"b" text\);`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// AddPrimaryKey guards, then the ALTER.
	expectSchemas(mock, "public")
	expectTables(mock, "public", "t")
	expectColumns(mock, "public", "t", "a", "b", "seq")
	mock.ExpectExec(`ALTER TABLE "public"."t" ADD PRIMARY KEY \("seq"\);`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	sample, err := row.FromFields([]row.Field{
		{Name: "a", Value: row.Int(1)},
		{Name: "b", Value: row.Text("x")},
	})
	require.NoError(t, err)

	err = ddl.CreateTableFromRow(context.Background(), "public", "t", sample,
		TableOptions{SequenceColumn: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDDL_CreateTable_CreatesMissingSchema(t *testing.T) {
	ddl, mock := newDDL(t)

	expectSchemas(mock, "public")
	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS "staging";`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "staging"."t"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ddl.CreateTable(context.Background(), "staging", "t",
		[]ColumnDef{{Name: "a", Type: "bigint"}}, TableOptions{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDDL_CreateIndex_Guards(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		expected  bool
	}{
		{
			name: "missing schema is a no-op",
			setupMock: func(mock sqlmock.Sqlmock) {
				expectSchemas(mock, "public")
			},
			expected: false,
		},
		{
			name: "missing table is a no-op",
			setupMock: func(mock sqlmock.Sqlmock) {
				expectSchemas(mock, "reports")
				expectTables(mock, "reports")
			},
			expected: false,
		},
		{
			name: "missing column is a no-op",
			setupMock: func(mock sqlmock.Sqlmock) {
				expectSchemas(mock, "reports")
				expectTables(mock, "reports", "t")
				expectColumns(mock, "reports", "t", "other")
			},
			expected: false,
		},
		{
			name: "all guards pass",
			setupMock: func(mock sqlmock.Sqlmock) {
				expectSchemas(mock, "reports")
				expectTables(mock, "reports", "t")
				expectColumns(mock, "reports", "t", "c")
				mock.ExpectExec(`CREATE INDEX "t_c_idx" ON "reports"."t" \("c"\);`).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ddl, mock := newDDL(t)
			tt.setupMock(mock)

			ok, err := ddl.CreateIndex(context.Background(), "reports", "t", "c")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDDL_DropAndCreateSchema(t *testing.T) {
	ddl, mock := newDDL(t)

	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS "tmp";`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DROP TABLE IF EXISTS "tmp"."t";`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DROP VIEW IF EXISTS "tmp"."v";`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DROP SCHEMA IF EXISTS "tmp" CASCADE;`).WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	require.NoError(t, ddl.CreateSchema(ctx, "tmp"))
	require.NoError(t, ddl.DropTable(ctx, "tmp", "t"))
	require.NoError(t, ddl.DropView(ctx, "tmp", "v"))
	require.NoError(t, ddl.DropSchema(ctx, "tmp"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDDL_CreateView(t *testing.T) {
	ddl, mock := newDDL(t)

	expectSchemas(mock, "public")
	mock.ExpectExec(`CREATE OR REPLACE VIEW "public"."v" AS SELECT 1;`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ddl.CreateView(context.Background(), "public", "v", "SELECT 1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
