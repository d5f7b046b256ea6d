package dbutil

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntrospector(t *testing.T) (*Introspector, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewIntrospector(NewExecutor(db, nil)), mock
}

func TestIntrospector_ListSchemas(t *testing.T) {
	intro, mock := newIntrospector(t)

	rows := sqlmock.NewRows([]string{"schema_name"}).
		AddRow("analytics").
		AddRow("public")
	mock.ExpectQuery("SELECT schema_name FROM information_schema.schemata").WillReturnRows(rows)

	schemas, err := intro.ListSchemas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"analytics", "public"}, schemas)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntrospector_ListTables(t *testing.T) {
	tests := []struct {
		name         string
		includeViews bool
		pattern      string
	}{
		{
			name:         "with views",
			includeViews: true,
			pattern:      "SELECT table_name FROM information_schema.tables",
		},
		{
			name:         "base tables only",
			includeViews: false,
			pattern:      "AND table_type = 'BASE TABLE'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intro, mock := newIntrospector(t)

			rows := sqlmock.NewRows([]string{"table_name"}).AddRow("events")
			mock.ExpectQuery(tt.pattern).WithArgs("public").WillReturnRows(rows)

			tables, err := intro.ListTables(context.Background(), "public", tt.includeViews)
			require.NoError(t, err)
			assert.Equal(t, []string{"events"}, tables)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIntrospector_ListColumns(t *testing.T) {
	intro, mock := newIntrospector(t)

	rows := sqlmock.NewRows([]string{"column_name"}).
		AddRow("id").
		AddRow("name")
	mock.ExpectQuery("SELECT column_name FROM information_schema.columns").
		WithArgs("public", "users").
		WillReturnRows(rows)

	columns, err := intro.ListColumns(context.Background(), "public", "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, columns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntrospector_RelationExists(t *testing.T) {
	tests := []struct {
		name     string
		exists   bool
		expected bool
	}{
		{name: "relation present", exists: true, expected: true},
		{name: "relation missing", exists: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intro, mock := newIntrospector(t)

			rows := sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists)
			mock.ExpectQuery("SELECT to_regclass").
				WithArgs(`"public"."users"`).
				WillReturnRows(rows)

			exists, err := intro.RelationExists(context.Background(), "public", "users")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, exists)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIntrospector_FailurePropagates(t *testing.T) {
	intro, mock := newIntrospector(t)
	mock.ExpectQuery("SELECT schema_name").WillReturnError(assert.AnError)

	_, err := intro.ListSchemas(context.Background())
	assert.Error(t, err)
}
