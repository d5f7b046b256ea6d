package row

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFields(t *testing.T) {
	tests := []struct {
		name      string
		fields    []Field
		expectErr bool
	}{
		{
			name: "ordered columns",
			fields: []Field{
				{Name: "id", Value: Int(1)},
				{Name: "name", Value: Text("alice")},
			},
		},
		{
			name:   "empty row",
			fields: nil,
		},
		{
			name: "duplicate column rejected",
			fields: []Field{
				{Name: "id", Value: Int(1)},
				{Name: "id", Value: Int(2)},
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := FromFields(tt.fields)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.fields), r.Len())
		})
	}
}

func TestRow_OrderAndLookup(t *testing.T) {
	r, err := FromFields([]Field{
		{Name: "b", Value: Text("x")},
		{Name: "a", Value: Int(1)},
		{Name: "c", Value: Bool(true)},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "c"}, r.Columns())

	v, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, Int(1), v)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestValue_RoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{name: "bool", in: true, want: Bool(true)},
		{name: "int64", in: int64(42), want: Int(42)},
		{name: "float64", in: 3.5, want: Float(3.5)},
		{name: "bytes", in: []byte{0x01}, want: Bytes([]byte{0x01})},
		{name: "time", in: now, want: Time(now)},
		{name: "string", in: "x", want: Text("x")},
		{name: "nil", in: nil, want: Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := FromAny(tt.in)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, tt.in, v.Any())
		})
	}
}

func TestNull_DistinctFromEmptyText(t *testing.T) {
	assert.NotEqual(t, Text(""), Null())
	assert.Equal(t, KindNull, FromAny(nil).Kind)
	assert.Nil(t, Null().Any())
}

func TestBatch_Order(t *testing.T) {
	b := NewBatch()
	r1, _ := FromFields([]Field{{Name: "a", Value: Int(1)}})
	r2, _ := FromFields([]Field{{Name: "a", Value: Int(2)}})

	b.Add("t2", r1)
	b.Add("t1", r2)
	b.Add("t2", r2)

	assert.Equal(t, []string{"t2", "t1"}, b.Tables())
	assert.Len(t, b.Rows("t2"), 2)
	assert.Len(t, b.Rows("t1"), 1)
	assert.Equal(t, 2, b.Len())
}
