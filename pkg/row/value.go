package row

import (
	"fmt"
	"time"
)

// Kind identifies the scalar type carried by a Value. The set is closed:
// every value flowing through the system is exactly one of these.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindBytes
	KindTime
	KindText
	KindNull
)

// String returns the kind name for logs and error messages.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	case KindText:
		return "text"
	case KindNull:
		return "null"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a scalar cell value. Exactly one of the typed fields is
// meaningful, selected by Kind.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Bytes []byte
	Time  time.Time
	Text  string
}

// Bool builds a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, Bool: v} }

// Int builds a 64-bit integer Value.
func Int(v int64) Value { return Value{Kind: KindInt, Int: v} }

// Float builds a double-precision Value.
func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// Bytes builds a byte-sequence Value.
func Bytes(v []byte) Value { return Value{Kind: KindBytes, Bytes: v} }

// Time builds a timestamp Value.
func Time(v time.Time) Value { return Value{Kind: KindTime, Time: v} }

// Text builds a text Value.
func Text(v string) Value { return Value{Kind: KindText, Text: v} }

// Null builds the SQL NULL Value, distinct from empty text.
func Null() Value { return Value{Kind: KindNull} }

// FromAny converts a database driver value into a Value. Unknown types are
// rendered as text; nil becomes the null value.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case int64:
		return Int(t)
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case float64:
		return Float(t)
	case float32:
		return Float(float64(t))
	case []byte:
		return Bytes(t)
	case time.Time:
		return Time(t)
	case string:
		return Text(t)
	default:
		return Text(fmt.Sprint(t))
	}
}

// Any returns the value as a plain Go scalar, the inverse of FromAny.
func (v Value) Any() any {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindBytes:
		return v.Bytes
	case KindTime:
		return v.Time
	case KindNull:
		return nil
	default:
		return v.Text
	}
}
