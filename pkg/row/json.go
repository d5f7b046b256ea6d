package row

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// UnmarshalBatch decodes the batch write input format: a JSON object mapping
// table names to arrays of flat field-name/value objects, e.g.
//
//	{"events": [{"id": 1, "ok": true}, {"id": 2, "ok": false}]}
//
// Decoding is token-driven so that column order within each row is
// preserved, which a plain map unmarshal would lose. Numbers without a
// fractional part decode as integers, RFC 3339 strings as timestamps, and
// JSON null as the null value. Nested objects and arrays are rejected.
func UnmarshalBatch(data []byte) (*Batch, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}

	batch := NewBatch()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("batch: %w", err)
		}
		table, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("batch: expected table name, got %v", tok)
		}

		if err := expectDelim(dec, '['); err != nil {
			return nil, fmt.Errorf("table %q: %w", table, err)
		}
		rows := []Row{}
		for dec.More() {
			r, err := decodeRow(dec)
			if err != nil {
				return nil, fmt.Errorf("table %q: %w", table, err)
			}
			rows = append(rows, r)
		}
		if err := expectDelim(dec, ']'); err != nil {
			return nil, fmt.Errorf("table %q: %w", table, err)
		}
		batch.Add(table, rows...)
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	return batch, nil
}

func decodeRow(dec *json.Decoder) (Row, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return Row{}, err
	}
	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Row{}, err
		}
		name, ok := tok.(string)
		if !ok {
			return Row{}, fmt.Errorf("expected field name, got %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return Row{}, fmt.Errorf("field %q: %w", name, err)
		}
		fields = append(fields, Field{Name: name, Value: val})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Row{}, err
	}
	return FromFields(fields)
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case bool:
		return Bool(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q", t.String())
		}
		return Float(f), nil
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return Time(ts), nil
		}
		return Text(t), nil
	case nil:
		return Null(), nil
	case json.Delim:
		return Value{}, fmt.Errorf("nested %v values are not supported", t)
	default:
		return Value{}, fmt.Errorf("unsupported token %v", tok)
	}
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
