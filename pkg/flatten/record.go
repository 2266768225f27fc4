package flatten

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one row: a mapping from column name to Value that remembers the
// order columns were first seen. The Admin API's stable primary identifier
// lives in the "id" column.
type Record struct {
	columns []string
	values  map[string]Value
}

// Set stores a value, appending the column on first use.
func (r *Record) Set(column string, value Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, exists := r.values[column]; !exists {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
}

// Get returns the value for a column. An absent column reads as Null, which
// is what gives tables their column-union semantics.
func (r Record) Get(column string) Value {
	value, ok := r.values[column]
	if !ok {
		return Null()
	}
	return value
}

// Has reports whether the column was present at decode time.
func (r Record) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

// Columns returns the column names in first-seen order.
func (r Record) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Len returns the number of columns.
func (r Record) Len() int {
	return len(r.columns)
}

// drop removes a column if present.
func (r *Record) drop(column string) {
	if _, ok := r.values[column]; !ok {
		return
	}
	delete(r.values, column)
	for i, name := range r.columns {
		if name == column {
			r.columns = append(r.columns[:i], r.columns[i+1:]...)
			break
		}
	}
}

// UnmarshalJSON decodes a JSON object into a Record, preserving key order
// and classifying every value once.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode column %q: %w", key, err)
		}

		value, err := decodeValue(raw)
		if err != nil {
			return fmt.Errorf("classify column %q: %w", key, err)
		}
		r.Set(key, value)
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON renders the record as a JSON object in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, column := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(column)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		cell, err := json.Marshal(r.values[column])
		if err != nil {
			return nil, err
		}
		buf.Write(cell)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeValue classifies one raw JSON value. A non-empty array whose
// elements are all objects is a record list; everything else, including
// empty arrays and arrays of scalars, stays an opaque scalar.
func decodeValue(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Null(), nil
	}

	switch trimmed[0] {
	case 'n':
		return Null(), nil

	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return Value{}, err
		}

		if isRecordList(elements) {
			records := make([]Record, len(elements))
			for i, element := range elements {
				if err := json.Unmarshal(element, &records[i]); err != nil {
					return Value{}, err
				}
			}
			return RecordArray(records), nil
		}

		return decodeScalar(trimmed)

	default:
		return decodeScalar(trimmed)
	}
}

// isRecordList reports whether elements form a non-empty list of objects.
func isRecordList(elements []json.RawMessage) bool {
	if len(elements) == 0 {
		return false
	}
	for _, element := range elements {
		e := bytes.TrimSpace(element)
		if len(e) == 0 || e[0] != '{' {
			return false
		}
	}
	return true
}

// decodeScalar decodes an opaque value, keeping numbers as json.Number so
// identifiers survive without float rounding.
func decodeScalar(raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Value{}, err
	}
	return Scalar(v), nil
}

// marshalJSON is a helper for Value.MarshalJSON.
func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
