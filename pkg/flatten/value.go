// Package flatten normalizes decoded Admin API pages into relational
// tables. Nested record-list columns (line items, refunds, variants) are
// lifted into child tables carrying a foreign key back to the parent row,
// so the parent table ends up purely scalar.
package flatten

// Kind tags the variant a Value holds. Classification happens once at
// decode time so the flattener's branches are plain switches instead of
// runtime type inspection.
type Kind int

const (
	// KindNull is an explicit JSON null or an absent column.
	KindNull Kind = iota

	// KindScalar is any value the flattener treats as opaque: strings,
	// numbers, booleans, objects, and arrays of non-records.
	KindScalar

	// KindRecordArray is a non-empty array of JSON objects - a nested
	// record list eligible for child-table extraction.
	KindRecordArray
)

// String returns the kind name for logs and error messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindRecordArray:
		return "record_array"
	default:
		return "unknown"
	}
}

// Value is one cell of a record: a tagged variant of null, scalar, or
// nested record list.
type Value struct {
	kind    Kind
	scalar  any
	records []Record
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Scalar wraps an opaque decoded JSON value.
func Scalar(v any) Value {
	return Value{kind: KindScalar, scalar: v}
}

// RecordArray wraps a nested record list.
func RecordArray(records []Record) Value {
	return Value{kind: KindRecordArray, records: records}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// ScalarValue returns the wrapped scalar, or nil for other kinds.
func (v Value) ScalarValue() any {
	if v.kind != KindScalar {
		return nil
	}
	return v.scalar
}

// Records returns the nested record list, or nil for other kinds.
func (v Value) Records() []Record {
	if v.kind != KindRecordArray {
		return nil
	}
	return v.records
}

// MarshalJSON renders the value back to its JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindScalar:
		return marshalJSON(v.scalar)
	case KindRecordArray:
		return marshalJSON(v.records)
	default:
		return []byte("null"), nil
	}
}
