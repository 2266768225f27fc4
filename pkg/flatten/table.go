package flatten

import (
	"bytes"
	"encoding/json"
)

// Table is an ordered sequence of records with unioned columns: a column
// present in any row belongs to the table, and rows that lack it read as
// Null. No row is ever dropped for having unexpected or missing fields.
type Table struct {
	columns []string
	colSet  map[string]struct{}
	rows    []Record
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{colSet: make(map[string]struct{})}
}

// Append adds a row, unioning its columns into the table's column set.
func (t *Table) Append(row Record) {
	for _, column := range row.columns {
		if _, seen := t.colSet[column]; !seen {
			t.colSet[column] = struct{}{}
			t.columns = append(t.columns, column)
		}
	}
	t.rows = append(t.rows, row)
}

// Len returns the row count.
func (t *Table) Len() int {
	return len(t.rows)
}

// Columns returns the column names in first-seen order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Row returns the i-th row.
func (t *Table) Row(i int) Record {
	return t.rows[i]
}

// Column returns the cell values of one column across all rows, with
// missing cells materialized as Null.
func (t *Table) Column(name string) []Value {
	values := make([]Value, len(t.rows))
	for i, row := range t.rows {
		values[i] = row.Get(name)
	}
	return values
}

// HasColumn reports whether the table carries the column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colSet[name]
	return ok
}

// dropColumn removes a column from the table and every row.
func (t *Table) dropColumn(name string) {
	if _, ok := t.colSet[name]; !ok {
		return
	}
	delete(t.colSet, name)
	for i, column := range t.columns {
		if column == name {
			t.columns = append(t.columns[:i], t.columns[i+1:]...)
			break
		}
	}
	for i := range t.rows {
		t.rows[i].drop(name)
	}
}

// MarshalJSON renders the table as an array of objects. Every object
// carries the full column set in table column order, with missing cells
// as null, so consumers see a rectangular result.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range t.rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, column := range t.columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(column)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')

			cell, err := json.Marshal(row.Get(column))
			if err != nil {
				return nil, err
			}
			buf.Write(cell)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
