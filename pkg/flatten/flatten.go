package flatten

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for flattening.
var (
	shopifyRecordsFlattenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopify_records_flattened_total",
		Help: "Total records flattened by table",
	}, []string{"table"})

	shopifyChildTablesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopify_child_tables_total",
		Help: "Total child tables extracted from nested columns",
	})

	shopifyColumnSkipsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopify_flatten_column_skips_total",
		Help: "Total nested columns dropped because extraction failed",
	})
)

// Flatten decodes the raw page bodies under resourceKey, concatenates the
// records in page order into one parent table, and lifts every nested
// record-list column into its own child table named after the column. Each
// child row is tagged with a "<resource>_id" foreign key, positioned first,
// equal to the parent row's id.
//
// A column whose extraction fails is dropped from the parent with a warning
// instead of aborting the flatten; the rest of the result is unaffected.
// Malformed JSON is fatal. An empty result yields just the empty parent
// table with no extraction attempted.
func Flatten(pages [][]byte, resourceKey string) (map[string]*Table, error) {
	logger := log.With().Str("component", "flattener").Str("resource", resourceKey).Logger()

	parent := NewTable()
	for i, body := range pages {
		records, err := decodePage(body, resourceKey)
		if err != nil {
			return nil, fmt.Errorf("decode page %d: %w", i+1, err)
		}
		for _, record := range records {
			parent.Append(record)
		}
	}

	tables := map[string]*Table{resourceKey: parent}
	shopifyRecordsFlattenedTotal.WithLabelValues(resourceKey).Add(float64(parent.Len()))

	if parent.Len() == 0 {
		return tables, nil
	}

	foreignKey := ForeignKeyColumn(resourceKey)

	for _, column := range parent.Columns() {
		if !columnIsNested(parent, column) {
			continue
		}

		child, err := extractChild(parent, column, foreignKey)
		if err != nil {
			shopifyColumnSkipsTotal.Inc()
			logger.Warn().
				Err(err).
				Str("column", column).
				Msg("Child extraction failed - dropping column")
			parent.dropColumn(column)
			continue
		}

		tables[column] = child
		parent.dropColumn(column)
		shopifyChildTablesTotal.Inc()
		shopifyRecordsFlattenedTotal.WithLabelValues(column).Add(float64(child.Len()))

		logger.Debug().
			Str("column", column).
			Int("rows", child.Len()).
			Msg("Extracted child table")
	}

	return tables, nil
}

// ForeignKeyColumn derives the child-table foreign key name from the
// resource key: "orders" tags children with "order_id".
func ForeignKeyColumn(resourceKey string) string {
	return strings.TrimSuffix(resourceKey, "s") + "_id"
}

// decodePage pulls the record array out of one response envelope. A page
// without the resource key holds no records; that is not an error.
func decodePage(body []byte, resourceKey string) ([]Record, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}

	raw, ok := envelope[resourceKey]
	if !ok {
		return nil, nil
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %q records: %w", resourceKey, err)
	}
	return records, nil
}

// columnIsNested reports whether at least one row holds a record list in
// the column. Columns of only nulls or empty arrays stay in the parent.
func columnIsNested(t *Table, column string) bool {
	for i := 0; i < t.Len(); i++ {
		if t.Row(i).Get(column).Kind() == KindRecordArray {
			return true
		}
	}
	return false
}

// extractChild builds the child table for one nested column. Null cells and
// empty arrays contribute zero child rows. A non-array scalar in the column
// or a parent row without a scalar id fails the extraction for the whole
// column.
func extractChild(parent *Table, column, foreignKey string) (*Table, error) {
	child := NewTable()

	for i := 0; i < parent.Len(); i++ {
		row := parent.Row(i)

		cell := row.Get(column)
		var children []Record
		switch cell.Kind() {
		case KindNull:
			continue
		case KindRecordArray:
			children = cell.Records()
		case KindScalar:
			if arr, ok := cell.ScalarValue().([]any); ok && len(arr) == 0 {
				continue
			}
			return nil, fmt.Errorf("row %d holds a %s in column %q, not a record list", i, cell.Kind(), column)
		}

		id := row.Get("id")
		if id.Kind() != KindScalar {
			return nil, fmt.Errorf("parent row %d has no scalar id to tag children with", i)
		}

		for _, record := range children {
			var tagged Record
			tagged.Set(foreignKey, id)
			for _, childColumn := range record.Columns() {
				// Child records often carry their own copy of the
				// foreign-key field (variants carry product_id); the
				// parent's id is authoritative and must not be clobbered.
				if childColumn == foreignKey {
					continue
				}
				tagged.Set(childColumn, record.Get(childColumn))
			}
			child.Append(tagged)
		}
	}

	return child, nil
}
