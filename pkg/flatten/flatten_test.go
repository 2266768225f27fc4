package flatten

import (
	"encoding/json"
	"testing"
)

func TestFlatten_FlatPagesConcatenate(t *testing.T) {
	pages := [][]byte{
		[]byte(`{"locations": [{"id": 1, "name": "Warehouse"}, {"id": 2, "name": "Storefront"}]}`),
		[]byte(`{"locations": [{"id": 3, "name": "Popup"}]}`),
	}

	tables, err := Flatten(pages, "locations")
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	if len(tables) != 1 {
		t.Fatalf("tables = %d, want just the parent", len(tables))
	}

	parent := tables["locations"]
	if parent == nil {
		t.Fatal("parent table missing")
	}
	if parent.Len() != 3 {
		t.Errorf("parent rows = %d, want 3 (sum of per-page counts)", parent.Len())
	}
	if got := parent.Row(2).Get("name").ScalarValue(); got != "Popup" {
		t.Errorf("row 2 name = %v, want Popup (page order lost)", got)
	}
}

func TestFlatten_ExtractsChildTables(t *testing.T) {
	pages := [][]byte{
		[]byte(`{"orders": [
			{"id": 101, "email": "a@example.com", "line_items": [{"id": 9001, "sku": "A"}, {"id": 9002, "sku": "B"}], "refunds": []},
			{"id": 102, "email": "b@example.com", "line_items": [{"id": 9003, "sku": "C"}], "refunds": null}
		]}`),
		[]byte(`{"orders": [
			{"id": 103, "email": "c@example.com", "line_items": [], "refunds": [{"id": 7001, "note": "damaged"}]}
		]}`),
	}

	tables, err := Flatten(pages, "orders")
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	parent := tables["orders"]
	if parent.Len() != 3 {
		t.Fatalf("parent rows = %d, want 3", parent.Len())
	}
	for _, nested := range []string{"line_items", "refunds"} {
		if parent.HasColumn(nested) {
			t.Errorf("parent still carries nested column %q", nested)
		}
	}

	items := tables["line_items"]
	if items == nil {
		t.Fatal("line_items child table missing")
	}
	if items.Len() != 3 {
		t.Errorf("line_items rows = %d, want 3", items.Len())
	}
	if got := items.Columns()[0]; got != "order_id" {
		t.Errorf("first child column = %q, want order_id", got)
	}

	// Every foreign key must point at an existing parent row.
	parentIDs := make(map[string]struct{})
	for i := 0; i < parent.Len(); i++ {
		parentIDs[parent.Row(i).Get("id").ScalarValue().(json.Number).String()] = struct{}{}
	}
	for i := 0; i < items.Len(); i++ {
		fk := items.Row(i).Get("order_id").ScalarValue().(json.Number).String()
		if _, ok := parentIDs[fk]; !ok {
			t.Errorf("line_items row %d has order_id %s with no parent row", i, fk)
		}
	}

	refunds := tables["refunds"]
	if refunds == nil {
		t.Fatal("refunds child table missing")
	}
	if refunds.Len() != 1 {
		t.Fatalf("refunds rows = %d, want 1", refunds.Len())
	}
	if got := refunds.Row(0).Get("order_id").ScalarValue().(json.Number).String(); got != "103" {
		t.Errorf("refund order_id = %s, want 103", got)
	}
}

func TestFlatten_ScalarArraysStayInParent(t *testing.T) {
	pages := [][]byte{
		[]byte(`{"orders": [{"id": 1, "payment_gateway_names": ["visa", "bogus"]}]}`),
	}

	tables, err := Flatten(pages, "orders")
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	if _, ok := tables["payment_gateway_names"]; ok {
		t.Error("scalar array lifted into a child table")
	}
	if !tables["orders"].HasColumn("payment_gateway_names") {
		t.Error("scalar array column dropped from parent")
	}
}

func TestFlatten_ColumnUnionAcrossRows(t *testing.T) {
	pages := [][]byte{
		[]byte(`{"products": [{"id": 1, "title": "Widget"}, {"id": 2, "vendor": "Acme"}]}`),
	}

	tables, err := Flatten(pages, "products")
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	parent := tables["products"]
	for _, column := range []string{"id", "title", "vendor"} {
		if !parent.HasColumn(column) {
			t.Errorf("parent missing unioned column %q", column)
		}
	}
	if !parent.Row(0).Get("vendor").IsNull() {
		t.Error("row without vendor should read Null")
	}
	if !parent.Row(1).Get("title").IsNull() {
		t.Error("row without title should read Null")
	}
}

func TestFlatten_ExtractionFailureDropsColumnOnly(t *testing.T) {
	// The second row's parent lacks a scalar id, so variants cannot be
	// tagged and the column is dropped. The rest of the result survives.
	pages := [][]byte{
		[]byte(`{"products": [
			{"id": 1, "title": "Widget", "variants": [{"id": 10}]},
			{"title": "Orphan", "variants": [{"id": 11}]}
		]}`),
	}

	tables, err := Flatten(pages, "products")
	if err != nil {
		t.Fatalf("Flatten should not fail on a bad column: %v", err)
	}

	if _, ok := tables["variants"]; ok {
		t.Error("failed extraction still produced a child table")
	}
	parent := tables["products"]
	if parent.HasColumn("variants") {
		t.Error("failed column not dropped from parent")
	}
	if parent.Len() != 2 {
		t.Errorf("parent rows = %d, want 2", parent.Len())
	}
	if !parent.HasColumn("title") {
		t.Error("unrelated column lost")
	}
}

func TestFlatten_MixedScalarAndRecordsFailsColumn(t *testing.T) {
	pages := [][]byte{
		[]byte(`{"orders": [
			{"id": 1, "discount_codes": [{"code": "SAVE10"}]},
			{"id": 2, "discount_codes": "SAVE20"}
		]}`),
	}

	tables, err := Flatten(pages, "orders")
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	if _, ok := tables["discount_codes"]; ok {
		t.Error("inconsistent column should be dropped, not extracted")
	}
}

func TestFlatten_EmptyResult(t *testing.T) {
	tests := []struct {
		name  string
		pages [][]byte
	}{
		{"no pages", nil},
		{"empty record array", [][]byte{[]byte(`{"orders": []}`)}},
		{"missing resource key", [][]byte{[]byte(`{"errors": "none"}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, err := Flatten(tt.pages, "orders")
			if err != nil {
				t.Fatalf("Flatten failed: %v", err)
			}
			if len(tables) != 1 {
				t.Fatalf("tables = %d, want just the empty parent", len(tables))
			}
			if tables["orders"].Len() != 0 {
				t.Errorf("parent rows = %d, want 0", tables["orders"].Len())
			}
		})
	}
}

func TestFlatten_ParentIDWinsOverChildForeignKeyField(t *testing.T) {
	// Variants carry their own product_id field; the tag must stay the
	// parent row's id even when the two disagree.
	pages := [][]byte{
		[]byte(`{"products": [{"id": 1, "variants": [{"id": 10, "product_id": 999}]}]}`),
	}

	tables, err := Flatten(pages, "products")
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	variants := tables["variants"]
	if variants == nil || variants.Len() != 1 {
		t.Fatalf("variants table = %v, want 1 row", variants)
	}
	if got := variants.Columns()[0]; got != "product_id" {
		t.Errorf("first child column = %q, want product_id", got)
	}

	fk := variants.Row(0).Get("product_id").ScalarValue().(json.Number).String()
	if fk != "1" {
		t.Errorf("foreign key product_id = %s, want parent id 1", fk)
	}
	if got := variants.Row(0).Get("id").ScalarValue().(json.Number).String(); got != "10" {
		t.Errorf("variant id = %s, want 10", got)
	}
}

func TestFlatten_MalformedJSONIsFatal(t *testing.T) {
	pages := [][]byte{
		[]byte(`{"orders": [{"id": 1}]}`),
		[]byte(`{"orders": [{"id": 2`),
	}

	if _, err := Flatten(pages, "orders"); err == nil {
		t.Error("Expected error for malformed page")
	}
}

func TestFlatten_Idempotent(t *testing.T) {
	// Re-flattening the already-flat parent table changes nothing: no
	// nested columns remain, so no child tables appear and the rows
	// survive byte for byte.
	pages := [][]byte{
		[]byte(`{"orders": [
			{"id": 1, "email": "a@example.com", "line_items": [{"id": 10, "sku": "A"}]},
			{"id": 2, "line_items": []}
		]}`),
	}

	first, err := Flatten(pages, "orders")
	if err != nil {
		t.Fatalf("first Flatten failed: %v", err)
	}

	flatParent, err := json.Marshal(first["orders"])
	if err != nil {
		t.Fatalf("marshal flat parent: %v", err)
	}

	envelope := append([]byte(`{"orders": `), flatParent...)
	envelope = append(envelope, '}')

	second, err := Flatten([][]byte{envelope}, "orders")
	if err != nil {
		t.Fatalf("re-flatten failed: %v", err)
	}

	if len(second) != 1 {
		t.Errorf("re-flattening flat output produced %d tables, want just the parent", len(second))
	}

	reParent, err := json.Marshal(second["orders"])
	if err != nil {
		t.Fatalf("marshal re-flattened parent: %v", err)
	}
	if string(reParent) != string(flatParent) {
		t.Errorf("flat output changed on re-flatten:\n%s\n%s", flatParent, reParent)
	}
}

func TestForeignKeyColumn(t *testing.T) {
	tests := []struct {
		resourceKey string
		expected    string
	}{
		{"orders", "order_id"},
		{"products", "product_id"},
		{"locations", "location_id"},
		{"inventory_levels", "inventory_level_id"},
	}

	for _, tt := range tests {
		t.Run(tt.resourceKey, func(t *testing.T) {
			if got := ForeignKeyColumn(tt.resourceKey); got != tt.expected {
				t.Errorf("ForeignKeyColumn(%q) = %q, want %q", tt.resourceKey, got, tt.expected)
			}
		})
	}
}

func TestTable_MarshalRectangular(t *testing.T) {
	table := NewTable()

	var a Record
	a.Set("id", Scalar(json.Number("1")))
	a.Set("title", Scalar("Widget"))
	table.Append(a)

	var b Record
	b.Set("id", Scalar(json.Number("2")))
	b.Set("vendor", Scalar("Acme"))
	table.Append(b)

	out, err := json.Marshal(table)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `[{"id":1,"title":"Widget","vendor":null},{"id":2,"title":null,"vendor":"Acme"}]`
	if string(out) != want {
		t.Errorf("Marshal = %s, want %s", out, want)
	}
}
