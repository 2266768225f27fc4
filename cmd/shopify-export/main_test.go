package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/merchworks/shopify-admin-client/internal/testutil"
)

func testOptions(mock *testutil.MockAdminAPI) options {
	return options{
		shopURL:    mock.URL(),
		apiVersion: "2024-01",
		apiKey:     "test-key",
		password:   "test-password",
		resource:   "orders",
	}
}

func TestRun_ExportsOrdersAsJSON(t *testing.T) {
	mock := testutil.NewMockAdminAPI("2024-01")
	defer mock.Close()

	mock.SetCount("/admin/api/2024-01/orders/count.json", 1)
	mock.SetPages("/admin/api/2024-01/orders.json", []testutil.Page{
		{Body: `{"orders": [{"id": 450789469, "email": "bob@example.com", "line_items": [{"id": 1, "sku": "A"}]}]}`},
	})

	var out bytes.Buffer
	if err := run(context.Background(), testOptions(mock), &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var tables map[string]json.RawMessage
	if err := json.Unmarshal(out.Bytes(), &tables); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	for _, name := range []string{"orders", "line_items"} {
		if _, ok := tables[name]; !ok {
			t.Errorf("output missing table %q", name)
		}
	}
}

func TestRun_MissingCredentials(t *testing.T) {
	opts := options{shopURL: "https://example.myshopify.com", apiVersion: "2024-01"}

	err := run(context.Background(), opts, &bytes.Buffer{})
	if err == nil {
		t.Fatal("Expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "SHOPIFY_API_KEY") {
		t.Errorf("error %q does not name the missing variables", err)
	}
}

func TestRun_UnknownResource(t *testing.T) {
	mock := testutil.NewMockAdminAPI("2024-01")
	defer mock.Close()

	opts := testOptions(mock)
	opts.resource = "customers"

	err := run(context.Background(), opts, &bytes.Buffer{})
	if err == nil {
		t.Fatal("Expected error for unknown resource")
	}
	if !strings.Contains(err.Error(), "customers") {
		t.Errorf("error %q does not name the resource", err)
	}
}

func TestIDList_Set(t *testing.T) {
	var ids idList
	if err := ids.Set("101, 102,103"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if len(ids) != 3 || ids[0] != 101 || ids[2] != 103 {
		t.Errorf("ids = %v, want [101 102 103]", ids)
	}
	if got := ids.String(); got != "101,102,103" {
		t.Errorf("String() = %q", got)
	}

	if err := ids.Set("abc"); err == nil {
		t.Error("Expected error for non-integer id")
	}
}
