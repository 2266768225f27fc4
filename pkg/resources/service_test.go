package resources

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/merchworks/shopify-admin-client/internal/testutil"
	"github.com/merchworks/shopify-admin-client/pkg/client"
)

const testAPIVersion = "2024-01"

func testService(t *testing.T, mock *testutil.MockAdminAPI) *Service {
	t.Helper()

	cfg := client.DefaultConfig(mock.URL(), testAPIVersion, client.Credentials{
		APIKey:   "test-key",
		Password: "test-password",
	})
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 1000
	cfg.InitialBackoff = 10 * time.Millisecond

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New failed: %v", err)
	}
	return NewService(c)
}

func apiPath(resource string) string {
	return "/admin/api/" + testAPIVersion + "/" + resource + ".json"
}

func TestOrders_FetchesAndFlattens(t *testing.T) {
	mock := testutil.NewMockAdminAPI(testAPIVersion)
	defer mock.Close()

	mock.SetCount(apiPath("orders/count"), 2)
	mock.SetPages(apiPath("orders"), []testutil.Page{
		{Body: `{"orders": [
			{"id": 450789469, "email": "a@example.com", "line_items": [{"id": 1, "sku": "A"}, {"id": 2, "sku": "B"}]},
			{"id": 450789470, "email": "b@example.com", "line_items": [{"id": 3, "sku": "C"}]}
		]}`},
	})

	svc := testService(t, mock)
	result, err := svc.Orders(context.Background(), OrderParams{})
	if err != nil {
		t.Fatalf("Orders failed: %v", err)
	}

	orders := result.Tables["orders"]
	if orders == nil || orders.Len() != 2 {
		t.Fatalf("orders table = %v, want 2 rows", orders)
	}
	if orders.HasColumn("line_items") {
		t.Error("nested column not lifted out of parent")
	}

	items := result.Tables["line_items"]
	if items == nil || items.Len() != 3 {
		t.Fatalf("line_items table = %v, want 3 rows", items)
	}
	if got := items.Columns()[0]; got != "order_id" {
		t.Errorf("child foreign key column = %q, want order_id", got)
	}

	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	// One count call plus one page.
	if got := mock.RequestCount(); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}

func TestProducts_IDFilterPagesThroughSinceIDCursor(t *testing.T) {
	mock := testutil.NewMockAdminAPI(testAPIVersion)
	defer mock.Close()

	// Three products fetched two per page: the count endpoint reports 3,
	// so the hint is 2, and the second round follows the since-id cursor
	// advertised after round 1.
	mock.SetCount(apiPath("products/count"), 3)
	mock.SetPages(apiPath("products"), []testutil.Page{
		{
			Body:      `{"products": [{"id": 101, "title": "A"}, {"id": 102, "title": "B"}]}`,
			NextQuery: "limit=2&since_id=102",
		},
		{
			Body: `{"products": [{"id": 103, "title": "C"}]}`,
		},
	})

	svc := testService(t, mock)
	result, err := svc.Products(context.Background(), ProductParams{
		PagingParams: PagingParams{Limit: 2},
		IDs:          []int64{101, 102, 103},
	})
	if err != nil {
		t.Fatalf("Products failed: %v", err)
	}

	if got := result.Tables["products"].Len(); got != 3 {
		t.Errorf("products rows = %d, want 3", got)
	}

	pageRequests := mock.RequestsTo(apiPath("products"))
	if len(pageRequests) != 2 {
		t.Fatalf("page requests = %d, want 2", len(pageRequests))
	}
	if got := pageRequests[0].Query.Get("ids"); got != "101,102,103" {
		t.Errorf("round 1 ids = %q, want the full filter", got)
	}
	if got := pageRequests[1].Query.Get("since_id"); got != "102" {
		t.Errorf("round 2 since_id = %q, want the max id of round 1", got)
	}
}

func TestOrders_ValidationFailsBeforeIO(t *testing.T) {
	mock := testutil.NewMockAdminAPI(testAPIVersion)
	defer mock.Close()

	svc := testService(t, mock)
	_, err := svc.Orders(context.Background(), OrderParams{Status: "bogus"})
	if err == nil {
		t.Fatal("Expected validation error")
	}

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected *ValidationError, got %T: %v", err, err)
	}
	if vErr.Field != "status" {
		t.Errorf("Field = %q, want status", vErr.Field)
	}
	if got := mock.RequestCount(); got != 0 {
		t.Errorf("requests before validation = %d, want 0", got)
	}
}

func TestOrders_VersionDriftWarns(t *testing.T) {
	mock := testutil.NewMockAdminAPI("2023-10")
	defer mock.Close()

	mock.SetCount(apiPath("orders/count"), 1)
	mock.SetPages(apiPath("orders"), []testutil.Page{
		{Body: `{"orders": [{"id": 1}]}`},
	})

	svc := testService(t, mock)
	result, err := svc.Orders(context.Background(), OrderParams{})
	if err != nil {
		t.Fatalf("Orders failed: %v", err)
	}

	if len(result.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one version warning", result.Warnings)
	}
	if !strings.Contains(result.Warnings[0], "2023-10") {
		t.Errorf("warning %q does not name the served version", result.Warnings[0])
	}
	if result.Tables["orders"].Len() != 1 {
		t.Error("version drift must not discard the result")
	}
}

func TestOrders_IDOverflowWarnsButFetches(t *testing.T) {
	mock := testutil.NewMockAdminAPI(testAPIVersion)
	defer mock.Close()

	mock.SetCount(apiPath("orders/count"), 3)
	mock.SetPages(apiPath("orders"), []testutil.Page{
		{Body: `{"orders": [{"id": 1}, {"id": 2}]}`},
	})

	svc := testService(t, mock)
	result, err := svc.Orders(context.Background(), OrderParams{
		PagingParams: PagingParams{Limit: 2, MaxPages: 1},
		IDs:          []int64{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("Orders failed: %v", err)
	}

	if len(result.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one overflow warning", result.Warnings)
	}
	if !strings.Contains(result.Warnings[0], "partial") {
		t.Errorf("warning %q does not flag partial results", result.Warnings[0])
	}
	if result.Tables["orders"].Len() != 2 {
		t.Error("overflow warning must not discard the fetched rows")
	}
}

func TestOrders_RequestErrorAborts(t *testing.T) {
	mock := testutil.NewMockAdminAPI(testAPIVersion)
	defer mock.Close()

	mock.SetCount(apiPath("orders/count"), 1)
	mock.SetResponse(apiPath("orders"), testutil.NewNotFoundResponse())

	svc := testService(t, mock)
	result, err := svc.Orders(context.Background(), OrderParams{})
	if err == nil {
		t.Fatal("Expected request error")
	}
	if result != nil {
		t.Error("failed fetch must not return partial results")
	}

	var reqErr *client.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Expected *client.RequestError, got %T: %v", err, err)
	}
	if reqErr.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", reqErr.StatusCode)
	}
}

func TestInventoryLevels_ChunksBothIDSets(t *testing.T) {
	mock := testutil.NewMockAdminAPI(testAPIVersion)
	defer mock.Close()

	mock.SetPages(apiPath("inventory_levels"), []testutil.Page{
		{Body: `{"inventory_levels": [{"inventory_item_id": 1, "location_id": 905684977, "available": 4}]}`},
	})

	// 120 item ids chunk into 3 batches; 2 location ids fit in 1 batch.
	itemIDs := make([]int64, 120)
	for i := range itemIDs {
		itemIDs[i] = int64(i + 1)
	}

	svc := testService(t, mock)
	result, err := svc.InventoryLevels(context.Background(), InventoryLevelParams{
		InventoryItemIDs: itemIDs,
		LocationIDs:      []int64{905684977, 487838322},
	})
	if err != nil {
		t.Fatalf("InventoryLevels failed: %v", err)
	}
	if result.Tables["inventory_levels"] == nil {
		t.Fatal("inventory_levels table missing")
	}

	requests := mock.RequestsTo(apiPath("inventory_levels"))
	if len(requests) != 3 {
		t.Fatalf("requests = %d, want 3 batch combinations", len(requests))
	}
	for i, req := range requests {
		ids := strings.Split(req.Query.Get("inventory_item_ids"), ",")
		if len(ids) > 50 {
			t.Errorf("request %d carries %d item ids, want <= 50", i, len(ids))
		}
		if got := req.Query.Get("location_ids"); got != "905684977,487838322" {
			t.Errorf("request %d location_ids = %q", i, got)
		}
	}
}

func TestInventoryItems_RequiresIDsBeforeIO(t *testing.T) {
	mock := testutil.NewMockAdminAPI(testAPIVersion)
	defer mock.Close()

	svc := testService(t, mock)
	_, err := svc.InventoryItems(context.Background(), InventoryItemParams{})
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if got := mock.RequestCount(); got != 0 {
		t.Errorf("requests before validation = %d, want 0", got)
	}
}

func TestInventoryItems_Fetches(t *testing.T) {
	mock := testutil.NewMockAdminAPI(testAPIVersion)
	defer mock.Close()

	mock.SetPages(apiPath("inventory_items"), []testutil.Page{
		{Body: `{"inventory_items": [{"id": 808950810, "sku": "IPOD2008PINK"}]}`},
	})

	svc := testService(t, mock)
	result, err := svc.InventoryItems(context.Background(), InventoryItemParams{IDs: []int64{808950810}})
	if err != nil {
		t.Fatalf("InventoryItems failed: %v", err)
	}
	if got := result.Tables["inventory_items"].Len(); got != 1 {
		t.Errorf("inventory_items rows = %d, want 1", got)
	}

	requests := mock.RequestsTo(apiPath("inventory_items"))
	if len(requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(requests))
	}
	if got := requests[0].Query.Get("ids"); got != "808950810" {
		t.Errorf("ids = %q, want 808950810", got)
	}
}

func TestLocations_Fetches(t *testing.T) {
	mock := testutil.NewMockAdminAPI(testAPIVersion)
	defer mock.Close()

	mock.SetCount(apiPath("locations/count"), 2)
	mock.SetPages(apiPath("locations"), []testutil.Page{
		{Body: `{"locations": [{"id": 1, "name": "Warehouse"}, {"id": 2, "name": "Storefront"}]}`},
	})

	svc := testService(t, mock)
	result, err := svc.Locations(context.Background(), LocationParams{})
	if err != nil {
		t.Fatalf("Locations failed: %v", err)
	}
	if got := result.Tables["locations"].Len(); got != 2 {
		t.Errorf("locations rows = %d, want 2", got)
	}
}

func TestCounts(t *testing.T) {
	mock := testutil.NewMockAdminAPI(testAPIVersion)
	defer mock.Close()

	mock.SetCount(apiPath("orders/count"), 42)
	mock.SetCount(apiPath("products/count"), 7)
	mock.SetCount(apiPath("locations/count"), 3)

	svc := testService(t, mock)
	ctx := context.Background()

	if got, err := svc.OrdersCount(ctx, OrderParams{}); err != nil || got != 42 {
		t.Errorf("OrdersCount = %d, %v; want 42", got, err)
	}
	if got, err := svc.ProductsCount(ctx, ProductParams{}); err != nil || got != 7 {
		t.Errorf("ProductsCount = %d, %v; want 7", got, err)
	}
	if got, err := svc.LocationsCount(ctx); err != nil || got != 3 {
		t.Errorf("LocationsCount = %d, %v; want 3", got, err)
	}
}

func TestCounts_FilteredCountPassesQuery(t *testing.T) {
	mock := testutil.NewMockAdminAPI(testAPIVersion)
	defer mock.Close()

	mock.SetCount(apiPath("orders/count"), 5)

	svc := testService(t, mock)
	if _, err := svc.OrdersCount(context.Background(), OrderParams{Status: "closed"}); err != nil {
		t.Fatalf("OrdersCount failed: %v", err)
	}

	requests := mock.RequestsTo(apiPath("orders/count"))
	if len(requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(requests))
	}
	if got := requests[0].Query.Get("status"); got != "closed" {
		t.Errorf("count query status = %q, want closed", got)
	}
}
