package resources

import (
	"context"

	"github.com/merchworks/shopify-admin-client/pkg/pagination"
)

// InventoryLevels fetches stock levels for the cross product of the given
// inventory item ids and location ids. The endpoint takes id sets in the
// query string, so the fetch runs through the chunked pager: both sets are
// partitioned into batches of at most 50 and every batch combination is
// paged under one global page budget.
func (s *Service) InventoryLevels(ctx context.Context, params InventoryLevelParams) (*Result, error) {
	if err := params.Validate(); err != nil {
		shopifyAccessorCallsTotal.WithLabelValues("inventory_levels", "validation_error").Inc()
		return nil, err
	}

	var warnings []string
	if warning, ok := idOverflowWarning("inventory item ids", len(params.InventoryItemIDs), params.MaxPages, params.Limit); ok {
		warnings = append(warnings, warning)
	}
	if warning, ok := idOverflowWarning("location ids", len(params.LocationIDs), params.MaxPages, params.Limit); ok {
		warnings = append(warnings, warning)
	}

	tmpl := pagination.NewTemplate(s.client.ResourceURL("inventory_levels"), params.baseQuery())
	outer := pagination.IDFilter{Param: "location_ids", IDs: params.LocationIDs}
	inner := pagination.IDFilter{Param: "inventory_item_ids", IDs: params.InventoryItemIDs}

	pages, err := s.chunked.Fetch(ctx, outer, inner, tmpl, params.MaxPages)
	if err != nil {
		shopifyAccessorCallsTotal.WithLabelValues("inventory_levels", "error").Inc()
		return nil, err
	}

	return s.finish("inventory_levels", pages, warnings)
}

// InventoryItems fetches the inventory items with the given ids. The
// endpoint only answers id-filtered requests, so the ids run through the
// chunked pager in batches of at most 50.
func (s *Service) InventoryItems(ctx context.Context, params InventoryItemParams) (*Result, error) {
	if err := params.Validate(); err != nil {
		shopifyAccessorCallsTotal.WithLabelValues("inventory_items", "validation_error").Inc()
		return nil, err
	}

	var warnings []string
	if warning, ok := idOverflowWarning("inventory item ids", len(params.IDs), params.MaxPages, params.Limit); ok {
		warnings = append(warnings, warning)
	}

	tmpl := pagination.NewTemplate(s.client.ResourceURL("inventory_items"), params.baseQuery())
	filter := pagination.IDFilter{Param: "ids", IDs: params.IDs}

	pages, err := s.chunked.Fetch(ctx, filter, pagination.IDFilter{}, tmpl, params.MaxPages)
	if err != nil {
		shopifyAccessorCallsTotal.WithLabelValues("inventory_items", "error").Inc()
		return nil, err
	}

	return s.finish("inventory_items", pages, warnings)
}
