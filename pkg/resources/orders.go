package resources

import (
	"context"

	"github.com/merchworks/shopify-admin-client/pkg/pagination"
)

// Orders fetches the shop's orders matching params and returns them as
// normalized tables: the "orders" parent plus one child table per nested
// record-array column (line_items, refunds, discount_applications,
// fulfillments, and whatever else the API nests), each child row carrying an
// order_id foreign key.
func (s *Service) Orders(ctx context.Context, params OrderParams) (*Result, error) {
	if err := params.Validate(); err != nil {
		shopifyAccessorCallsTotal.WithLabelValues("orders", "validation_error").Inc()
		return nil, err
	}

	var warnings []string
	if warning, ok := idOverflowWarning("order ids", len(params.IDs), params.MaxPages, params.Limit); ok {
		warnings = append(warnings, warning)
	}

	total, err := s.count(ctx, "orders", params.countQuery())
	if err != nil {
		shopifyAccessorCallsTotal.WithLabelValues("orders", "error").Inc()
		return nil, err
	}

	tmpl := pagination.NewTemplate(s.client.ResourceURL("orders"), params.query())
	pages, err := s.pager.Fetch(ctx, tmpl, pageHint(total, params.Limit), params.MaxPages)
	if err != nil {
		shopifyAccessorCallsTotal.WithLabelValues("orders", "error").Inc()
		return nil, err
	}

	return s.finish("orders", pages, warnings)
}

// OrdersCount returns the total number of orders matching params without
// fetching them.
func (s *Service) OrdersCount(ctx context.Context, params OrderParams) (int, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}
	return s.count(ctx, "orders", params.countQuery())
}
