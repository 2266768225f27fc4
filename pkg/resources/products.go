package resources

import (
	"context"

	"github.com/merchworks/shopify-admin-client/pkg/pagination"
)

// Products fetches the shop's products matching params and returns them as
// normalized tables: the "products" parent plus child tables for variants,
// options, images, and any other nested record-array column, each child row
// carrying a product_id foreign key.
func (s *Service) Products(ctx context.Context, params ProductParams) (*Result, error) {
	if err := params.Validate(); err != nil {
		shopifyAccessorCallsTotal.WithLabelValues("products", "validation_error").Inc()
		return nil, err
	}

	var warnings []string
	if warning, ok := idOverflowWarning("product ids", len(params.IDs), params.MaxPages, params.Limit); ok {
		warnings = append(warnings, warning)
	}

	total, err := s.count(ctx, "products", params.countQuery())
	if err != nil {
		shopifyAccessorCallsTotal.WithLabelValues("products", "error").Inc()
		return nil, err
	}

	tmpl := pagination.NewTemplate(s.client.ResourceURL("products"), params.query())
	pages, err := s.pager.Fetch(ctx, tmpl, pageHint(total, params.Limit), params.MaxPages)
	if err != nil {
		shopifyAccessorCallsTotal.WithLabelValues("products", "error").Inc()
		return nil, err
	}

	return s.finish("products", pages, warnings)
}

// ProductsCount returns the total number of products matching params without
// fetching them.
func (s *Service) ProductsCount(ctx context.Context, params ProductParams) (int, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}
	return s.count(ctx, "products", params.countQuery())
}
