package resources

import (
	"context"

	"github.com/merchworks/shopify-admin-client/pkg/pagination"
)

// Locations fetches the shop's locations. The endpoint takes no filters, so
// the fetch is sized from the count endpoint and bounded by the paging
// params alone.
func (s *Service) Locations(ctx context.Context, params LocationParams) (*Result, error) {
	if err := params.Validate(); err != nil {
		shopifyAccessorCallsTotal.WithLabelValues("locations", "validation_error").Inc()
		return nil, err
	}

	total, err := s.count(ctx, "locations", nil)
	if err != nil {
		shopifyAccessorCallsTotal.WithLabelValues("locations", "error").Inc()
		return nil, err
	}

	tmpl := pagination.NewTemplate(s.client.ResourceURL("locations"), params.baseQuery())
	pages, err := s.pager.Fetch(ctx, tmpl, pageHint(total, params.Limit), params.MaxPages)
	if err != nil {
		shopifyAccessorCallsTotal.WithLabelValues("locations", "error").Inc()
		return nil, err
	}

	return s.finish("locations", pages, nil)
}

// LocationsCount returns the total number of locations.
func (s *Service) LocationsCount(ctx context.Context) (int, error) {
	return s.count(ctx, "locations", nil)
}
