// Package resources exposes the typed read accessors of the Admin API:
// orders, products, inventory levels, inventory items, locations, and their
// count endpoints. Each accessor validates its parameters, sizes the fetch
// with an optional count call, drives the pagination layer, and flattens the
// raw pages into normalized tables.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/merchworks/shopify-admin-client/pkg/client"
	"github.com/merchworks/shopify-admin-client/pkg/flatten"
	"github.com/merchworks/shopify-admin-client/pkg/pagination"
	"github.com/merchworks/shopify-admin-client/pkg/ratelimit"
)

// Prometheus metrics for accessor calls.
var (
	shopifyAccessorCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopify_accessor_calls_total",
		Help: "Total accessor invocations by resource and outcome",
	}, []string{"resource", "outcome"})

	shopifyAccessorWarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopify_accessor_warnings_total",
		Help: "Total non-fatal warnings attached to accessor results",
	}, []string{"resource"})
)

// Result is what every accessor returns: the normalized tables keyed by
// table name (the resource itself plus one table per extracted nested
// column) and any non-fatal warnings gathered along the way. Warnings never
// imply a missing table; they flag partial or version-drifted output.
type Result struct {
	Tables   map[string]*flatten.Table
	Warnings []string
}

// Service wires the transport, the pagers, and the flattener into the
// per-resource accessors. One Service per shop/credential pair; independent
// concurrent accessor calls are not coordinated against the shared bucket.
type Service struct {
	client  *client.Client
	pager   *pagination.Pager
	chunked *pagination.ChunkedPager
	logger  zerolog.Logger
}

// NewService creates a Service on top of an Admin API client.
func NewService(c *client.Client) *Service {
	logger := log.With().Str("component", "resources").Logger()
	pager := pagination.NewPager(c, ratelimit.NewTracker(logger))
	return &Service{
		client:  c,
		pager:   pager,
		chunked: pagination.NewChunkedPager(pager),
		logger:  logger,
	}
}

// count calls a resource's count endpoint and returns the reported total.
func (s *Service) count(ctx context.Context, resource string, query url.Values) (int, error) {
	resp, err := s.client.Get(ctx, s.client.ResourceURL(resource+"/count"), query)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", resource, err)
	}

	var payload struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return 0, fmt.Errorf("decode %s count: %w", resource, err)
	}
	if payload.Count < 0 {
		return 0, fmt.Errorf("decode %s count: negative count %d", resource, payload.Count)
	}
	return payload.Count, nil
}

// pageHint sizes the pager's result pre-allocation from a count-endpoint
// total. Always at least 1: even an empty collection costs one round to
// discover.
func pageHint(count, limit int) int {
	hint := (count + limit - 1) / limit
	if hint < 1 {
		return 1
	}
	return hint
}

// bodies strips the pages down to what the flattener consumes.
func bodies(pages []*client.Response) [][]byte {
	out := make([][]byte, len(pages))
	for i, page := range pages {
		out[i] = page.Body
	}
	return out
}

// versionWarning scans the fetched pages for an API-version echo that
// differs from the requested version. Drift changes response shapes, so it
// is surfaced on the Result, but it never fails the fetch.
func (s *Service) versionWarning(pages []*client.Response) (string, bool) {
	requested := s.client.APIVersion()
	for _, page := range pages {
		echo := page.Header.Get(client.HeaderAPIVersion)
		if echo != "" && echo != requested {
			return fmt.Sprintf("requested API version %s but server answered with %s", requested, echo), true
		}
	}
	return "", false
}

// idOverflowWarning flags an id set that cannot fit in the page budget.
// Partial results are an accepted outcome here, so this warns instead of
// failing.
func idOverflowWarning(field string, idCount, maxPages, limit int) (string, bool) {
	if idCount <= maxPages*limit {
		return "", false
	}
	return fmt.Sprintf("%d %s exceed the fetch budget of %d pages x %d records; results will be partial", idCount, field, maxPages, limit), true
}

// finish assembles the Result from the fetched pages: flatten, gather
// warnings, bump metrics.
func (s *Service) finish(resource string, pages []*client.Response, warnings []string) (*Result, error) {
	tables, err := flatten.Flatten(bodies(pages), resource)
	if err != nil {
		shopifyAccessorCallsTotal.WithLabelValues(resource, "error").Inc()
		return nil, fmt.Errorf("flatten %s: %w", resource, err)
	}

	if warning, ok := s.versionWarning(pages); ok {
		warnings = append(warnings, warning)
	}

	shopifyAccessorCallsTotal.WithLabelValues(resource, "success").Inc()
	shopifyAccessorWarningsTotal.WithLabelValues(resource).Add(float64(len(warnings)))

	s.logger.Info().
		Str("resource", resource).
		Int("pages", len(pages)).
		Int("tables", len(tables)).
		Int("warnings", len(warnings)).
		Msg("Accessor fetch complete")

	return &Result{Tables: tables, Warnings: warnings}, nil
}
