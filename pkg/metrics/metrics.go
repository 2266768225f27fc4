// Package metrics provides the centralized Prometheus metrics registry for
// the Admin API client. All metrics are defined in their respective packages
// (client, ratelimit, pagination, flatten, resources) to maintain modularity
// and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the Admin API client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - shopify_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - shopify_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - shopify_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - shopify_retries_total{error_class} (Counter): Transport retry attempts by error class
//   - shopify_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - shopify_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Rate Limit Metrics (pkg/ratelimit):
//   - shopify_call_limit_remaining (Gauge): Calls left in the shop's leaky bucket
//   - shopify_throttle_pauses_total (Counter): Pauses taken because the bucket was full
//   - shopify_malformed_call_limit_total (Counter): Call-limit headers that failed to parse
//
// Pagination Metrics (pkg/pagination):
//   - shopify_pages_fetched_total{stop_reason} (Counter): Pages fetched, labeled by why the fetch stopped
//   - shopify_transient_retries_total (Counter): In-round retries of transient fetch errors
//
// Flattening Metrics (pkg/flatten):
//   - shopify_records_flattened_total{table} (Counter): Records flattened per output table
//   - shopify_child_tables_total (Counter): Child tables extracted from nested columns
//   - shopify_flatten_column_skips_total (Counter): Nested columns dropped after failed extraction
//
// Accessor Metrics (pkg/resources):
//   - shopify_accessor_calls_total{resource, outcome} (Counter): Accessor invocations by outcome
//   - shopify_accessor_warnings_total{resource} (Counter): Non-fatal warnings attached to results
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(shopify_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(shopify_request_duration_seconds_bucket[5m]))
//
//   # Throttle Pressure
//   rate(shopify_throttle_pauses_total[5m])
//
//   # Share of Fetches Hitting the Page Cap
//   sum(rate(shopify_pages_fetched_total{stop_reason="max_pages"}[15m])) /
//   sum(rate(shopify_pages_fetched_total[15m]))
