package ratelimit

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for call-limit tracking.
var (
	shopifyCallsRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shopify_call_limit_remaining",
		Help: "Calls remaining in the shop's API call bucket",
	})

	shopifyThrottlePausesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopify_throttle_pauses_total",
		Help: "Total pagination pauses taken because the call bucket was full",
	})

	shopifyMalformedCallLimitTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopify_malformed_call_limit_total",
		Help: "Total call-limit headers that could not be parsed",
	})
)

// Tracker reads the call-limit header off responses and gates pagination.
// It holds no cross-request state: each response carries a fresh snapshot
// of the bucket, and independent fetches observe the limit independently.
type Tracker struct {
	logger zerolog.Logger
}

// NewTracker creates a new call-limit tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{logger: logger}
}

// Observe parses the call-limit header from a response. The boolean reports
// whether a usable snapshot was found; a missing or malformed header is
// treated as "assume not throttled" because throttling is a politeness
// optimization, not a correctness requirement.
func (t *Tracker) Observe(headers http.Header) (CallLimit, bool) {
	value := headers.Get(HeaderAPICallLimit)
	if value == "" {
		return CallLimit{}, false
	}

	limit, err := Parse(value)
	if err != nil {
		shopifyMalformedCallLimitTotal.Inc()
		t.logger.Warn().
			Str("header", value).
			Msg("Unparseable call limit header - assuming not throttled")
		return CallLimit{}, false
	}

	shopifyCallsRemaining.Set(float64(limit.Remaining()))

	t.logger.Debug().
		Int("used", limit.Used).
		Int("capacity", limit.Capacity).
		Msg("Call limit observed")

	return limit, true
}

// PauseIfNeeded observes the call limit on a response and, if the bucket is
// full, waits for PauseInterval before returning. The wait aborts early when
// the context is cancelled. Pagination loops call this between rounds.
func (t *Tracker) PauseIfNeeded(ctx context.Context, headers http.Header) error {
	limit, ok := t.Observe(headers)
	if !ok || !limit.ShouldPause() {
		return nil
	}

	shopifyThrottlePausesTotal.Inc()
	t.logger.Warn().
		Int("used", limit.Used).
		Int("capacity", limit.Capacity).
		Dur("pause", PauseInterval).
		Msg("Call bucket full - pausing before next page")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(PauseInterval):
		return nil
	}
}
