package pagination

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/merchworks/shopify-admin-client/pkg/client"
	"github.com/merchworks/shopify-admin-client/pkg/ratelimit"
)

// Prometheus metrics for pagination.
var (
	shopifyPagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopify_pages_fetched_total",
		Help: "Total pages fetched by stop reason of the surrounding fetch",
	}, []string{"stop_reason"})

	shopifyTransientRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopify_transient_retries_total",
		Help: "Total in-round retries of transient fetch errors",
	})
)

// ErrInvalidPagerConfig is returned for programmer-level misuse of the
// pager: a missing limit parameter or non-positive page counts.
var ErrInvalidPagerConfig = errors.New("invalid pager configuration")

// transientRetryAttempts bounds the in-round retry of a transient fetch
// error before it escalates to fatal. Distinct from the transport's own
// backoff retries.
const transientRetryAttempts = 3

// TransientFetchError marks a failure of a single pager round that is known
// to clear on an immediate retry. Getters wrap such failures so the pager
// can retry the round; anything else aborts the whole fetch.
type TransientFetchError struct {
	Err error
}

// Error implements the error interface.
func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("transient fetch error: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransientFetchError) Unwrap() error {
	return e.Err
}

// Getter issues one authenticated GET request. *client.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, rawURL string, query url.Values) (*client.Response, error)
}

// pageState is the cursor state for one pager round. States are immutable:
// each round derives the next state instead of mutating shared fields, so a
// retried round always re-reads the same URL.
type pageState struct {
	url   string
	query url.Values // filters, attached to the first round only
	round int
}

// next advances to the server-supplied URL. The next-URL carries its own
// full parameter set, so no filters are re-attached.
func (s pageState) next(nextURL string) pageState {
	return pageState{url: nextURL, round: s.round + 1}
}

// Pager drives a cursor-paginated fetch against one collection endpoint.
type Pager struct {
	getter  Getter
	tracker *ratelimit.Tracker
	logger  zerolog.Logger
}

// NewPager creates a pager over the given transport.
func NewPager(getter Getter, tracker *ratelimit.Tracker) *Pager {
	return &Pager{
		getter:  getter,
		tracker: tracker,
		logger:  log.With().Str("component", "pager").Logger(),
	}
}

// Fetch issues sequential GET rounds until the server stops supplying a
// next-page link or maxPages rounds have run. pageHint pre-sizes the result
// and carries no correctness weight: the result may grow past it or stop
// short. Responses are returned in page order with no gaps; any error
// aborts the fetch with no partial results.
func (p *Pager) Fetch(ctx context.Context, tmpl RequestTemplate, pageHint, maxPages int) ([]*client.Response, error) {
	if pageHint < 1 {
		return nil, fmt.Errorf("%w: expected page count hint must be >= 1 (got %d)", ErrInvalidPagerConfig, pageHint)
	}
	if maxPages < 1 {
		return nil, fmt.Errorf("%w: max pages must be >= 1 (got %d)", ErrInvalidPagerConfig, maxPages)
	}
	if _, ok := tmpl.Limit(); !ok {
		return nil, fmt.Errorf("%w: request template missing limit parameter", ErrInvalidPagerConfig)
	}

	pages := make([]*client.Response, 0, pageHint)
	state := pageState{url: tmpl.URL, query: tmpl.Params, round: 1}
	stopReason := "no_next_link"

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := p.fetchRound(ctx, state)
		if err != nil {
			return nil, err
		}
		pages = append(pages, resp)

		nextURL, ok := NextPageURL(resp.Header)
		if !ok {
			p.logger.Debug().
				Int("round", state.round).
				Msg("No next-page link - fetch complete")
			break
		}

		if state.round == maxPages {
			stopReason = "max_pages"
			p.logger.Info().
				Int("max_pages", maxPages).
				Msg("Page cap reached - stopping fetch")
			break
		}

		if err := p.tracker.PauseIfNeeded(ctx, resp.Header); err != nil {
			return nil, err
		}

		state = state.next(nextURL)
	}

	shopifyPagesFetchedTotal.WithLabelValues(stopReason).Add(float64(len(pages)))
	return pages, nil
}

// fetchRound performs one round, retrying transient fetch errors in place.
func (p *Pager) fetchRound(ctx context.Context, state pageState) (*client.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= transientRetryAttempts; attempt++ {
		resp, err := p.getter.Get(ctx, state.url, state.query)
		if err == nil {
			return resp, nil
		}

		var transient *TransientFetchError
		if !errors.As(err, &transient) {
			return nil, err
		}

		lastErr = err
		if attempt < transientRetryAttempts {
			shopifyTransientRetriesTotal.Inc()
			p.logger.Warn().
				Err(err).
				Int("round", state.round).
				Int("attempt", attempt).
				Msg("Transient fetch error - retrying round")
		}
	}

	return nil, fmt.Errorf("page round %d failed after %d attempts: %w", state.round, transientRetryAttempts, lastErr)
}
