package pagination

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/merchworks/shopify-admin-client/pkg/client"
)

// MaxIDsPerBatch caps how many identifiers are embedded in one query
// string. 50 leaves a safe margin against URL-length limits.
const MaxIDsPerBatch = 50

// IDFilter names a query parameter carrying a comma-joined id set. An empty
// id set means "no filter": the parameter is omitted entirely and the
// dimension collapses to a single implicit batch.
type IDFilter struct {
	Param string
	IDs   []int64
}

// ChunkIDs partitions ids into batches of at most size elements, preserving
// order. Every id appears in exactly one batch.
func ChunkIDs(ids []int64, size int) [][]int64 {
	if size <= 0 || len(ids) == 0 {
		return nil
	}

	batches := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

// JoinIDs renders an id batch as the comma-joined query value the Admin API
// expects.
func JoinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// ChunkedPager drives cursor-paged fetches for endpoints that take id sets
// in the query string instead of supporting since-id cursors, such as
// inventory levels crossed against item and location ids.
type ChunkedPager struct {
	pager  *Pager
	logger zerolog.Logger
}

// NewChunkedPager creates a chunked pager on top of a cursor pager.
func NewChunkedPager(pager *Pager) *ChunkedPager {
	return &ChunkedPager{
		pager:  pager,
		logger: log.With().Str("component", "chunked-pager").Logger(),
	}
}

// Fetch partitions both id filters into batches of at most MaxIDsPerBatch
// and runs one cursor-paged fetch per (outer batch, inner batch)
// combination, accumulating pages in batch order. maxPages is a global
// budget across all combinations: once it is spent no further batches are
// issued, even mid-combination. Callers that care about completeness over
// order get every id covered exactly once; the batch ordering itself is not
// part of the contract.
func (cp *ChunkedPager) Fetch(ctx context.Context, outer, inner IDFilter, tmpl RequestTemplate, maxPages int) ([]*client.Response, error) {
	if maxPages < 1 {
		return nil, fmt.Errorf("%w: max pages must be >= 1 (got %d)", ErrInvalidPagerConfig, maxPages)
	}
	if _, ok := tmpl.Limit(); !ok {
		return nil, fmt.Errorf("%w: request template missing limit parameter", ErrInvalidPagerConfig)
	}

	outerBatches := batchesFor(outer)
	innerBatches := batchesFor(inner)

	cp.logger.Debug().
		Int("outer_batches", len(outerBatches)).
		Int("inner_batches", len(innerBatches)).
		Int("max_pages", maxPages).
		Msg("Starting chunked fetch")

	var pages []*client.Response
	remaining := maxPages

	for _, outerBatch := range outerBatches {
		for _, innerBatch := range innerBatches {
			if remaining <= 0 {
				cp.logger.Info().
					Int("max_pages", maxPages).
					Msg("Global page budget spent - stopping remaining batches")
				return pages, nil
			}

			derived := tmpl.Clone()
			if len(outerBatch) > 0 {
				derived = derived.WithParam(outer.Param, JoinIDs(outerBatch))
			}
			if len(innerBatch) > 0 {
				derived = derived.WithParam(inner.Param, JoinIDs(innerBatch))
			}

			got, err := cp.pager.Fetch(ctx, derived, 1, remaining)
			if err != nil {
				return nil, err
			}

			pages = append(pages, got...)
			remaining -= len(got)
		}
	}

	return pages, nil
}

// batchesFor expands a filter into its batches, collapsing an absent filter
// to one implicit unfiltered batch.
func batchesFor(filter IDFilter) [][]int64 {
	if len(filter.IDs) == 0 {
		return [][]int64{nil}
	}
	return ChunkIDs(filter.IDs, MaxIDsPerBatch)
}
