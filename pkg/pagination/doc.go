// Package pagination implements the paginated fetch engines for Admin API
// collection endpoints.
//
// The cursor Pager follows the server-driven Link header: the parameters
// attached to the first request are the collection filters, and every later
// round is addressed entirely by the rel="next" URL the server returns. The
// ChunkedPager covers endpoints that take identifier sets in the query
// string instead of supporting cursors: it splits the id sets into batches
// small enough for a URL and drives one cursor-paged fetch per batch
// combination under a shared global page budget.
//
// Both engines are strictly sequential. One request is in flight at a time,
// and the call-limit tracker is consulted between rounds so a full bucket
// pauses the fetch instead of burning the shared budget.
package pagination
