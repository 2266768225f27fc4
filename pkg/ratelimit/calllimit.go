// Package ratelimit parses the X-Shopify-Shop-Api-Call-Limit header and
// decides when paginated fetches should pause. Shopify meters Admin API
// calls with a leaky bucket per shop; the header reports a "used/capacity"
// snapshot of that bucket after every request.
package ratelimit

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

// HeaderAPICallLimit is the response header carrying the call-budget snapshot.
const HeaderAPICallLimit = "X-Shopify-Shop-Api-Call-Limit"

// PauseInterval is the fixed delay applied between pagination rounds when
// the bucket is observed full. The delay does not grow; it is re-applied
// every time a full bucket is seen.
const PauseInterval = 500 * time.Millisecond

// ErrMalformedHeader is returned when the call-limit header does not match
// the expected "<used>/<capacity>" form. Callers treat a failed parse as
// "not throttled" rather than aborting the fetch.
var ErrMalformedHeader = errors.New("malformed call limit header")

// callLimitPattern matches exactly "<integer>/<integer>" with no extra text.
var callLimitPattern = regexp.MustCompile(`^([0-9]+)/([0-9]+)$`)

// CallLimit is a snapshot of the shop's API call budget.
type CallLimit struct {
	// Used is the number of calls currently counted against the bucket.
	Used int

	// Capacity is the bucket size.
	Capacity int
}

// Parse extracts a CallLimit from a raw header value of the form "39/40".
func Parse(value string) (CallLimit, error) {
	m := callLimitPattern.FindStringSubmatch(value)
	if m == nil {
		return CallLimit{}, ErrMalformedHeader
	}

	used, err := strconv.Atoi(m[1])
	if err != nil {
		return CallLimit{}, ErrMalformedHeader
	}

	capacity, err := strconv.Atoi(m[2])
	if err != nil {
		return CallLimit{}, ErrMalformedHeader
	}

	return CallLimit{Used: used, Capacity: capacity}, nil
}

// ShouldPause reports whether the caller should wait before the next call.
// The bucket is considered full only when every slot is used.
func (l CallLimit) ShouldPause() bool {
	return l.Used == l.Capacity
}

// Remaining returns the number of calls left before the bucket is full.
func (l CallLimit) Remaining() int {
	return l.Capacity - l.Used
}
