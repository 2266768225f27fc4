package pagination

import (
	"net/url"
	"strconv"
)

// RequestTemplate describes the first request of a paginated fetch: the
// collection URL plus the filter parameters. Templates are value types;
// deriving a variant never mutates the original, so a retried or chunked
// round can rebuild its request from scratch.
type RequestTemplate struct {
	URL    string
	Params url.Values
}

// NewTemplate builds a template with a copy of the given parameters.
func NewTemplate(rawURL string, params url.Values) RequestTemplate {
	return RequestTemplate{URL: rawURL, Params: cloneValues(params)}
}

// Clone returns a deep copy of the template.
func (t RequestTemplate) Clone() RequestTemplate {
	return RequestTemplate{URL: t.URL, Params: cloneValues(t.Params)}
}

// WithParam returns a copy of the template with one parameter set.
func (t RequestTemplate) WithParam(key, value string) RequestTemplate {
	derived := t.Clone()
	if derived.Params == nil {
		derived.Params = url.Values{}
	}
	derived.Params.Set(key, value)
	return derived
}

// Limit reads the page-size parameter. The pager requires it to be present.
func (t RequestTemplate) Limit() (int, bool) {
	raw := t.Params.Get("limit")
	if raw == "" {
		return 0, false
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return limit, true
}

func cloneValues(params url.Values) url.Values {
	if params == nil {
		return nil
	}
	cloned := make(url.Values, len(params))
	for key, values := range params {
		cloned[key] = append([]string(nil), values...)
	}
	return cloned
}
