package pagination

import (
	"net/http"
	"net/url"
	"strings"
)

// NextPageURL extracts the rel="next" target from a Link response header.
// The header looks like:
//
//	<https://shop.myshopify.com/...?page_info=abc>; rel="previous",
//	<https://shop.myshopify.com/...?page_info=def>; rel="next"
//
// A missing header, a header without a next relation, or a next segment
// whose URL cannot be extracted all end pagination; none of them is an
// error.
func NextPageURL(headers http.Header) (string, bool) {
	value := headers.Get("Link")
	if value == "" {
		return "", false
	}

	for _, segment := range splitLinkSegments(value) {
		if !strings.Contains(segment, `rel="next"`) {
			continue
		}

		start := strings.Index(segment, "<")
		end := strings.Index(segment, ">")
		if start < 0 || end < 0 || end <= start+1 {
			return "", false
		}

		raw := segment[start+1 : end]
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return "", false
		}

		return raw, true
	}

	return "", false
}

// splitLinkSegments splits a Link header on the commas separating its
// relations. Commas inside the <...> target are part of the URL and must
// not split it.
func splitLinkSegments(value string) []string {
	var segments []string
	depth := 0
	start := 0

	for i, r := range value {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				segments = append(segments, value[start:i])
				start = i + 1
			}
		}
	}

	return append(segments, value[start:])
}
