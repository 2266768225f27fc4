// Package testutil provides testing utilities for the Admin API client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// DefaultCallLimit is the call-limit header value served unless a fixture
// overrides it.
const DefaultCallLimit = "1/40"

// MockResponse defines the behavior for one mock Admin API endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Page is one fixture page of a paginated collection. NextQuery, when
// non-empty, is advertised as the query string of the next-page URL in the
// Link header; an empty NextQuery makes this the last page.
type Page struct {
	Body      string
	NextQuery string
	CallLimit string
}

// RecordedRequest captures what the client actually sent.
type RecordedRequest struct {
	Path   string
	Query  url.Values
	Header http.Header
}

// MockAdminAPI is a configurable mock Admin API server for testing. It
// serves fixture responses per path, stamps every response with the
// call-limit and version-echo headers, and records each incoming request.
type MockAdminAPI struct {
	server *httptest.Server

	mu         sync.RWMutex
	apiVersion string
	handlers   map[string]func(w http.ResponseWriter, r *http.Request)
	pageIndex  map[string]int
	requests   []RecordedRequest
}

// NewMockAdminAPI creates a mock server that echoes apiVersion on every
// response.
func NewMockAdminAPI(apiVersion string) *MockAdminAPI {
	mock := &MockAdminAPI{
		apiVersion: apiVersion,
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		pageIndex:  make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests = append(mock.requests, RecordedRequest{
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
		})
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w)
	}))

	return mock
}

// URL returns the mock server URL, usable as the shop base URL.
func (m *MockAdminAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAdminAPI) Close() {
	m.server.Close()
}

// Reset clears the recorded requests and pagination positions.
func (m *MockAdminAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.pageIndex = make(map[string]int)
}

// SetVersionEcho changes the version stamped on subsequent responses, for
// exercising version-drift warnings.
func (m *MockAdminAPI) SetVersionEcho(apiVersion string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiVersion = apiVersion
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAdminAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockAdminAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		m.stampHeaders(w, DefaultCallLimit)
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetCount configures a count endpoint reporting n.
func (m *MockAdminAPI) SetCount(path string, n int) {
	m.SetResponse(path, MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"count": %d}`, n),
	})
}

// SetPages configures a paginated collection endpoint. Requests to the path
// are served the fixture pages in order regardless of query parameters; a
// page with a NextQuery advertises the next-page URL in the Link header the
// way the Admin API does. Requests past the last page are answered with the
// last page again.
func (m *MockAdminAPI) SetPages(path string, pages []Page) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		idx := m.pageIndex[path]
		if idx < len(pages)-1 {
			m.pageIndex[path] = idx + 1
		}
		m.mu.Unlock()

		page := pages[idx]

		callLimit := page.CallLimit
		if callLimit == "" {
			callLimit = DefaultCallLimit
		}
		m.stampHeaders(w, callLimit)

		if page.NextQuery != "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s%s?%s>; rel="next"`, m.server.URL, path, page.NextQuery))
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(page.Body))
	})
}

// RequestCount returns the number of requests made to the server.
func (m *MockAdminAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// Requests returns a copy of the recorded requests in arrival order.
func (m *MockAdminAPI) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// RequestsTo returns the recorded requests for one path.
func (m *MockAdminAPI) RequestsTo(path string) []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []RecordedRequest
	for _, req := range m.requests {
		if req.Path == path {
			matched = append(matched, req)
		}
	}
	return matched
}

// stampHeaders sets the headers every Admin API response carries.
func (m *MockAdminAPI) stampHeaders(w http.ResponseWriter, callLimit string) {
	m.mu.RLock()
	version := m.apiVersion
	m.mu.RUnlock()

	w.Header().Set("X-Shopify-Shop-Api-Call-Limit", callLimit)
	w.Header().Set("X-Shopify-Api-Version", version)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
}

// defaultHandler answers unconfigured paths with an empty JSON object.
func (m *MockAdminAPI) defaultHandler(w http.ResponseWriter) {
	m.stampHeaders(w, DefaultCallLimit)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{}`))
}

// NewNotFoundResponse creates a 404 response with the Admin API's error
// payload shape.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"errors": "Not Found"}`,
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response with a full
// bucket.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"errors": "Exceeded 2 calls per second for api client"}`,
		Headers: map[string]string{
			"X-Shopify-Shop-Api-Call-Limit": "40/40",
			"Retry-After":                   "2.0",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"errors": "Internal Server Error"}`,
	}
}
