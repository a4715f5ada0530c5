// Package testutil provides testing utilities for the insights client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior of a mock API endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock of the remote API for testing.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	requestCount  int
	pathCounts    map[string]int
	lastRequest   *http.Request
	lastReqHeader http.Header
}

// NewMockAPI creates a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		mock.lastRequest = r
		mock.lastReqHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCounts = make(map[string]int)
	m.lastRequest = nil
	m.lastReqHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetAccount configures the account resource for a login.
func (m *MockAPI) SetAccount(login, body string) {
	m.SetResponse("/users/"+login, MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    rateLimitHeaders("4999"),
	})
}

// SetRepositories configures the repository listing for a login.
func (m *MockAPI) SetRepositories(login, body string) {
	m.SetResponse("/users/"+login+"/repos", MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    rateLimitHeaders("4998"),
	})
}

// RequestCount returns the total number of requests observed.
func (m *MockAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests observed for one path.
func (m *MockAPI) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// LastHeader returns the headers of the most recent request.
func (m *MockAPI) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastReqHeader
}

// defaultHandler provides API-shaped 404 responses for unconfigured paths.
func (m *MockAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	for k, v := range rateLimitHeaders("5000") {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if r.URL.Path == "/rate_limit" {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"rate":{"limit":5000,"remaining":5000,"reset":%d}}`,
			time.Now().Add(time.Hour).Unix())
		return
	}

	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"message":"Not Found"}`))
}

func rateLimitHeaders(remaining string) map[string]string {
	return map[string]string{
		"X-RateLimit-Limit":     "5000",
		"X-RateLimit-Remaining": remaining,
		"X-RateLimit-Reset":     fmt.Sprintf("%d", time.Now().Add(time.Hour).Unix()),
		"Content-Type":          "application/json; charset=utf-8",
	}
}

// AccountFixture returns a complete account payload for tests.
func AccountFixture(login string) string {
	return fmt.Sprintf(`{
		"id": 583231,
		"login": %q,
		"name": "The Octocat",
		"bio": "GitHub mascot",
		"email": "octocat@github.com",
		"location": "San Francisco",
		"company": "@github",
		"blog": "https://github.blog",
		"twitter_username": "github",
		"followers": 4000,
		"following": 9,
		"public_repos": 8,
		"created_at": "2011-01-25T18:44:36Z",
		"updated_at": %q
	}`, login, time.Now().Add(-24*time.Hour).Format(time.RFC3339))
}

// RepositoryFixture returns one repository payload for tests.
func RepositoryFixture(id int, name, language string, stars int, fork bool) string {
	return fmt.Sprintf(`{
		"id": %d,
		"name": %q,
		"full_name": "octocat/%s",
		"html_url": "https://github.com/octocat/%s",
		"language": %s,
		"stargazers_count": %d,
		"forks_count": %d,
		"watchers_count": %d,
		"fork": %t,
		"has_issues": true,
		"has_wiki": false,
		"owner": {"login": "octocat"},
		"created_at": "2019-06-01T00:00:00Z",
		"updated_at": "2024-01-01T00:00:00Z",
		"pushed_at": "2024-01-02T00:00:00Z"
	}`, id, name, name, name, jsonString(language), stars, stars/5, stars/10, fork)
}

func jsonString(s string) string {
	if s == "" {
		return "null"
	}
	return fmt.Sprintf("%q", s)
}
