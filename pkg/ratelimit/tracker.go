package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Header names advertised by the remote API on every response.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Tracker holds the most recently observed rate limit state. It is passive:
// it never blocks or throttles requests, it only records what the remote API
// advertises so callers can plan around the quota.
type Tracker struct {
	mu    sync.RWMutex
	state State
	seen  bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// UpdateFromHeaders records the rate limit headers of a response. Responses
// without rate limit headers are ignored.
func (t *Tracker) UpdateFromHeaders(h http.Header) {
	limit, err := strconv.Atoi(h.Get(HeaderLimit))
	if err != nil {
		return
	}
	remaining, err := strconv.Atoi(h.Get(HeaderRemaining))
	if err != nil {
		return
	}

	state := State{
		Limit:      limit,
		Remaining:  remaining,
		ObservedAt: time.Now(),
	}
	if reset, err := strconv.ParseInt(h.Get(HeaderReset), 10, 64); err == nil {
		state.ResetAt = time.Unix(reset, 0)
	}

	t.Record(state)
}

// Record stores a snapshot, e.g. one parsed from the rate-limit endpoint.
func (t *Tracker) Record(state State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
	t.seen = true
}

// Snapshot returns the latest observed state. The second return value is
// false when no response has been observed yet.
func (t *Tracker) Snapshot() (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state, t.seen
}
