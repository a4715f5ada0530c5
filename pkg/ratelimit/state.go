// Package ratelimit tracks the remote API rate limit. The transport feeds it
// the X-RateLimit-* response headers; the gateway reads the latest snapshot
// and can refresh it from the dedicated rate-limit endpoint.
package ratelimit

import (
	"encoding/json"
	"fmt"
	"time"
)

// State is a point-in-time view of the remote rate limit window.
type State struct {
	// Limit is the total number of requests allowed in the window.
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// ObservedAt is when this state was captured. Used to detect stale data.
	ObservedAt time.Time `json:"observed_at"`
}

// Exhausted reports whether the quota is spent.
func (s State) Exhausted() bool {
	return s.Limit > 0 && s.Remaining <= 0
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s State) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// IsStale reports whether the snapshot is older than maxAge.
func (s State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.ObservedAt) > maxAge
}

// rateLimitBody matches the rate-limit endpoint response. The window is
// reported both as a top-level "rate" object and under "resources.core";
// "rate" is authoritative when present.
type rateLimitBody struct {
	Rate      *rateWindow `json:"rate"`
	Resources struct {
		Core *rateWindow `json:"core"`
	} `json:"resources"`
}

type rateWindow struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"` // epoch seconds
}

// ParseBody decodes a rate-limit endpoint response body into a State.
func ParseBody(body []byte) (State, error) {
	var parsed rateLimitBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return State{}, fmt.Errorf("decode rate limit body: %w", err)
	}

	window := parsed.Rate
	if window == nil {
		window = parsed.Resources.Core
	}
	if window == nil {
		return State{}, fmt.Errorf("rate limit body has no rate window")
	}

	return State{
		Limit:      window.Limit,
		Remaining:  window.Remaining,
		ResetAt:    time.Unix(window.Reset, 0),
		ObservedAt: time.Now(),
	}, nil
}
