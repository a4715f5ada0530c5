package usecase

import (
	"errors"
	"sync"
)

// ErrSuperseded is returned when a newer request for the same logical target
// was issued before this one completed. The superseded result is discarded
// and never written to the cache.
var ErrSuperseded = errors.New("request superseded by a newer request for the same target")

// Tracker issues monotonically increasing request tokens per logical target.
// An operation checks its token once, before publishing any result; a stale
// token means a newer request is in flight and this result must be dropped.
type Tracker struct {
	mu     sync.Mutex
	latest map[string]uint64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{latest: make(map[string]uint64)}
}

// Token tags one logical fetch.
type Token struct {
	tracker *Tracker
	target  string
	seq     uint64
}

// Begin registers a new request for target and returns its token. Any token
// previously issued for the same target becomes stale.
func (t *Tracker) Begin(target string) Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest[target]++
	return Token{tracker: t, target: target, seq: t.latest[target]}
}

// Live reports whether this token still represents the newest request for
// its target.
func (tk Token) Live() bool {
	if tk.tracker == nil {
		// Zero token: supersession disabled.
		return true
	}
	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()
	return tk.tracker.latest[tk.target] == tk.seq
}
