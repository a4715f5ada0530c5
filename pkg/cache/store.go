package cache

import (
	"sync"
	"time"
)

// entry is a stored value with its expiration deadline.
type entry struct {
	value     []byte
	expiresAt time.Time // zero => no expiration
}

// expired reports whether the entry is past its deadline at now.
func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Stats describes the current store contents.
type Stats struct {
	Size int
	Keys []string
}

// Store is an in-process key/value store with per-entry TTL.
// The zero value is not usable; construct with NewStore.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the value stored under key. The second return value is false
// when the key is absent or expired; a lazily-expired entry is removed as a
// side effect of the read that discovers it.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		Misses.Inc()
		return nil, false
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		Evictions.Inc()
		Misses.Inc()
		return nil, false
	}

	Hits.Inc()
	return e.value, true
}

// Set stores value under key. A ttl of zero means no expiration.
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
}

// Delete removes key and reports whether an entry was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[key]
	delete(s.entries, key)
	return ok
}

// Flush removes all entries.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]entry)
}

// StoreStats returns the number of live entries and their keys. Expired
// entries that have not yet been lazily evicted are excluded.
func (s *Store) StoreStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	keys := make([]string, 0, len(s.entries))
	for k, e := range s.entries {
		if e.expired(now) {
			continue
		}
		keys = append(keys, k)
	}
	return Stats{Size: len(keys), Keys: keys}
}
