// Package cache provides an in-process key/value store with per-entry TTL.
//
// The store owns no business semantics: callers (the account gateway) decide
// what to cache, under which key, and for how long. Values are opaque
// serialized payloads.
//
// Expiration is lazy: an entry past its deadline is treated as absent and
// evicted by the Get that discovers it. A TTL of zero means the entry never
// expires and is retained until an explicit Delete or Flush.
//
// All operations are safe for concurrent use. The store serializes access so
// a concurrent Get/Set/Delete on the same key never loses an update; callers
// must still not assume atomicity of a read-then-write across two calls.
//
// Usage:
//
//	store := cache.NewStore()
//	store.Set("account:octocat", payload, 5*time.Minute)
//
//	if v, ok := store.Get("account:octocat"); ok {
//		// cache hit
//	}
//
// Keys are built with Key for deterministic, collision-free derivation:
//
//	k := cache.Key{Resource: "repos", ID: "Octocat", Options: map[string]string{
//		"page": "1", "per_page": "30",
//	}}
//	k.String() // "repos:octocat:page=1:per_page=30"
package cache
