package cache

import (
	"fmt"
	"sort"
	"strings"
)

// Key identifies a cached resource. Keys are namespaced by resource kind so
// that an account entry and a repository listing for the same identifier can
// never collide.
type Key struct {
	// Resource is the resource kind (e.g. "account", "repos", "search").
	Resource string

	// ID is the logical identifier (an account login or a search query).
	// It is normalized to lower case.
	ID string

	// Options are the query options that scope the entry (page, per_page,
	// sort, filters). Differently-scoped requests must never collide.
	Options map[string]string
}

// String generates a deterministic cache key string.
// Format: resource:id:opt1=val1:opt2=val2 with options sorted by name.
//
// Example:
//
//	repos:octocat:direction=desc:page=1:per_page=30:sort=updated
func (k Key) String() string {
	parts := []string{k.Resource, strings.ToLower(strings.TrimSpace(k.ID))}

	if len(k.Options) > 0 {
		names := make([]string, 0, len(k.Options))
		for name := range k.Options {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Options[name]))
		}
	}

	return strings.Join(parts, ":")
}
