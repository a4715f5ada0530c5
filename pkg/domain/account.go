// Package domain contains the core entities (Account, Repository) and the
// mapper that builds them from raw API payloads.
//
// Entities are constructed only through the mapper (or by decoding a
// cache-serialized form) and are immutable after construction: a refreshed
// fetch produces a new instance, never an in-place update. Derived
// properties are computed by methods, never stored.
package domain

import (
	"math"
	"time"
)

// recentWindow is the window within which an account or repository counts
// as recently active or new.
const recentWindow = 30 * 24 * time.Hour

// Account is a remote account profile.
type Account struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	Email     string `json:"email"`
	Location  string `json:"location"`
	Company   string `json:"company"`
	Blog      string `json:"blog"`
	Twitter   string `json:"twitter"`
	AvatarURL string `json:"avatar_url"`

	// Counts are clamped to zero at construction.
	Followers   int `json:"followers"`
	Following   int `json:"following"`
	PublicRepos int `json:"public_repos"`

	// Timestamps are nil when the payload value failed to parse.
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// HasCompleteProfile reports whether the descriptive profile fields are all
// filled in.
func (a Account) HasCompleteProfile() bool {
	return a.Name != "" && a.Bio != "" && a.Location != "" && a.Email != ""
}

// EngagementScore is a weighted popularity score over followers and owned
// repositories.
func (a Account) EngagementScore() int {
	return int(math.Round(0.7*float64(a.Followers) + 0.3*float64(a.PublicRepos)))
}

// RecentlyActive reports whether the profile was updated within the last 30
// days. Accounts without a parsable update timestamp are not recently active.
func (a Account) RecentlyActive() bool {
	return a.UpdatedAt != nil && time.Since(*a.UpdatedAt) <= recentWindow
}
