package domain

import "time"

// popularThreshold is the star count at which a repository counts as popular.
const popularThreshold = 100

// Repository is a code repository owned by an account.
type Repository struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	URL      string `json:"url"`
	Owner    string `json:"owner"`

	Description   string `json:"description"`
	Language      string `json:"language"`
	DefaultBranch string `json:"default_branch"`

	// Counts are clamped to zero at construction.
	Stars    int `json:"stars"`
	Forks    int `json:"forks"`
	Watchers int `json:"watchers"`
	Size     int `json:"size"`

	Private   bool `json:"private"`
	Fork      bool `json:"fork"`
	HasIssues bool `json:"has_issues"`
	HasWiki   bool `json:"has_wiki"`
	HasPages  bool `json:"has_pages"`

	// Timestamps are nil when the payload value failed to parse.
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	PushedAt  *time.Time `json:"pushed_at"`
}

// PopularityScore weights stars over forks over watchers.
func (r Repository) PopularityScore() int {
	return 3*r.Stars + 2*r.Forks + r.Watchers
}

// IsActive reports whether the repository saw a push within the last 30 days.
func (r Repository) IsActive() bool {
	return r.PushedAt != nil && time.Since(*r.PushedAt) <= recentWindow
}

// IsPopular reports whether the repository has at least 100 stars.
func (r Repository) IsPopular() bool {
	return r.Stars >= popularThreshold
}

// IsWellMaintained reports whether the repository has issues and a wiki
// enabled and is active.
func (r Repository) IsWellMaintained() bool {
	return r.HasIssues && r.HasWiki && r.IsActive()
}

// AgeDays returns the repository age in days. The second return value is
// false when the creation timestamp is unknown.
func (r Repository) AgeDays() (int, bool) {
	if r.CreatedAt == nil {
		return 0, false
	}
	return int(time.Since(*r.CreatedAt).Hours() / 24), true
}

// IsNew reports whether the repository is at most 30 days old. Repositories
// without a parsable creation timestamp are not new.
func (r Repository) IsNew() bool {
	age, ok := r.AgeDays()
	return ok && age <= 30
}
