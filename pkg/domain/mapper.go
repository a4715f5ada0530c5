package domain

import (
	"encoding/json"
	"time"

	"github.com/ghinsight/ghinsight/pkg/apierr"
)

// accountPayload matches the raw account resource. Required fields use
// pointers so an absent field is distinguishable from a zero value.
type accountPayload struct {
	ID          *int64  `json:"id"`
	Login       *string `json:"login"`
	Name        string  `json:"name"`
	Bio         string  `json:"bio"`
	Email       string  `json:"email"`
	Location    string  `json:"location"`
	Company     string  `json:"company"`
	Blog        string  `json:"blog"`
	Twitter     string  `json:"twitter_username"`
	AvatarURL   string  `json:"avatar_url"`
	Followers   int     `json:"followers"`
	Following   int     `json:"following"`
	PublicRepos int     `json:"public_repos"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// repositoryPayload matches one entry of the repository listing resource.
type repositoryPayload struct {
	ID            *int64  `json:"id"`
	Name          *string `json:"name"`
	FullName      *string `json:"full_name"`
	HTMLURL       *string `json:"html_url"`
	Description   string  `json:"description"`
	Language      string  `json:"language"`
	DefaultBranch string  `json:"default_branch"`
	Stars         int     `json:"stargazers_count"`
	Forks         int     `json:"forks_count"`
	Watchers      int     `json:"watchers_count"`
	Size          int     `json:"size"`
	Private       bool    `json:"private"`
	Fork          bool    `json:"fork"`
	HasIssues     bool    `json:"has_issues"`
	HasWiki       bool    `json:"has_wiki"`
	HasPages      bool    `json:"has_pages"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
	PushedAt      string  `json:"pushed_at"`
	OwnerRef      struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// ToAccount converts a raw account payload into an Account. It returns a
// ValidationError when a required field is missing or the payload has the
// wrong shape. Negative counts are clamped to zero; unparsable timestamps
// become nil rather than failing, distinguishing required structural fields
// from optional descriptive ones.
func ToAccount(data []byte) (Account, error) {
	var p accountPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Account{}, &apierr.ValidationError{
			Field:  "payload",
			Value:  snippet(data),
			Reason: "account payload is not a JSON object",
		}
	}

	if p.ID == nil {
		return Account{}, &apierr.ValidationError{Field: "id", Reason: "required field missing"}
	}
	if p.Login == nil || *p.Login == "" {
		return Account{}, &apierr.ValidationError{Field: "login", Reason: "required field missing"}
	}

	return Account{
		ID:          *p.ID,
		Login:       *p.Login,
		Name:        p.Name,
		Bio:         p.Bio,
		Email:       p.Email,
		Location:    p.Location,
		Company:     p.Company,
		Blog:        p.Blog,
		Twitter:     p.Twitter,
		AvatarURL:   p.AvatarURL,
		Followers:   clamp(p.Followers),
		Following:   clamp(p.Following),
		PublicRepos: clamp(p.PublicRepos),
		CreatedAt:   parseTime(p.CreatedAt),
		UpdatedAt:   parseTime(p.UpdatedAt),
	}, nil
}

// ToRepository converts one raw repository payload into a Repository, with
// the same validation, clamping, and best-effort timestamp policy as
// ToAccount.
func ToRepository(data []byte) (Repository, error) {
	var p repositoryPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Repository{}, &apierr.ValidationError{
			Field:  "payload",
			Value:  snippet(data),
			Reason: "repository payload is not a JSON object",
		}
	}

	if p.ID == nil {
		return Repository{}, &apierr.ValidationError{Field: "id", Reason: "required field missing"}
	}
	if p.Name == nil || *p.Name == "" {
		return Repository{}, &apierr.ValidationError{Field: "name", Reason: "required field missing"}
	}
	if p.FullName == nil || *p.FullName == "" {
		return Repository{}, &apierr.ValidationError{Field: "full_name", Reason: "required field missing"}
	}
	if p.HTMLURL == nil || *p.HTMLURL == "" {
		return Repository{}, &apierr.ValidationError{Field: "html_url", Reason: "required field missing"}
	}

	return Repository{
		ID:            *p.ID,
		Name:          *p.Name,
		FullName:      *p.FullName,
		URL:           *p.HTMLURL,
		Owner:         p.OwnerRef.Login,
		Description:   p.Description,
		Language:      p.Language,
		DefaultBranch: p.DefaultBranch,
		Stars:         clamp(p.Stars),
		Forks:         clamp(p.Forks),
		Watchers:      clamp(p.Watchers),
		Size:          clamp(p.Size),
		Private:       p.Private,
		Fork:          p.Fork,
		HasIssues:     p.HasIssues,
		HasWiki:       p.HasWiki,
		HasPages:      p.HasPages,
		CreatedAt:     parseTime(p.CreatedAt),
		UpdatedAt:     parseTime(p.UpdatedAt),
		PushedAt:      parseTime(p.PushedAt),
	}, nil
}

// clamp rejects negative counts in favor of zero.
func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// parseTime parses an RFC 3339 timestamp, returning nil on failure.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

// snippet trims a payload for embedding in validation errors.
func snippet(data []byte) string {
	if len(data) > 120 {
		return string(data[:120]) + "..."
	}
	return string(data)
}
