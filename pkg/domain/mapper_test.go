package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ghinsight/ghinsight/pkg/apierr"
)

func TestToAccount(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantErr   bool
		wantField string
		check     func(t *testing.T, a Account)
	}{
		{
			name: "full payload",
			payload: `{
				"id": 583231,
				"login": "octocat",
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
				"updated_at": "2024-01-01T00:00:00Z"
			}`,
			check: func(t *testing.T, a Account) {
				if a.ID != 583231 || a.Login != "octocat" {
					t.Errorf("identity = (%d, %q)", a.ID, a.Login)
				}
				if a.Followers != 4000 {
					t.Errorf("Followers = %d, want 4000", a.Followers)
				}
				if a.CreatedAt == nil || a.CreatedAt.Year() != 2011 {
					t.Errorf("CreatedAt = %v", a.CreatedAt)
				}
			},
		},
		{
			name:      "missing id",
			payload:   `{"login": "octocat"}`,
			wantErr:   true,
			wantField: "id",
		},
		{
			name:      "missing login",
			payload:   `{"id": 1}`,
			wantErr:   true,
			wantField: "login",
		},
		{
			name:      "empty login",
			payload:   `{"id": 1, "login": ""}`,
			wantErr:   true,
			wantField: "login",
		},
		{
			name:      "payload is an array",
			payload:   `[1, 2, 3]`,
			wantErr:   true,
			wantField: "payload",
		},
		{
			name:      "login has wrong type",
			payload:   `{"id": 1, "login": 42}`,
			wantErr:   true,
			wantField: "payload",
		},
		{
			name:    "negative counts clamped to zero",
			payload: `{"id": 1, "login": "octocat", "followers": -10, "following": -1, "public_repos": -3}`,
			check: func(t *testing.T, a Account) {
				if a.Followers != 0 || a.Following != 0 || a.PublicRepos != 0 {
					t.Errorf("counts = (%d, %d, %d), want all 0",
						a.Followers, a.Following, a.PublicRepos)
				}
			},
		},
		{
			name:    "unparsable timestamps become nil",
			payload: `{"id": 1, "login": "octocat", "created_at": "yesterday", "updated_at": "2024-13-45T99:00:00Z"}`,
			check: func(t *testing.T, a Account) {
				if a.CreatedAt != nil {
					t.Errorf("CreatedAt = %v, want nil", a.CreatedAt)
				}
				if a.UpdatedAt != nil {
					t.Errorf("UpdatedAt = %v, want nil", a.UpdatedAt)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ToAccount([]byte(tt.payload))
			if tt.wantErr {
				var ve *apierr.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("error = %v, want *ValidationError", err)
				}
				if ve.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, a)
			}
		})
	}
}

func TestToRepository(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantErr   bool
		wantField string
		check     func(t *testing.T, r Repository)
	}{
		{
			name: "full payload",
			payload: `{
				"id": 1296269,
				"name": "hello-world",
				"full_name": "octocat/hello-world",
				"html_url": "https://github.com/octocat/hello-world",
				"description": "My first repository",
				"language": "Go",
				"default_branch": "main",
				"stargazers_count": 250,
				"forks_count": 40,
				"watchers_count": 12,
				"size": 108,
				"fork": false,
				"has_issues": true,
				"has_wiki": true,
				"owner": {"login": "octocat"},
				"created_at": "2011-01-26T19:01:12Z",
				"updated_at": "2024-01-01T00:00:00Z",
				"pushed_at": "2024-01-02T00:00:00Z"
			}`,
			check: func(t *testing.T, r Repository) {
				if r.FullName != "octocat/hello-world" {
					t.Errorf("FullName = %q", r.FullName)
				}
				if r.Owner != "octocat" {
					t.Errorf("Owner = %q, want octocat", r.Owner)
				}
				if r.Stars != 250 || r.Forks != 40 || r.Watchers != 12 {
					t.Errorf("counts = (%d, %d, %d)", r.Stars, r.Forks, r.Watchers)
				}
				if !r.IsPopular() {
					t.Error("IsPopular() = false with 250 stars")
				}
			},
		},
		{
			name:      "missing id",
			payload:   `{"name": "x", "full_name": "o/x", "html_url": "https://example.com"}`,
			wantErr:   true,
			wantField: "id",
		},
		{
			name:      "missing name",
			payload:   `{"id": 1, "full_name": "o/x", "html_url": "https://example.com"}`,
			wantErr:   true,
			wantField: "name",
		},
		{
			name:      "missing full_name",
			payload:   `{"id": 1, "name": "x", "html_url": "https://example.com"}`,
			wantErr:   true,
			wantField: "full_name",
		},
		{
			name:      "missing url",
			payload:   `{"id": 1, "name": "x", "full_name": "o/x"}`,
			wantErr:   true,
			wantField: "html_url",
		},
		{
			name:    "negative star count clamped, not popular",
			payload: `{"id": 1, "name": "x", "full_name": "o/x", "html_url": "https://example.com", "stargazers_count": -5}`,
			check: func(t *testing.T, r Repository) {
				if r.Stars != 0 {
					t.Errorf("Stars = %d, want 0 after clamping", r.Stars)
				}
				if r.IsPopular() {
					t.Error("IsPopular() = true for clamped zero stars")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ToRepository([]byte(tt.payload))
			if tt.wantErr {
				var ve *apierr.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("error = %v, want *ValidationError", err)
				}
				if ve.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, r)
			}
		})
	}
}

func TestToRepository_TimestampPolicy(t *testing.T) {
	payload := fmt.Sprintf(`{
		"id": 1, "name": "x", "full_name": "o/x", "html_url": "https://example.com",
		"created_at": "not-a-date",
		"pushed_at": %q
	}`, time.Now().Add(-time.Hour).Format(time.RFC3339))

	r, err := ToRepository([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.CreatedAt != nil {
		t.Error("unparsable created_at should become nil")
	}
	if r.PushedAt == nil {
		t.Fatal("valid pushed_at dropped")
	}
	if !r.IsActive() {
		t.Error("IsActive() = false with a push one hour ago")
	}
}
