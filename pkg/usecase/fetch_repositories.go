package usecase

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ghinsight/ghinsight/pkg/apierr"
	"github.com/ghinsight/ghinsight/pkg/domain"
	"github.com/ghinsight/ghinsight/pkg/gateway"
	"github.com/ghinsight/ghinsight/pkg/logging"
)

// Repository type filters.
const (
	TypeFork   = "fork"
	TypeSource = "source"
)

// FetchRepositoriesInput is the caller-supplied request for one repository
// listing fetch. Zero values select the defaults noted per field.
type FetchRepositoriesInput struct {
	Login string

	// Remote listing scope. Page defaults to 1, PerPage to 30, Sort to
	// "updated", Direction to "desc".
	Page      int
	PerPage   int
	Sort      string
	Direction string

	// Filters, AND-combined over the fetched set.
	Language   string // case-insensitive exact match
	Type       string // "fork", "source", or empty for no filter
	MinStars   int
	ActiveOnly bool

	// SortBy selects an additional client-side ordering of the filtered
	// set: popularity, stars, forks, size, name, or language.
	SortBy string

	IncludeAnalytics bool
	UseCache         bool
	ForceRefresh     bool

	// TTL overrides the default cache lifetime when positive.
	TTL time.Duration
}

// withDefaults fills the zero-valued listing scope fields.
func (in FetchRepositoriesInput) withDefaults() FetchRepositoriesInput {
	if in.Page == 0 {
		in.Page = 1
	}
	if in.PerPage == 0 {
		in.PerPage = 30
	}
	if in.Sort == "" {
		in.Sort = "updated"
	}
	if in.Direction == "" {
		in.Direction = "desc"
	}
	return in
}

// Categorization partitions the full fetched set four ways. It is always
// computed and independent of filters and sorting.
type Categorization struct {
	ByType        TypeBuckets        `json:"by_type"`
	ByActivity    ActivityBuckets    `json:"by_activity"`
	ByPopularity  PopularityBuckets  `json:"by_popularity"`
	ByMaintenance MaintenanceBuckets `json:"by_maintenance"`
}

// TypeBuckets splits originals from derived copies.
type TypeBuckets struct {
	Original []string `json:"original"`
	Forks    []string `json:"forks"`
}

// ActivityBuckets splits active from inactive repositories.
type ActivityBuckets struct {
	Active   []string `json:"active"`
	Inactive []string `json:"inactive"`
}

// PopularityBuckets splits popular from standard repositories.
type PopularityBuckets struct {
	Popular  []string `json:"popular"`
	Standard []string `json:"standard"`
}

// MaintenanceBuckets splits well-maintained repositories from those needing
// attention.
type MaintenanceBuckets struct {
	WellMaintained []string `json:"well_maintained"`
	NeedsAttention []string `json:"needs_attention"`
}

// Summary describes the shape of one listing result.
type Summary struct {
	TotalFetched  int `json:"total_fetched"`
	TotalMatching int `json:"total_matching"`

	// HasMore is a pagination heuristic: true when the remote returned a
	// full page. The remote pagination headers are the authority if present.
	HasMore bool `json:"has_more"`
}

// RepositoriesResult is the fully processed outcome of a FetchRepositories
// execution. This processed shape, not a raw intermediate form, is what the
// cache stores.
type RepositoriesResult struct {
	Repositories   []domain.Repository `json:"repositories"`
	Analytics      *Analytics          `json:"analytics"`
	Categorization Categorization      `json:"categorization"`
	Summary        Summary             `json:"summary"`
	FromCache      bool                `json:"from_cache"`
}

// FetchRepositories validates input, applies the cache-aside protocol, and
// runs the processing pipeline (filter, sort, analyze, categorize,
// summarize) over the fetched set.
type FetchRepositories struct {
	gateway gateway.AccountGateway
	tokens  *Tracker
	logger  zerolog.Logger
}

// NewFetchRepositories creates the operation. Pass nil to use a private
// supersession tracker.
func NewFetchRepositories(gw gateway.AccountGateway, tokens *Tracker) *FetchRepositories {
	if tokens == nil {
		tokens = NewTracker()
	}
	return &FetchRepositories{
		gateway: gw,
		tokens:  tokens,
		logger:  logging.NewLogger("fetch-repositories"),
	}
}

// Execute runs the pipeline. Analytics and categorization are computed over
// the full fetched set; filters and the custom sort shape only the returned
// repository list.
func (op *FetchRepositories) Execute(ctx context.Context, input FetchRepositoriesInput) (*RepositoriesResult, error) {
	if err := validateLogin(input.Login); err != nil {
		return nil, err
	}
	input = input.withDefaults()
	if err := validateListOptions(input.Page, input.PerPage, input.Sort, input.Direction); err != nil {
		return nil, err
	}
	if input.Type != "" && input.Type != TypeFork && input.Type != TypeSource {
		return nil, &apierr.ValidationError{Field: "type", Value: input.Type, Reason: "type must be fork or source"}
	}
	if input.SortBy != "" && !customSorts[input.SortBy] {
		return nil, &apierr.ValidationError{Field: "sort_by", Value: input.SortBy, Reason: "unknown custom sort field"}
	}

	login := normalizeLogin(input.Login)
	key := gateway.RepositoriesKey(login, cacheOptions(input))

	if input.UseCache && !input.ForceRefresh {
		var cached RepositoriesResult
		if op.gateway.CachedValue(key, &cached) {
			cached.FromCache = true
			return &cached, nil
		}
	}

	token := op.tokens.Begin("repos:" + login)

	fetched, err := op.gateway.FindRepositories(ctx, login, gateway.ListOptions{
		Page:      input.Page,
		PerPage:   input.PerPage,
		Sort:      input.Sort,
		Direction: input.Direction,
	})
	if err != nil {
		return nil, wrapUnrecognized(err, "fetch repositories for", login)
	}

	filtered := applyFilters(fetched, input)
	applyCustomSort(filtered, input.SortBy)

	result := &RepositoriesResult{
		Repositories:   filtered,
		Categorization: categorize(fetched),
		Summary: Summary{
			TotalFetched:  len(fetched),
			TotalMatching: len(filtered),
			HasMore:       len(fetched) == input.PerPage,
		},
	}
	if input.IncludeAnalytics {
		result.Analytics = ComputeAnalytics(fetched)
	}

	if !token.Live() {
		op.logger.Debug().Str("login", login).Msg("Discarding superseded repositories result")
		return nil, ErrSuperseded
	}

	if input.UseCache {
		ttl := input.TTL
		if ttl <= 0 {
			ttl = gateway.DefaultRepositoriesTTL
		}
		op.gateway.CacheValue(key, result, ttl)
	}

	return result, nil
}

// cacheOptions lists every parameter that shapes the processed result, so
// differently-scoped requests never collide in the cache.
func cacheOptions(input FetchRepositoriesInput) map[string]string {
	return map[string]string{
		"page":        strconv.Itoa(input.Page),
		"per_page":    strconv.Itoa(input.PerPage),
		"sort":        input.Sort,
		"direction":   input.Direction,
		"language":    strings.ToLower(input.Language),
		"type":        input.Type,
		"min_stars":   strconv.Itoa(input.MinStars),
		"active_only": strconv.FormatBool(input.ActiveOnly),
		"sort_by":     input.SortBy,
		"analytics":   strconv.FormatBool(input.IncludeAnalytics),
	}
}

// applyFilters AND-combines the optional filters over the fetched set.
func applyFilters(repos []domain.Repository, input FetchRepositoriesInput) []domain.Repository {
	out := make([]domain.Repository, 0, len(repos))
	for _, r := range repos {
		if input.Language != "" && !strings.EqualFold(r.Language, input.Language) {
			continue
		}
		if input.Type == TypeFork && !r.Fork {
			continue
		}
		if input.Type == TypeSource && r.Fork {
			continue
		}
		if r.Stars < input.MinStars {
			continue
		}
		if input.ActiveOnly && !r.IsActive() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// applyCustomSort orders repos in place by the selected client-side field.
// Score sorts are descending; name sorts case-insensitively ascending;
// language ascending with languageless repositories last.
func applyCustomSort(repos []domain.Repository, sortBy string) {
	switch sortBy {
	case "popularity":
		sort.SliceStable(repos, func(i, j int) bool {
			return repos[i].PopularityScore() > repos[j].PopularityScore()
		})
	case "stars":
		sort.SliceStable(repos, func(i, j int) bool { return repos[i].Stars > repos[j].Stars })
	case "forks":
		sort.SliceStable(repos, func(i, j int) bool { return repos[i].Forks > repos[j].Forks })
	case "size":
		sort.SliceStable(repos, func(i, j int) bool { return repos[i].Size > repos[j].Size })
	case "name":
		sort.SliceStable(repos, func(i, j int) bool {
			return strings.ToLower(repos[i].Name) < strings.ToLower(repos[j].Name)
		})
	case "language":
		sort.SliceStable(repos, func(i, j int) bool {
			li, lj := repos[i].Language, repos[j].Language
			if (li == "") != (lj == "") {
				return lj == "" // repositories without a language sort last
			}
			return strings.ToLower(li) < strings.ToLower(lj)
		})
	}
}

// categorize partitions the full set four independent ways.
func categorize(repos []domain.Repository) Categorization {
	c := Categorization{
		ByType:        TypeBuckets{Original: []string{}, Forks: []string{}},
		ByActivity:    ActivityBuckets{Active: []string{}, Inactive: []string{}},
		ByPopularity:  PopularityBuckets{Popular: []string{}, Standard: []string{}},
		ByMaintenance: MaintenanceBuckets{WellMaintained: []string{}, NeedsAttention: []string{}},
	}

	for _, r := range repos {
		if r.Fork {
			c.ByType.Forks = append(c.ByType.Forks, r.Name)
		} else {
			c.ByType.Original = append(c.ByType.Original, r.Name)
		}
		if r.IsActive() {
			c.ByActivity.Active = append(c.ByActivity.Active, r.Name)
		} else {
			c.ByActivity.Inactive = append(c.ByActivity.Inactive, r.Name)
		}
		if r.IsPopular() {
			c.ByPopularity.Popular = append(c.ByPopularity.Popular, r.Name)
		} else {
			c.ByPopularity.Standard = append(c.ByPopularity.Standard, r.Name)
		}
		if r.IsWellMaintained() {
			c.ByMaintenance.WellMaintained = append(c.ByMaintenance.WellMaintained, r.Name)
		} else {
			c.ByMaintenance.NeedsAttention = append(c.ByMaintenance.NeedsAttention, r.Name)
		}
	}

	return c
}
