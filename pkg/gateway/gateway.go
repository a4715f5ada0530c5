// Package gateway adapts the raw transport into entity-level operations.
//
// The gateway is the only component that calls the transport for domain
// operations and the only component that reads or writes the cache store on
// behalf of entities. Use cases supply cache keys and TTLs; the gateway owns
// serialization and swallows every cache failure, because the cache is a
// performance optimization, not a correctness dependency.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ghinsight/ghinsight/pkg/apierr"
	"github.com/ghinsight/ghinsight/pkg/cache"
	"github.com/ghinsight/ghinsight/pkg/domain"
	"github.com/ghinsight/ghinsight/pkg/logging"
	"github.com/ghinsight/ghinsight/pkg/ratelimit"
	"github.com/ghinsight/ghinsight/pkg/transport"
)

// Default entry lifetimes. Use cases may override per call.
const (
	DefaultAccountTTL      = 5 * time.Minute
	DefaultRepositoriesTTL = 3 * time.Minute
	DefaultSearchTTL       = 2 * time.Minute
)

// trackerMaxAge bounds how old a header-derived rate limit snapshot may be
// before RateLimit probes the dedicated endpoint instead.
const trackerMaxAge = 60 * time.Second

// ListOptions scope a repository listing request.
type ListOptions struct {
	Page      int
	PerPage   int
	Sort      string
	Direction string
}

// SearchOptions scope an account search request. An empty Sort means
// best-match ordering and is omitted from the remote call.
type SearchOptions struct {
	Page    int
	PerPage int
	Sort    string
}

// AccountGateway is the entity-level contract the use cases depend on.
type AccountGateway interface {
	FindByID(ctx context.Context, login string) (domain.Account, error)
	FindRepositories(ctx context.Context, login string, opts ListOptions) ([]domain.Repository, error)
	SearchAccounts(ctx context.Context, query string, opts SearchOptions) ([]domain.Account, int, error)
	Exists(ctx context.Context, login string) bool
	RateLimit(ctx context.Context) (ratelimit.State, error)

	CacheValue(key cache.Key, value any, ttl time.Duration)
	CachedValue(key cache.Key, out any) bool
	Invalidate(login string)
	InvalidateAll()
}

// Gateway is the concrete AccountGateway backed by the HTTP transport and
// the in-process cache store.
type Gateway struct {
	client  *transport.Client
	store   *cache.Store
	tracker *ratelimit.Tracker
	logger  zerolog.Logger
}

// New creates a gateway. All dependencies are required.
func New(client *transport.Client, store *cache.Store, tracker *ratelimit.Tracker) (*Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("transport client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("rate limit tracker is required")
	}
	return &Gateway{
		client:  client,
		store:   store,
		tracker: tracker,
		logger:  logging.NewLogger("gateway"),
	}, nil
}

// FindByID fetches the account resource. A 404 response becomes
// NotFoundError; every other transport failure propagates already typed.
func (g *Gateway) FindByID(ctx context.Context, login string) (domain.Account, error) {
	resp, err := g.client.Get(ctx, "/users/"+url.PathEscape(login), nil)
	if err != nil {
		if apierr.StatusOf(err) == http.StatusNotFound {
			return domain.Account{}, &apierr.NotFoundError{Identifier: login}
		}
		return domain.Account{}, err
	}

	account, err := domain.ToAccount(resp.Body)
	if err != nil {
		// The remote sent a malformed account resource. That is a transport
		// concern, not caller input.
		return domain.Account{}, &apierr.TransportError{
			Message: fmt.Sprintf("decode account payload for %q", login),
			Cause:   err,
		}
	}
	return account, nil
}

// FindRepositories fetches one page of the repository listing. A non-array
// response body is treated as an empty result with a warning, not an error;
// individual entries that fail validation are skipped the same way.
func (g *Gateway) FindRepositories(ctx context.Context, login string, opts ListOptions) ([]domain.Repository, error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	if opts.Sort != "" {
		query.Set("sort", opts.Sort)
	}
	if opts.Direction != "" {
		query.Set("direction", opts.Direction)
	}

	resp, err := g.client.Get(ctx, "/users/"+url.PathEscape(login)+"/repos", &transport.RequestOptions{Query: query})
	if err != nil {
		if apierr.StatusOf(err) == http.StatusNotFound {
			return nil, &apierr.NotFoundError{Identifier: login}
		}
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(resp.Body, &items); err != nil {
		g.logger.Warn().
			Str("login", login).
			Msg("Repository listing body is not an array, treating as empty")
		return []domain.Repository{}, nil
	}

	repos := make([]domain.Repository, 0, len(items))
	for _, item := range items {
		repo, err := domain.ToRepository(item)
		if err != nil {
			g.logger.Warn().
				Str("login", login).
				Err(err).
				Msg("Skipping invalid repository entry")
			continue
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// searchBody matches the account search response.
type searchBody struct {
	TotalCount int               `json:"total_count"`
	Items      []json.RawMessage `json:"items"`
}

// SearchAccounts queries the account search resource and returns the mapped
// accounts plus the remote total match count. Sort is omitted for best-match
// ordering.
func (g *Gateway) SearchAccounts(ctx context.Context, query string, opts SearchOptions) ([]domain.Account, int, error) {
	params := url.Values{}
	params.Set("q", query)
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	if opts.Sort != "" {
		params.Set("sort", opts.Sort)
	}

	resp, err := g.client.Get(ctx, "/search/users", &transport.RequestOptions{Query: params})
	if err != nil {
		return nil, 0, err
	}

	var body searchBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		g.logger.Warn().Str("query", query).Msg("Search body is malformed, treating as empty")
		return []domain.Account{}, 0, nil
	}

	accounts := make([]domain.Account, 0, len(body.Items))
	for _, item := range body.Items {
		account, err := domain.ToAccount(item)
		if err != nil {
			g.logger.Warn().Str("query", query).Err(err).Msg("Skipping invalid search entry")
			continue
		}
		accounts = append(accounts, account)
	}
	return accounts, body.TotalCount, nil
}

// Exists probes FindByID. The check is best-effort and never fails: a
// NotFoundError yields false, and so does any other failure.
func (g *Gateway) Exists(ctx context.Context, login string) bool {
	if _, err := g.FindByID(ctx, login); err != nil {
		return false
	}
	return true
}

// RateLimit returns the current rate limit window. A fresh header-derived
// snapshot is served directly; otherwise the dedicated endpoint is probed
// and the tracker updated.
func (g *Gateway) RateLimit(ctx context.Context) (ratelimit.State, error) {
	if state, seen := g.tracker.Snapshot(); seen && !state.IsStale(trackerMaxAge) {
		return state, nil
	}

	resp, err := g.client.Get(ctx, "/rate_limit", nil)
	if err != nil {
		return ratelimit.State{}, err
	}

	state, err := ratelimit.ParseBody(resp.Body)
	if err != nil {
		return ratelimit.State{}, &apierr.TransportError{
			Message: "decode rate limit payload",
			Cause:   err,
		}
	}
	g.tracker.Record(state)
	return state, nil
}

// AccountKey derives the cache key for an account resource.
func AccountKey(login string) cache.Key {
	return cache.Key{Resource: "account", ID: login}
}

// RepositoriesKey derives the cache key for a repository listing scoped by
// all shaping parameters, so differently-scoped requests never collide.
func RepositoriesKey(login string, options map[string]string) cache.Key {
	return cache.Key{Resource: "repos", ID: login, Options: options}
}

// SearchKey derives the cache key for an account search.
func SearchKey(query string, options map[string]string) cache.Key {
	return cache.Key{Resource: "search", ID: query, Options: options}
}

// CacheValue serializes and stores a value. Failures are logged and
// swallowed.
func (g *Gateway) CacheValue(key cache.Key, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		g.logger.Warn().Str("cache_key", key.String()).Err(err).Msg("Cache write skipped")
		return
	}
	g.store.Set(key.String(), data, ttl)
	g.logger.Debug().Str("cache_key", key.String()).Dur("ttl", ttl).Msg("Cached value")
}

// CachedValue loads and deserializes a value into out. It returns false on
// a miss or any cache failure; a corrupt entry is dropped.
func (g *Gateway) CachedValue(key cache.Key, out any) bool {
	data, ok := g.store.Get(key.String())
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		g.logger.Warn().Str("cache_key", key.String()).Err(err).Msg("Dropping corrupt cache entry")
		g.store.Delete(key.String())
		return false
	}
	g.logger.Debug().Str("cache_key", key.String()).Msg("Cache hit")
	return true
}

// Invalidate removes every cached entry for the given login: the account
// resource and all scoped repository listings.
func (g *Gateway) Invalidate(login string) {
	normalized := strings.ToLower(strings.TrimSpace(login))
	accountKey := AccountKey(normalized).String()
	reposPrefix := "repos:" + normalized

	for _, key := range g.store.StoreStats().Keys {
		if key == accountKey || key == reposPrefix || strings.HasPrefix(key, reposPrefix+":") {
			g.store.Delete(key)
		}
	}
}

// InvalidateAll empties the cache.
func (g *Gateway) InvalidateAll() {
	g.store.Flush()
}
