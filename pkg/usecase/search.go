package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ghinsight/ghinsight/pkg/apierr"
	"github.com/ghinsight/ghinsight/pkg/domain"
	"github.com/ghinsight/ghinsight/pkg/gateway"
	"github.com/ghinsight/ghinsight/pkg/logging"
)

// SearchAccountsInput is the caller-supplied request for one account search.
type SearchAccountsInput struct {
	Query string

	// Page defaults to 1, PerPage to 30. An empty Sort means best-match
	// ordering.
	Page    int
	PerPage int
	Sort    string

	UseCache     bool
	ForceRefresh bool
	TTL          time.Duration
}

// SearchAccountsResult is the outcome of one search execution.
type SearchAccountsResult struct {
	Accounts   []domain.Account `json:"accounts"`
	TotalCount int              `json:"total_count"`
	HasMore    bool             `json:"has_more"`
	FromCache  bool             `json:"from_cache"`
}

// SearchAccounts validates input and applies the cache-aside protocol
// around the gateway search operation. All searches share one supersession
// target: a newer search discards any older in-flight result, so a caller
// retyping a query never sees a stale result overwrite a newer one.
type SearchAccounts struct {
	gateway gateway.AccountGateway
	tokens  *Tracker
	logger  zerolog.Logger
}

// NewSearchAccounts creates the operation. Pass nil to use a private
// supersession tracker.
func NewSearchAccounts(gw gateway.AccountGateway, tokens *Tracker) *SearchAccounts {
	if tokens == nil {
		tokens = NewTracker()
	}
	return &SearchAccounts{
		gateway: gw,
		tokens:  tokens,
		logger:  logging.NewLogger("search-accounts"),
	}
}

// Execute runs the search pipeline.
func (op *SearchAccounts) Execute(ctx context.Context, input SearchAccountsInput) (*SearchAccountsResult, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, &apierr.ValidationError{Field: "query", Value: input.Query, Reason: "query is required"}
	}
	if input.Page == 0 {
		input.Page = 1
	}
	if input.PerPage == 0 {
		input.PerPage = 30
	}
	if input.Page < 1 {
		return nil, &apierr.ValidationError{Field: "page", Value: strconv.Itoa(input.Page), Reason: "page must be >= 1"}
	}
	if input.PerPage < 1 || input.PerPage > 100 {
		return nil, &apierr.ValidationError{Field: "per_page", Value: strconv.Itoa(input.PerPage), Reason: "per_page must be between 1 and 100"}
	}
	if input.Sort != "" && !searchSorts[input.Sort] {
		return nil, &apierr.ValidationError{Field: "sort", Value: input.Sort, Reason: "sort must be one of followers, repositories, joined"}
	}

	key := gateway.SearchKey(query, map[string]string{
		"page":     strconv.Itoa(input.Page),
		"per_page": strconv.Itoa(input.PerPage),
		"sort":     input.Sort,
	})

	if input.UseCache && !input.ForceRefresh {
		var cached SearchAccountsResult
		if op.gateway.CachedValue(key, &cached) {
			cached.FromCache = true
			return &cached, nil
		}
	}

	token := op.tokens.Begin("search")

	accounts, total, err := op.gateway.SearchAccounts(ctx, query, gateway.SearchOptions{
		Page:    input.Page,
		PerPage: input.PerPage,
		Sort:    input.Sort,
	})
	if err != nil {
		return nil, wrapUnrecognized(err, "search accounts", query)
	}

	result := &SearchAccountsResult{
		Accounts:   accounts,
		TotalCount: total,
		HasMore:    len(accounts) == input.PerPage,
	}

	if !token.Live() {
		op.logger.Debug().Str("query", query).Msg("Discarding superseded search result")
		return nil, ErrSuperseded
	}

	if input.UseCache {
		ttl := input.TTL
		if ttl <= 0 {
			ttl = gateway.DefaultSearchTTL
		}
		op.gateway.CacheValue(key, result, ttl)
	}

	return result, nil
}
