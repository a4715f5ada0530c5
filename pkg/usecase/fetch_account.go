// Package usecase composes validation, cache lookup, remote fetch, and
// analytics into the operations callers consume.
//
// Every operation follows the same linear shape: validate the input before
// any I/O, consult the cache when enabled, fetch from the remote API on a
// miss, publish the processed result to the cache, and return. A request
// superseded by a newer one for the same logical target discards its result
// instead of publishing it.
package usecase

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/ghinsight/ghinsight/pkg/domain"
	"github.com/ghinsight/ghinsight/pkg/gateway"
	"github.com/ghinsight/ghinsight/pkg/logging"
)

// Profile completeness weights per descriptive field. The percentage is the
// earned weight over the total weight of fields that could exist.
var completenessWeights = []struct {
	field  string
	weight int
	filled func(domain.Account) bool
}{
	{"name", 20, func(a domain.Account) bool { return a.Name != "" }},
	{"bio", 15, func(a domain.Account) bool { return a.Bio != "" }},
	{"location", 10, func(a domain.Account) bool { return a.Location != "" }},
	{"company", 10, func(a domain.Account) bool { return a.Company != "" }},
	{"blog", 10, func(a domain.Account) bool { return a.Blog != "" }},
	{"email", 15, func(a domain.Account) bool { return a.Email != "" }},
	{"twitter", 10, func(a domain.Account) bool { return a.Twitter != "" }},
}

// profileSuggestions maps a missing field to its free-text suggestion, in
// the fixed order the suggestions are emitted.
var profileSuggestions = []struct {
	field      string
	suggestion string
}{
	{"name", "Add your name so people can find you"},
	{"bio", "Write a short bio describing what you work on"},
	{"location", "Share your location to connect with local developers"},
	{"company", "Add your company or organization"},
	{"blog", "Link your website or blog"},
	{"email", "Add a public email so people can reach you"},
}

// FetchAccountInput is the caller-supplied request for one account fetch.
type FetchAccountInput struct {
	Login        string
	UseCache     bool
	ForceRefresh bool

	// TTL overrides the default cache lifetime when positive.
	TTL time.Duration
}

// ProfileMetadata is the derived completeness report for an account.
type ProfileMetadata struct {
	CompletenessPercent int      `json:"completeness_percent"`
	MissingFields       []string `json:"missing_fields"`
	Suggestions         []string `json:"suggestions"`
}

// AccountResult is the outcome of a FetchAccount execution.
type AccountResult struct {
	Account   domain.Account  `json:"account"`
	Metadata  ProfileMetadata `json:"metadata"`
	FromCache bool            `json:"from_cache"`
}

// FetchAccount validates input, applies the cache-aside protocol around the
// gateway, and computes profile metadata.
type FetchAccount struct {
	gateway gateway.AccountGateway
	tokens  *Tracker
	logger  zerolog.Logger
}

// NewFetchAccount creates the operation. The tracker may be shared with
// other operations; pass nil to create a private one.
func NewFetchAccount(gw gateway.AccountGateway, tokens *Tracker) *FetchAccount {
	if tokens == nil {
		tokens = NewTracker()
	}
	return &FetchAccount{
		gateway: gw,
		tokens:  tokens,
		logger:  logging.NewLogger("fetch-account"),
	}
}

// Execute runs the linear fetch pipeline:
// validate, cache lookup, remote fetch, cache write, metadata.
func (op *FetchAccount) Execute(ctx context.Context, input FetchAccountInput) (*AccountResult, error) {
	if err := validateLogin(input.Login); err != nil {
		return nil, err
	}
	login := normalizeLogin(input.Login)
	key := gateway.AccountKey(login)

	if input.UseCache && !input.ForceRefresh {
		var cached AccountResult
		if op.gateway.CachedValue(key, &cached) {
			cached.FromCache = true
			return &cached, nil
		}
	}

	token := op.tokens.Begin("account:" + login)

	account, err := op.gateway.FindByID(ctx, login)
	if err != nil {
		return nil, wrapUnrecognized(err, "fetch account", login)
	}

	result := &AccountResult{
		Account:  account,
		Metadata: computeProfileMetadata(account),
	}

	if !token.Live() {
		op.logger.Debug().Str("login", login).Msg("Discarding superseded account result")
		return nil, ErrSuperseded
	}

	if input.UseCache {
		ttl := input.TTL
		if ttl <= 0 {
			ttl = gateway.DefaultAccountTTL
		}
		op.gateway.CacheValue(key, result, ttl)
	}

	return result, nil
}

// Exists reuses the validation rule but never fails on remote problems: any
// non-validation failure reports false.
func (op *FetchAccount) Exists(ctx context.Context, login string) (bool, error) {
	if err := validateLogin(login); err != nil {
		return false, err
	}
	return op.gateway.Exists(ctx, normalizeLogin(login)), nil
}

// Invalidate drops every cached entry for the identifier.
func (op *FetchAccount) Invalidate(login string) error {
	if err := validateLogin(login); err != nil {
		return err
	}
	op.gateway.Invalidate(normalizeLogin(login))
	return nil
}

// computeProfileMetadata produces the weighted completeness percentage, the
// missing fields, and one suggestion per missing field.
func computeProfileMetadata(account domain.Account) ProfileMetadata {
	earned, total := 0, 0
	missing := make([]string, 0, len(completenessWeights))

	for _, w := range completenessWeights {
		total += w.weight
		if w.filled(account) {
			earned += w.weight
		} else {
			missing = append(missing, w.field)
		}
	}

	suggestions := make([]string, 0, len(profileSuggestions))
	for _, s := range profileSuggestions {
		for _, field := range missing {
			if field == s.field {
				suggestions = append(suggestions, s.suggestion)
				break
			}
		}
	}

	return ProfileMetadata{
		CompletenessPercent: int(math.Round(float64(earned) / float64(total) * 100)),
		MissingFields:       missing,
		Suggestions:         suggestions,
	}
}
