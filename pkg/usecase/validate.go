package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ghinsight/ghinsight/pkg/apierr"
)

// loginPattern is the external naming rule for account identifiers:
// alphanumeric plus internal hyphens, at most 39 characters, no leading or
// trailing hyphen.
var loginPattern = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,37}[a-zA-Z0-9])?$`)

// Valid listing sort fields and directions accepted by the remote API.
var (
	listSorts      = map[string]bool{"created": true, "updated": true, "pushed": true, "full-name": true}
	listDirections = map[string]bool{"asc": true, "desc": true}
	searchSorts    = map[string]bool{"followers": true, "repositories": true, "joined": true}
	customSorts    = map[string]bool{"popularity": true, "stars": true, "forks": true, "size": true, "name": true, "language": true}
)

// normalizeLogin trims and lower-cases an identifier. The normalized form is
// both the cache key component and the remote-call argument.
func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// validateLogin enforces the naming rule on a raw identifier. It validates
// the trimmed form so surrounding whitespace does not fail a valid name.
func validateLogin(login string) error {
	trimmed := strings.TrimSpace(login)
	if trimmed == "" {
		return &apierr.ValidationError{Field: "login", Value: login, Reason: "identifier is required"}
	}
	if len(trimmed) > 39 {
		return &apierr.ValidationError{Field: "login", Value: trimmed, Reason: "identifier exceeds 39 characters"}
	}
	if !loginPattern.MatchString(trimmed) {
		return &apierr.ValidationError{
			Field:  "login",
			Value:  trimmed,
			Reason: "identifier must be alphanumeric with internal hyphens only",
		}
	}
	return nil
}

// validateListOptions enforces page, per-page, sort, and direction bounds
// for repository listings.
func validateListOptions(page, perPage int, sort, direction string) error {
	if page < 1 {
		return &apierr.ValidationError{Field: "page", Value: strconv.Itoa(page), Reason: "page must be >= 1"}
	}
	if perPage < 1 || perPage > 100 {
		return &apierr.ValidationError{Field: "per_page", Value: strconv.Itoa(perPage), Reason: "per_page must be between 1 and 100"}
	}
	if !listSorts[sort] {
		return &apierr.ValidationError{Field: "sort", Value: sort, Reason: "sort must be one of created, updated, pushed, full-name"}
	}
	if !listDirections[direction] {
		return &apierr.ValidationError{Field: "direction", Value: direction, Reason: "direction must be asc or desc"}
	}
	return nil
}

// wrapUnrecognized converts an untyped failure into a TransportError that
// names the identifier being processed. Already-typed errors pass through
// unchanged so callers can keep matching on the taxonomy.
func wrapUnrecognized(err error, operation, identifier string) error {
	if apierr.IsTyped(err) {
		return err
	}
	return &apierr.TransportError{
		Message: operation + " " + strconv.Quote(identifier),
		Cause:   err,
	}
}
