// Package apierr defines the typed error taxonomy shared by the transport,
// gateway, and use case layers. Errors are constructed once at the boundary
// that observed the failure; upstream code matches on the type and never
// re-inspects transport details.
package apierr

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies the user-visible failure category for an error.
// The presentation layer branches on Kind, never on message text.
type Kind string

const (
	// KindValidation marks caller-supplied input that failed validation.
	KindValidation Kind = "validation"

	// KindNotFound marks a remote resource that does not exist.
	KindNotFound Kind = "not_found"

	// KindRateLimit marks exhaustion of the remote quota.
	KindRateLimit Kind = "rate_limit"

	// KindTransport marks network failures, 5xx responses, and any other
	// unrecognized failure.
	KindTransport Kind = "transport"
)

// ValidationError reports malformed caller input. It is raised before any
// network I/O and is never retried.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s=%q: %s", e.Field, e.Value, e.Reason)
}

// NotFoundError reports an absent remote resource. Terminal, not retried.
type NotFoundError struct {
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource %q not found", e.Identifier)
}

// RateLimitError reports remote quota exhaustion. ResetAt lets the caller
// schedule its own retry; the transport never retries past its attempt budget.
type RateLimitError struct {
	Limit   int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return fmt.Sprintf("rate limit of %d exhausted", e.Limit)
	}
	return fmt.Sprintf("rate limit of %d exhausted, resets at %s", e.Limit, e.ResetAt.Format(time.RFC3339))
}

// TransportError reports a network-level failure, a 5xx response, or any
// other HTTP status the gateway did not translate. StatusCode is 0 when no
// response was received.
type TransportError struct {
	Message    string
	StatusCode int
	Cause      error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transport: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transport: %s", e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// IsTyped reports whether err already belongs to the taxonomy. Operations
// wrap unrecognized errors into TransportError but pass typed errors through
// unchanged.
func IsTyped(err error) bool {
	var ve *ValidationError
	var nf *NotFoundError
	var rl *RateLimitError
	var te *TransportError
	return errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &rl) || errors.As(err, &te)
}

// StatusOf returns the HTTP status embedded in a TransportError, or 0.
func StatusOf(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

// KindOf maps an error to its presentation category. Unrecognized errors
// report KindTransport. TransportError is checked first so a transport
// failure whose cause is a lower-level typed error still presents as
// transport: the outermost classification wins.
func KindOf(err error) Kind {
	var te *TransportError
	if errors.As(err, &te) {
		return KindTransport
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return KindNotFound
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return KindRateLimit
	}
	return KindTransport
}
