package adapter

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an adapter failure. The engine treats every kind as
// "this fetch failed" for isolation purposes but logs the distinction.
type Kind string

const (
	KindAuthFailed  Kind = "auth_failed"
	KindRateLimited Kind = "rate_limited"
	KindNotFound    Kind = "not_found"
	KindNetwork     Kind = "network"
	KindUnknown     Kind = "unknown"
)

// Error is a classified adapter failure.
type Error struct {
	Kind Kind
	// RetryAfter is only meaningful for KindRateLimited.
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("adapter: %s", e.Kind)
	}
	return fmt.Sprintf("adapter: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// AuthFailed wraps err as an authentication failure.
func AuthFailed(err error) *Error { return &Error{Kind: KindAuthFailed, Err: err} }

// RateLimited wraps err as a rate-limit failure with the platform's
// suggested retry delay.
func RateLimited(retryAfter time.Duration, err error) *Error {
	return &Error{Kind: KindRateLimited, RetryAfter: retryAfter, Err: err}
}

// NotFound wraps err as a missing-resource failure.
func NotFound(err error) *Error { return &Error{Kind: KindNotFound, Err: err} }

// Network wraps err as a transport failure.
func Network(err error) *Error { return &Error{Kind: KindNetwork, Err: err} }

// Unknown wraps err as an unclassified failure.
func Unknown(err error) *Error { return &Error{Kind: KindUnknown, Err: err} }

// Classify returns the failure kind for err, or KindUnknown when err did
// not originate from an adapter.
func Classify(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsAdapterError reports whether err carries an adapter classification.
func IsAdapterError(err error) bool {
	var ae *Error
	return errors.As(err, &ae)
}
