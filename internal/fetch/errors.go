// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"errors"
	"fmt"
)

// Semantic request errors, mapped from upstream HTTP statuses. None of
// these are retried: the same request would fail the same way again.
var (
	ErrBadQuery     = errors.New("bad query: the search request was rejected by the API")
	ErrUnauthorized = errors.New("unauthorized: the API key was missing or rejected")
	ErrForbidden    = errors.New("forbidden: access to the search API was denied")
	ErrNotFound     = errors.New("not found: the search endpoint returned no such resource")
	ErrUpstream     = errors.New("upstream failure: the search API reported an internal error")
)

// TransientError reports that retrieval failed after exhausting retries
// on connection or timeout failures. It wraps the last transport error.
type TransientError struct {
	Attempts int
	Last     error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("failed to fetch results after %d attempts: %v", e.Attempts, e.Last)
}

func (e *TransientError) Unwrap() error { return e.Last }

// StatusError reports a non-success HTTP status with no more specific
// classification.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search API returned unexpected HTTP %d", e.Code)
}

// classifyStatus maps a non-2xx, non-429 status code to its error kind.
func classifyStatus(code int) error {
	switch code {
	case 400:
		return ErrBadQuery
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 500:
		return ErrUpstream
	default:
		return &StatusError{Code: code}
	}
}
