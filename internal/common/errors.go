// Package common defines shared sentinel errors and small helpers used
// across the tradeauth layers. Callers should use errors.Is to match the
// sentinel values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthenticated is the normal "no active credentials" state for an
	// identity. It is an expected outcome, not a failure: handlers translate
	// it into "please log in", never into a 5xx or an error log.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAuthExchange means the authorization code was rejected upstream
	// (invalid, expired, or already consumed). Not retryable.
	ErrAuthExchange = errors.New("authorization code rejected")

	// ErrUpstreamUnavailable covers network failures, timeouts and 5xx
	// responses from the authorization server. Retryable with backoff; the
	// stored record is left untouched.
	ErrUpstreamUnavailable = errors.New("authorization server unavailable")

	// ErrInvalidSession marks a missing, malformed or expired dashboard
	// session token.
	ErrInvalidSession = errors.New("invalid session token")
)

// ErrRefreshRejected means the stored refresh token was rejected by the
// authorization server. The record is deactivated when this happens, so the
// identity lands in the ErrNotAuthenticated state; the wrap makes
// errors.Is(err, ErrNotAuthenticated) hold for callers that do not care
// about the distinction.
var ErrRefreshRejected = fmt.Errorf("refresh token rejected: %w", ErrNotAuthenticated)
