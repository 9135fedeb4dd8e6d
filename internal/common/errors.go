// Package common defines shared constants and sentinel errors used across
// the videotube server and the authctl client. Callers should use errors.Is
// to match these values, or KindOf to classify an arbitrary error.
package common

import (
	"errors"
	"fmt"
)

var (
	// Input validation errors.
	ErrMissingInput = errors.New("missing input")
	ErrInvalidInput = errors.New("invalid input")

	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrStoreUnavailable marks a failure of the backing store (connection
	// loss, timeouts, open circuit). It is the only transient kind.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Credential errors.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is the umbrella for every token failure.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken    = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrTokenExpired    = fmt.Errorf("%w: token expired", ErrUnauthenticated)

	// ErrRefreshTokenExpired is returned when a validly signed refresh token
	// no longer matches the one persisted for the user (rotated out or revoked).
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Transport-level throttling.
	ErrRateLimited = errors.New("too many attempts")
)

// Kind classifies an error into the category a caller acts upon.
type Kind int

const (
	KindNone Kind = iota
	KindMissingInput
	KindInvalidInput
	KindNotFound
	KindAlreadyExists
	KindInvalidCredentials
	KindUnauthenticated
	KindExpired
	KindStoreUnavailable
	KindRateLimited
	KindUnknown
)

var kindNames = map[Kind]string{
	KindNone:               "ok",
	KindMissingInput:       "missing_input",
	KindInvalidInput:       "invalid_input",
	KindNotFound:           "not_found",
	KindAlreadyExists:      "already_exists",
	KindInvalidCredentials: "invalid_credentials",
	KindUnauthenticated:    "unauthenticated",
	KindExpired:            "expired",
	KindStoreUnavailable:   "store_unavailable",
	KindRateLimited:        "rate_limited",
	KindUnknown:            "unknown",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// Retriable reports whether the caller may retry the failed request as is.
func (k Kind) Retriable() bool {
	return k == KindStoreUnavailable
}

// KindOf returns the Kind of err. A nil error yields KindNone, an error that
// wraps none of the sentinels above yields KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMissingInput):
		return KindMissingInput
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrorNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrRefreshTokenExpired):
		return KindExpired
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	default:
		return KindUnknown
	}
}
