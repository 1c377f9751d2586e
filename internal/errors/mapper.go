// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Domain error kinds. Services return (or wrap) these; the HTTP layer maps
// them to status codes via Map. None of them should crash the process.
var (
	// ErrUnauthorized covers missing/malformed/invalid bearer credentials
	// and unknown members. Messages differ, the kind does not.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAccountDisabled is a valid credential on an inactive account.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrInsufficientCredits is an unlock attempt with zero balance and no
	// prior access. Client-correctable, not a server fault.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrNotFound covers missing resources and resources filtered out by
	// access rules; the two are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrLinkGone is a share link that resolved but is expired or revoked.
	ErrLinkGone = errors.New("link gone")

	// ErrTokenGeneration means share-token uniqueness retries were
	// exhausted. Fatal configuration-level condition.
	ErrTokenGeneration = errors.New("failed to generate unique token")
)

// WithDetail attaches a user-facing detail message to a domain error kind.
func WithDetail(kind error, detail string) error {
	return &detailError{kind: kind, detail: detail}
}

type detailError struct {
	kind   error
	detail string
}

func (e *detailError) Error() string { return e.detail }
func (e *detailError) Unwrap() error { return e.kind }

// Map converts service/repo errors into an HTTP status code and a safe
// user-facing detail string. Keeps handlers clean by centralizing the mapping.
func Map(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()

	case errors.Is(err, ErrAccountDisabled):
		return http.StatusForbidden, err.Error()

	case errors.Is(err, ErrInsufficientCredits):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, ErrLinkGone):
		return http.StatusGone, err.Error()

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"

	default:
		// never leak internal error details to clients
		return http.StatusInternalServerError, "internal server error"
	}
}
