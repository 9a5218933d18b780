package spotify

import (
	"fmt"
	"time"

	"github.com/cratebot/cratebot/internal/shared"
)

// ErrorKind classifies an API failure at its point of origin. Callers branch
// on the kind, never on formatted error text.
type ErrorKind int

const (
	// KindTokenExpired is a 401; the client forces a token refresh and retries.
	KindTokenExpired ErrorKind = iota
	// KindRateLimited is a 429 carrying the server's requested delay.
	KindRateLimited
	// KindServerError covers 5xx and 408 responses.
	KindServerError
	// KindNetwork is a transport failure before any response arrived.
	KindNetwork
	// KindNotFound is a 404.
	KindNotFound
	// KindAccessDenied is a 403.
	KindAccessDenied
	// KindRejected covers the remaining non-retryable 4xx responses.
	KindRejected
	// KindBadPayload means the response body could not be decoded.
	KindBadPayload
)

func (k ErrorKind) String() string {
	switch k {
	case KindTokenExpired:
		return "token_expired"
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not_found"
	case KindAccessDenied:
		return "access_denied"
	case KindRejected:
		return "rejected"
	case KindBadPayload:
		return "bad_payload"
	default:
		return ""
	}
}

// APIError is the classified form of a failed API call.
type APIError struct {
	Kind       ErrorKind
	Status     int           // HTTP status, 0 for transport failures
	Message    string        // response body or transport error text
	RetryAfter time.Duration // only set for KindRateLimited
	Err        error         // underlying transport or decode error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindRateLimited:
		return fmt.Sprintf("spotify: rate limited, retry after %s", e.RetryAfter)
	case KindNetwork:
		return fmt.Sprintf("spotify: network error: %s", e.Message)
	case KindTokenExpired:
		return "spotify: access token expired"
	default:
		return fmt.Sprintf("spotify: request failed: status %d: %s", e.Status, e.Message)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the client's retry loop may attempt the call again.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindTokenExpired, KindRateLimited, KindServerError, KindNetwork:
		return true
	default:
		return false
	}
}

// AuthError is a failed token refresh. It unwraps to
// [shared.ErrRefreshFailed] so callers can match it with errors.Is.
type AuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token refresh failed: %v", e.Err)
	}
	return fmt.Sprintf("token refresh failed: HTTP %d: %s", e.Status, e.Body)
}

func (e *AuthError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return shared.ErrRefreshFailed
}
