package platform

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ignite/adpilot/internal/domain"
)

// AuthenticationError means the platform rejected our credentials. It is
// fatal: callers surface it immediately and trigger a credential-refresh
// flow upstream rather than retrying.
type AuthenticationError struct {
	Platform domain.Platform
	Reason   string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %s", e.Platform, e.Reason)
}

// RateLimitError means the platform told us to slow down and advertised
// how long to wait. The retry layer honors the interval exactly.
type RateLimitError struct {
	Platform          domain.Platform
	RetryAfterSeconds float64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited, retry after %.0fs", e.Platform, e.RetryAfterSeconds)
}

// RetryAfter implements the httpretry rate-limit classification.
func (e *RateLimitError) RetryAfter() time.Duration {
	return time.Duration(e.RetryAfterSeconds * float64(time.Second))
}

// TransientError is a 5xx or network-level failure worth retrying.
type TransientError struct {
	Platform   domain.Platform
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: transient failure: %v", e.Platform, e.Err)
	}
	return fmt.Sprintf("%s: transient failure: status %d", e.Platform, e.StatusCode)
}

// Transient implements the httpretry transient classification.
func (e *TransientError) Transient() bool { return true }

func (e *TransientError) Unwrap() error { return e.Err }

// ValidationError means the platform rejected the request as malformed or
// unsupported. Fatal, never retried.
type ValidationError struct {
	Platform domain.Platform
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed: %s", e.Platform, e.Reason)
}

// ErrorFromResponse maps a non-2xx platform response onto the taxonomy.
// Adapters call it after reading the body so platform-specific messages
// survive into the error chain.
func ErrorFromResponse(p domain.Platform, statusCode int, retryAfterHeader string, body []byte) error {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &AuthenticationError{Platform: p, Reason: truncate(body)}
	case statusCode == http.StatusTooManyRequests:
		secs := 60.0
		if v, err := strconv.ParseFloat(retryAfterHeader, 64); err == nil && v > 0 {
			secs = v
		}
		return &RateLimitError{Platform: p, RetryAfterSeconds: secs}
	case statusCode >= 500:
		return &TransientError{Platform: p, StatusCode: statusCode}
	default:
		return &ValidationError{Platform: p, Reason: fmt.Sprintf("status %d: %s", statusCode, truncate(body))}
	}
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
