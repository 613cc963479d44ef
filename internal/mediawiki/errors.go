package mediawiki

import (
	"errors"
	"fmt"
	"time"
)

// Connector-specific errors.
var (
	// ErrBadContinuation indicates the server's continuation token was not a
	// flat key-value mapping. Never retried: a corrupted token must not
	// cause infinite or truncated pagination.
	ErrBadContinuation = errors.New("mediawiki: malformed continuation token")

	// ErrResultPath indicates the declared result path could not be resolved
	// against a response. Distinct from a valid path holding an empty list.
	ErrResultPath = errors.New("mediawiki: result path not found in response")

	// ErrMissingField indicates a record lacked a required field.
	ErrMissingField = errors.New("mediawiki: record missing required field")
)

// APIError represents an error reported by the MediaWiki API or an
// unexpected HTTP status.
type APIError struct {
	Code       string
	Info       string
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("mediawiki: API error %s: %s", e.Code, e.Info)
	}
	return fmt.Sprintf("mediawiki: HTTP %d (URL: %s)", e.StatusCode, e.URL)
}

// RateLimitError represents a rate limit signal from the server.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("mediawiki: rate limited, retry after %s", e.RetryAfter)
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.Code == "ratelimited"
	}
	return false
}

// IsNotFound checks if the error indicates a missing page or resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404 || apiErr.Code == "missingtitle" || apiErr.Code == "nosuchpageid"
	}
	return false
}
