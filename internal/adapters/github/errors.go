package github

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"
)

// ErrInvalidRef is returned for repository references that are not owner/name.
var ErrInvalidRef = errors.New("github: invalid repository reference")

// ErrInvalidLogin is returned for empty user logins.
var ErrInvalidLogin = errors.New("github: invalid login")

// RateLimitError is returned once retries are exhausted while rate limited.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
	Limit     int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github: rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// APIError is a non-2xx GitHub response.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: %s: API error %d: %s (URL: %s)", e.Op, e.StatusCode, e.Message, e.URL)
}

// IsNotFound reports whether err is a 404 from GitHub.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRateLimited reports whether err means the rate limit was not lifted in time.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsUnauthorized reports whether GitHub rejected the token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

func wrapError(op string, err error) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			Op:         op,
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}
	return fmt.Errorf("github: %s: %w", op, err)
}

// backoff reports how long to wait before retrying err, and whether err is a
// rate limit at all.
func backoff(err error) (time.Duration, bool) {
	var primary *gh.RateLimitError
	if errors.As(err, &primary) {
		return time.Until(primary.Rate.Reset.Time), true
	}
	var secondary *gh.AbuseRateLimitError
	if errors.As(err, &secondary) {
		return secondary.GetRetryAfter(), true
	}
	return 0, false
}
