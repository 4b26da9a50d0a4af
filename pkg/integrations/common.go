package integrations

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	aerrors "github.com/matzehuels/aidocs/pkg/errors"
)

const httpTimeout = 30 * time.Second

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for transport failures (timeouts, connection errors).
	ErrNetwork = errors.New("network error")
)

// StatusError reports a response status that is neither success, not-found,
// nor rate limiting.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// Code returns the error code for this error type.
func (e *StatusError) Code() aerrors.Code { return aerrors.ErrCodeUnexpectedStatus }

// IsServerError reports whether the status is a 5xx.
func (e *StatusError) IsServerError() bool { return e.StatusCode >= 500 }

// IsRateLimited reports whether err (or anything it wraps) is a rate-limit refusal.
func IsRateLimited(err error) bool {
	var rl *aerrors.RateLimitedError
	return errors.As(err, &rl)
}

// NewHTTPClient creates an HTTP client with a standard timeout for API requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// rateLimited classifies a response as a rate-limit refusal. GitHub answers
// 429 for secondary limits and 403 with X-RateLimit-Remaining: 0 when the
// hourly quota is spent.
func rateLimited(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		return resp.Header.Get("X-RateLimit-Remaining") == "0"
	}
	return false
}

// retryAfter reads the server's backoff hint in seconds. Retry-After wins;
// otherwise X-RateLimit-Reset (a unix timestamp) is converted.
func retryAfter(h http.Header, now time.Time) int {
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	if v := strings.TrimSpace(h.Get("X-RateLimit-Reset")); v != "" {
		if reset, err := strconv.ParseInt(v, 10, 64); err == nil {
			if d := reset - now.Unix(); d > 0 {
				return int(d)
			}
		}
	}
	return 0
}

var repoURLReplacer = strings.NewReplacer(
	"git@github.com:", "https://github.com/",
	"git://github.com/", "https://github.com/",
	"ssh://git@github.com/", "https://github.com/",
)

// NormalizeRepoURL converts various repository URL formats to canonical HTTPS form.
// Handles git@, git://, ssh:// and git+ prefixes, and removes .git suffixes
// and trailing slashes. Returns empty string if raw is empty.
func NormalizeRepoURL(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "git+")
	s = repoURLReplacer.Replace(s)
	s = strings.TrimSuffix(s, "/")
	return strings.TrimSuffix(s, ".git")
}
