package retry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const userAgent = "buildtrust/1.0"

// NewGitHubRequest builds a GitHub API request with the standard headers.
// The bearer token is attached only when non-empty; it is never logged or
// echoed anywhere in this package.
func NewGitHubRequest(ctx context.Context, method, url, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

// CheckRateLimit inspects GitHub rate-limit headers and returns an
// availability error when the quota is exhausted. The message suggests
// GITHUB_TOKEN so callers can surface the fix, not just the failure.
func CheckRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}

	n, err := strconv.Atoi(remaining)
	if err != nil || n > 0 {
		return nil
	}

	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if unix, err := strconv.ParseInt(reset, 10, 64); err == nil {
			return fmt.Errorf("GitHub API rate limit exceeded, resets at %s (set GITHUB_TOKEN to raise the limit)",
				time.Unix(unix, 0).Format(time.RFC3339))
		}
	}
	return fmt.Errorf("GitHub API rate limit exceeded (set GITHUB_TOKEN to raise the limit)")
}

// retryableStatus reports whether an HTTP status is worth another attempt.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusForbidden, // GitHub signals rate limiting with 403
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// DoRequest executes an HTTP request under the retry policy. Network errors
// and retryable statuses are retried; rate-limit exhaustion aborts with a
// descriptive error. The caller owns the returned body.
//
// The request body must be nil or replayable; buildtrust only issues GETs.
func (e *Executor) DoRequest(client *http.Client, req *http.Request) (*http.Response, error) {
	var resp *http.Response

	err := e.Do(req.Context(), func(ctx context.Context) error {
		r, err := client.Do(req.WithContext(ctx))
		if err != nil {
			return err
		}

		if err := CheckRateLimit(r); err != nil {
			drain(r)
			return Permanent(err)
		}

		if retryableStatus(r.StatusCode) {
			drain(r)
			return fmt.Errorf("transient HTTP status %d from %s", r.StatusCode, req.URL.Host)
		}

		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
	resp.Body.Close()                                    //nolint:errcheck
}
