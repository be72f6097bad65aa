package ghapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/imroc/req/v3"
	"github.com/upstreamed/forksync/internal/retry"
)

var (
	ErrNoOwner = errors.New("ghapi: owner missing")
	ErrNoRepo  = errors.New("ghapi: repo missing")
)

// APIError represents a GitHub API error response.
type APIError struct {
	StatusCode  int    `json:"-"`
	Message     string `json:"message"`
	DocsURL     string `json:"documentation_url"`
	RateLimited bool   `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d - %s", e.StatusCode, e.Message)
}

// RetryKind classifies the error for retry policies.
func (e *APIError) RetryKind() retry.Kind {
	switch {
	case e.RateLimited:
		return retry.KindRateLimit
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return retry.KindAuth
	case e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone:
		return retry.KindNotFound
	case e.StatusCode >= 500:
		return retry.KindNetwork
	default:
		return retry.KindOther
	}
}

var _ retry.Classifier = (*APIError)(nil)

// IsNotFound reports whether err is an API "not found" response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		(apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusGone)
}

// handleAPIError is a helper that handles the common error pattern. It never
// dumps request headers, so credentials cannot leak into error strings.
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("%s: %w", operation, requestErr)
	}

	// got a response, but the api returned an error
	if resp.IsErrorState() {
		apiErr, ok := resp.ErrorResult().(*APIError)
		if !ok {
			apiErr = &APIError{Message: strings.TrimSpace(resp.String())}
		}
		apiErr.StatusCode = resp.StatusCode
		apiErr.RateLimited = isRateLimited(resp, apiErr.Message)
		return fmt.Errorf("%s: %w", operation, apiErr)
	}

	return nil
}

// isRateLimited detects both primary and secondary rate limit responses.
// GitHub signals these as 429, or as 403 with an exhausted quota header.
func isRateLimited(resp *req.Response, message string) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if resp.StatusCode != http.StatusForbidden {
		return false
	}
	if resp.Header.Get(HeaderRateRemaining) == "0" {
		return true
	}
	if resp.Header.Get(HeaderRetryAfter) != "" {
		return true
	}
	return strings.Contains(strings.ToLower(message), "rate limit")
}
