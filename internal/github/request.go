package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const (
	acceptHeader  = "application/vnd.github+json"
	apiVersion    = "2022-11-28"
	maxErrorBytes = 1 << 16
)

var (
	ErrUnauthorized = errors.New("github: bad credentials")
	ErrRateLimited  = errors.New("github: API rate limit exceeded")
	ErrNotFound     = errors.New("github: not found")
)

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("github api: %s (status %d)", e.Message, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

func (c *Client) getJSON(ctx context.Context, url string, q url.Values, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseError(resp)
	}

	if target == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}

	return nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got response from GitHub",
		zap.Int("status", resp.StatusCode),
		zap.String("ratelimit_remaining", resp.Header.Get("X-RateLimit-Remaining")),
	)

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", c.UserAgent)

	return req
}

func parseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))

	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(data, &body)

	return NewAPIError(resp.StatusCode, body.Message, resp.Header.Get("X-RateLimit-Remaining"))
}

// NewAPIError classifies a failed response by status code, message and the
// remaining rate limit quota header.
func NewAPIError(statusCode int, message, rateLimitRemaining string) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Message: strings.TrimSpace(message)}

	switch {
	case statusCode == http.StatusUnauthorized:
		apiErr.kind = ErrUnauthorized
	case isRateLimited(statusCode, rateLimitRemaining, apiErr.Message):
		apiErr.kind = ErrRateLimited
	case statusCode == http.StatusNotFound:
		apiErr.kind = ErrNotFound
	}

	return apiErr
}

// isRateLimited covers both primary (403 with no remaining quota) and
// secondary (429 or 403 with a rate limit message) limits.
func isRateLimited(statusCode int, remaining, message string) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	if statusCode != http.StatusForbidden {
		return false
	}
	return remaining == "0" || strings.Contains(strings.ToLower(message), "rate limit")
}
