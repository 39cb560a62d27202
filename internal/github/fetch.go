package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	gogithub "github.com/google/go-github/v60/github"

	"github.com/jacklau/trendbot/internal/retry"
)

// Response is a successful API response with its body already read.
type Response struct {
	*http.Response
	Data []byte
}

// Get issues a GET for path (relative to the API base URL, or absolute) with
// params as the query string.
//
// A 403 whose body mentions a rate limit is waited out using
// X-RateLimit-Reset and retried without consuming an attempt. Any other
// failure is retried with the client's backoff until the attempt budget is
// spent; the last failure is returned, as a *github.ErrorResponse when the
// server answered.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	req, err := c.gh.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if len(params) > 0 {
		req.URL.RawQuery = params.Encode()
	}
	req.Header.Set("Accept", acceptHeader)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	var out *Response
	attempt := 0
	err = retry.Do(ctx, c.policy, func() error {
		attempt++
		resp, err := c.roundTrip(req.Clone(ctx))
		if err != nil {
			var pause *retry.Pause
			if !errors.As(err, &pause) {
				c.logger.Warn("request failed", "url", req.URL.String(), "attempt", attempt, "error", err)
			}
			return err
		}
		out = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", req.URL.Path, err)
	}

	if rl := ParseRateLimit(out.Response); rl != nil {
		c.logger.Debug("rate limit status", "remaining", rl.Remaining, "reset", rl.Reset)
	}
	return out, nil
}

// roundTrip performs one request and classifies the outcome.
func (c *Client) roundTrip(req *http.Request) (*Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	if IsRateLimited(resp, body) {
		wait := RateLimitWait(resp.Header, c.now())
		c.logger.Info("rate limited, waiting", "url", req.URL.String(), "wait", wait)
		return nil, &retry.Pause{Wait: wait, Err: fmt.Errorf("rate limited: status %d", resp.StatusCode)}
	}

	// CheckResponse is nil for 2xx and an *ErrorResponse (or one of its
	// rate limit variants) otherwise.
	if err := gogithub.CheckResponse(resp); err != nil {
		return nil, err
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return &Response{Response: resp, Data: body}, nil
}
