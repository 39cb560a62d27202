package github

import (
	"bytes"
	"math"
	"net/http"
	"strconv"
	"time"
)

const (
	// minRateLimitWait is the shortest wait after a rate limit response.
	minRateLimitWait = 5 * time.Second

	// fallbackRateLimitWait is used when X-RateLimit-Reset is absent or not
	// an integer.
	fallbackRateLimitWait = 10 * time.Second

	// maxWaitSeconds keeps the wait representable as a time.Duration.
	maxWaitSeconds = math.MaxInt64 / int64(time.Second)
)

// RateLimitInfo holds parsed rate limit information from GitHub API response headers.
type RateLimitInfo struct {
	Remaining int
	Reset     time.Time
}

// ParseRateLimit extracts rate limit information from a GitHub API HTTP response.
// Returns nil if the relevant headers are not present.
func ParseRateLimit(resp *http.Response) *RateLimitInfo {
	if resp == nil {
		return nil
	}

	remainingStr := resp.Header.Get("X-RateLimit-Remaining")
	resetStr := resp.Header.Get("X-RateLimit-Reset")

	if remainingStr == "" && resetStr == "" {
		return nil
	}

	info := &RateLimitInfo{}
	if remaining, err := strconv.Atoi(remainingStr); err == nil {
		info.Remaining = remaining
	}
	if resetUnix, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
		info.Reset = time.Unix(resetUnix, 0)
	}
	return info
}

// IsRateLimited reports whether a response is a rate limit signal: a 403 whose
// body mentions "rate limit" in any case.
func IsRateLimited(resp *http.Response, body []byte) bool {
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		return false
	}
	return bytes.Contains(bytes.ToLower(body), []byte("rate limit"))
}

// RateLimitWait returns how long to wait before retrying a rate limited
// request: one second past X-RateLimit-Reset but never less than 5s, or 10s
// when the header is missing or not a plain decimal integer.
func RateLimitWait(h http.Header, now time.Time) time.Duration {
	reset := h.Get("X-RateLimit-Reset")
	if !isDigits(reset) {
		return fallbackRateLimitWait
	}
	resetUnix, err := strconv.ParseInt(reset, 10, 64)
	if err != nil {
		return fallbackRateLimitWait
	}
	secs := resetUnix - now.Unix() + 1
	if secs > maxWaitSeconds {
		secs = maxWaitSeconds
	}
	return max(time.Duration(secs)*time.Second, minRateLimitWait)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
