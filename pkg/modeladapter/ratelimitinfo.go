package modeladapter

import (
	"net/http"
	"strconv"
	"time"
)

// RateLimitInfo holds rate limit state parsed from response headers.
// Remaining counts are -1 when the header was absent.
type RateLimitInfo struct {
	RemainingRequests int
	RemainingTokens   int
	RequestsReset     time.Time
	TokensReset       time.Time
}

// RateLimitInfoReporter provides the most recently observed rate limit info
// from a client's response headers.
type RateLimitInfoReporter interface {
	LastRateLimitInfo() *RateLimitInfo
}

// RateLimitHeaderParser extracts rate limit info from HTTP response headers.
// It receives the current time so callers can control the clock in tests.
type RateLimitHeaderParser func(h http.Header, now time.Time) *RateLimitInfo

// ParseOpenAIRateLimitHeaders parses OpenAI rate limit headers:
// x-ratelimit-remaining-{requests,tokens}, x-ratelimit-reset-{requests,tokens}.
// It returns nil when neither remaining header is present.
func ParseOpenAIRateLimitHeaders(h http.Header, now time.Time) *RateLimitInfo {
	reqRemaining := h.Get("x-ratelimit-remaining-requests")
	tokRemaining := h.Get("x-ratelimit-remaining-tokens")

	if reqRemaining == "" && tokRemaining == "" {
		return nil
	}

	return &RateLimitInfo{
		RemainingRequests: parseRemaining(reqRemaining),
		RemainingTokens:   parseRemaining(tokRemaining),
		RequestsReset:     parseResetTime(h.Get("x-ratelimit-reset-requests"), now),
		TokensReset:       parseResetTime(h.Get("x-ratelimit-reset-tokens"), now),
	}
}

func parseRemaining(val string) int {
	v, err := strconv.Atoi(val)
	if err != nil {
		return -1
	}
	return v
}

// parseResetTime tries RFC3339 first, then a Go duration string (e.g. "6s", "1m30s")
// relative to now. OpenAI sends durations such as "20ms" or "6m0s".
func parseResetTime(val string, now time.Time) time.Time {
	if val == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t
	}
	if d, err := time.ParseDuration(val); err == nil {
		return now.Add(d)
	}
	return time.Time{}
}
