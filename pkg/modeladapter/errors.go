package modeladapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxErrorBody caps how much of a failed response body is kept on an error.
const maxErrorBody = 4 << 10

// StatusError is returned when the API responds with a non-2xx status other
// than 429. Code, Type and Message are taken from the OpenAI error envelope
// when the body contains one. Err holds the originating error when the
// StatusError was translated from another client's error type.
type StatusError struct {
	StatusCode int
	Code       string
	Type       string
	Message    string
	Body       string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return e.Err }

// RateLimitError is returned when the API responds with HTTP 429 (Too Many Requests).
// It carries an optional RetryAfter duration parsed from the Retry-After header.
// OpenAI also answers 429 with code "insufficient_quota" when the account has
// no credit left.
type RateLimitError struct {
	RetryAfter time.Duration
	Code       string
	Type       string
	Message    string
	Body       string
	Err        error
}

func (e *RateLimitError) Unwrap() error { return e.Err }

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (status 429, retry after %s): %s", e.RetryAfter, e.Body)
	}
	return fmt.Sprintf("rate limited (status 429): %s", e.Body)
}

// ParseRetryAfter parses the Retry-After header value as either seconds (integer)
// or an HTTP-date (RFC 7231). Returns zero if unparseable or if the date is in the past.
func ParseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(val); err == nil {
		d := time.Until(t)
		if d > 0 {
			return d
		}
		return 0
	}
	return 0
}

// errorEnvelope is the body OpenAI-compatible APIs send with failures:
// {"error": {"message": "...", "type": "...", "code": "..."}}.
type errorEnvelope struct {
	Error struct {
		Message string    `json:"message"`
		Type    string    `json:"type"`
		Code    errorCode `json:"code"`
	} `json:"error"`
}

// errorCode accepts string, numeric and null codes. Some compatible servers
// send numbers.
type errorCode string

func (c *errorCode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = errorCode(s)
		return nil
	}

	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		raw = ""
	}
	*c = errorCode(raw)

	return nil
}

// checkStatus returns a typed error for non-2xx responses.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var env errorEnvelope
	_ = json.Unmarshal(body, &env)

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
			Code:       string(env.Error.Code),
			Type:       env.Error.Type,
			Message:    env.Error.Message,
			Body:       string(body),
		}
	}

	return &StatusError{
		StatusCode: resp.StatusCode,
		Code:       string(env.Error.Code),
		Type:       env.Error.Type,
		Message:    env.Error.Message,
		Body:       string(body),
	}
}
