package modeladapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTimeout bounds requests sent through the fallback HTTP client.
const DefaultTimeout = time.Minute

// Auth holds authentication settings for a remote API.
type Auth struct {
	Key    string // API key value.
	Header string // Header name (default: "Authorization").
	Scheme string // Scheme prefix (default: "Bearer" when Header is "Authorization").
}

// ModelAdapter holds shared state for remote API clients. Embed it in
// concrete client structs to get HTTP helpers, auth, custom headers and
// rate limit tracking.
type ModelAdapter struct {
	Auth         Auth                  // Authentication settings.
	BaseURL      string                // API base URL (no trailing slash).
	Client       *http.Client          // HTTP client; falls back to a client with DefaultTimeout.
	Headers      map[string]string     // Extra headers applied to every request.
	HeaderParser RateLimitHeaderParser // Optional parser for rate limit response headers.

	rateLimitInfo atomic.Pointer[RateLimitInfo]
	clientOnce    sync.Once
	defaultClient *http.Client
}

// New creates a ModelAdapter with the given settings.
// A nil client falls back to a default client at call time.
func New(baseURL string, auth Auth, client *http.Client) ModelAdapter {
	return ModelAdapter{
		Auth:    auth,
		BaseURL: baseURL,
		Client:  client,
	}
}

// LastRateLimitInfo returns the most recently observed rate limit info, or nil.
func (a *ModelAdapter) LastRateLimitInfo() *RateLimitInfo { return a.rateLimitInfo.Load() }

func (a *ModelAdapter) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}

	a.clientOnce.Do(func() {
		a.defaultClient = &http.Client{Timeout: DefaultTimeout}
	})

	return a.defaultClient
}

// authValue returns the header name and value carrying the credential.
// ok is false when no key is configured.
func (a *ModelAdapter) authValue() (header, value string, ok bool) {
	if a.Auth.Key == "" {
		return "", "", false
	}

	header = a.Auth.Header
	if header == "" {
		header = "Authorization"
	}

	value = a.Auth.Key
	switch {
	case header == "Authorization":
		scheme := a.Auth.Scheme
		if scheme == "" {
			scheme = "Bearer"
		}
		value = scheme + " " + value
	case a.Auth.Scheme != "":
		value = a.Auth.Scheme + " " + value
	}

	return header, value, true
}

// NewRequest builds an *http.Request with the base URL, auth, and custom
// headers already applied.
func (a *ModelAdapter) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return nil, err
	}

	if header, value, ok := a.authValue(); ok {
		req.Header.Set(header, value)
	}

	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Do sends the request using the configured HTTP client.
func (a *ModelAdapter) Do(req *http.Request) (*http.Response, error) {
	return a.httpClient().Do(req) //nolint:gosec // URL is built from trusted BaseURL config, not user input.
}

// GetJSON sends a GET to the given path, checks for a 2xx status, and
// decodes the response body into dest.
func (a *ModelAdapter) GetJSON(ctx context.Context, path string, dest any) error {
	req, err := a.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	return a.send(req, dest)
}

// PostJSON marshals payload as JSON, sends a POST to the given path,
// checks for a 2xx status, and unmarshals the response body into dest.
// If dest is nil the response body is discarded after the status check.
func (a *ModelAdapter) PostJSON(ctx context.Context, path string, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := a.NewRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return a.send(req, dest)
}

func (a *ModelAdapter) send(req *http.Request, dest any) error {
	resp, err := a.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Rate limit headers are recorded on failures too; a 429 carries the
	// most useful snapshot.
	if a.HeaderParser != nil {
		if info := a.HeaderParser(resp.Header, time.Now()); info != nil {
			a.rateLimitInfo.Store(info)
		}
	}

	if err := checkStatus(resp); err != nil {
		return err
	}

	if dest == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
