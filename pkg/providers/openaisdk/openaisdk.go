// Package openaisdk provides a provider.Client backed by the official
// openai-go SDK.
package openaisdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/germanamz/keyprobe/pkg/chats/message"
	"github.com/germanamz/keyprobe/pkg/chats/role"
	"github.com/germanamz/keyprobe/pkg/modeladapter"
	"github.com/germanamz/keyprobe/pkg/providers/provider"
)

var (
	_ provider.Client                    = (*Client)(nil)
	_ modeladapter.RateLimitInfoReporter = (*Client)(nil)
)

// Options configures a Client.
type Options struct {
	BaseURL    string            // API root without /v1, e.g. "https://api.openai.com".
	APIKey     string            // Bearer credential.
	HTTPClient *http.Client      // Optional; the SDK default is used when nil.
	Headers    map[string]string // Extra headers applied to every request.
}

// Client implements provider.Client on top of openai-go.
type Client struct {
	sdk           openai.Client
	rateLimitInfo atomic.Pointer[modeladapter.RateLimitInfo]
}

// New creates a Client. SDK retries are disabled: every call is attempted
// exactly once.
func New(opts Options) *Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}

	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimSuffix(opts.BaseURL, "/")+"/v1/"))
	}

	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	for k, v := range opts.Headers {
		reqOpts = append(reqOpts, option.WithHeader(k, v))
	}

	return &Client{sdk: openai.NewClient(reqOpts...)}
}

// LastRateLimitInfo returns the most recently observed rate limit info, or nil.
func (c *Client) LastRateLimitInfo() *modeladapter.RateLimitInfo { return c.rateLimitInfo.Load() }

// ListModels calls GET /v1/models.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var raw *http.Response

	page, err := c.sdk.Models.List(ctx, option.WithResponseInto(&raw))
	c.recordRateLimit(raw, err)
	if err != nil {
		return nil, fmt.Errorf("openaisdk: list models: %w", translateError(err))
	}

	ids := make([]string, len(page.Data))
	for i, m := range page.Data {
		ids[i] = m.ID
	}

	return ids, nil
}

// Complete calls POST /v1/chat/completions and returns the first choice.
func (c *Client) Complete(ctx context.Context, model string, msgs []message.Message, maxTokens int) (provider.Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	for _, m := range msgs {
		if !m.Role.Valid() {
			return provider.Completion{}, fmt.Errorf("openaisdk: chat completion: %w %q", provider.ErrInvalidRole, m.Role)
		}

		switch m.Role {
		case role.System:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Text))
		case role.Assistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Text))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Text))
		}
	}

	var raw *http.Response

	resp, err := c.sdk.Chat.Completions.New(ctx, params, option.WithResponseInto(&raw))
	c.recordRateLimit(raw, err)
	if err != nil {
		return provider.Completion{}, fmt.Errorf("openaisdk: chat completion: %w", translateError(err))
	}

	if len(resp.Choices) == 0 {
		return provider.Completion{}, fmt.Errorf("openaisdk: chat completion: %w", provider.ErrEmptyChoices)
	}

	choice := resp.Choices[0]

	return provider.Completion{
		Text:         choice.Message.Content,
		Model:        resp.Model,
		FinishReason: string(choice.FinishReason),
		Usage: provider.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

// recordRateLimit stores x-ratelimit-* headers from the raw response, or
// from the response attached to an API error.
func (c *Client) recordRateLimit(raw *http.Response, err error) {
	if raw == nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			raw = apiErr.Response
		}
	}

	if raw == nil {
		return
	}

	if info := modeladapter.ParseOpenAIRateLimitHeaders(raw.Header, time.Now()); info != nil {
		c.rateLimitInfo.Store(info)
	}
}

// translateError converts SDK API errors into the modeladapter error types so
// both backends fail the same way. The SDK error stays reachable through
// errors.As.
func translateError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	body := apiErr.Message
	if body == "" {
		body = apiErr.Error()
	}

	if apiErr.StatusCode == http.StatusTooManyRequests {
		var retryAfter time.Duration
		if apiErr.Response != nil {
			retryAfter = modeladapter.ParseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
		}

		return &modeladapter.RateLimitError{
			RetryAfter: retryAfter,
			Code:       apiErr.Code,
			Type:       apiErr.Type,
			Message:    apiErr.Message,
			Body:       body,
			Err:        apiErr,
		}
	}

	return &modeladapter.StatusError{
		StatusCode: apiErr.StatusCode,
		Code:       apiErr.Code,
		Type:       apiErr.Type,
		Message:    apiErr.Message,
		Body:       body,
		Err:        apiErr,
	}
}
