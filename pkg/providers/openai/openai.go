// Package openai provides a provider.Client for the OpenAI REST API built on
// plain JSON over modeladapter.
package openai

import (
	"context"
	"fmt"

	"github.com/germanamz/keyprobe/pkg/chats/message"
	"github.com/germanamz/keyprobe/pkg/modeladapter"
	"github.com/germanamz/keyprobe/pkg/providers/provider"
)

const (
	modelsPath      = "/v1/models"
	completionsPath = "/v1/chat/completions"
)

var (
	_ provider.Client                    = (*Adapter)(nil)
	_ modeladapter.RateLimitInfoReporter = (*Adapter)(nil)
)

// Adapter implements provider.Client for the OpenAI API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter configured for the OpenAI API.
// The baseURL should be "https://api.openai.com" (no trailing slash).
func New(baseURL, apiKey string) *Adapter {
	a := &Adapter{}
	a.BaseURL = baseURL
	a.Auth = modeladapter.Auth{Key: apiKey}
	a.HeaderParser = modeladapter.ParseOpenAIRateLimitHeaders

	return a
}

// ListModels calls GET /v1/models.
func (a *Adapter) ListModels(ctx context.Context) ([]string, error) {
	var resp modelList
	if err := a.GetJSON(ctx, modelsPath, &resp); err != nil {
		return nil, fmt.Errorf("openai: list models: %w", err)
	}

	ids := make([]string, len(resp.Data))
	for i, m := range resp.Data {
		ids[i] = m.ID
	}

	return ids, nil
}

// Complete calls POST /v1/chat/completions and returns the first choice.
func (a *Adapter) Complete(ctx context.Context, model string, msgs []message.Message, maxTokens int) (provider.Completion, error) {
	req := apiRequest{
		Model:     model,
		Messages:  make([]apiMessage, len(msgs)),
		MaxTokens: maxTokens,
	}
	for i, m := range msgs {
		if !m.Role.Valid() {
			return provider.Completion{}, fmt.Errorf("openai: chat completion: %w %q", provider.ErrInvalidRole, m.Role)
		}
		req.Messages[i] = apiMessage{Role: string(m.Role), Content: m.Text}
	}

	var resp apiResponse
	if err := a.PostJSON(ctx, completionsPath, req, &resp); err != nil {
		return provider.Completion{}, fmt.Errorf("openai: chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return provider.Completion{}, fmt.Errorf("openai: chat completion: %w", provider.ErrEmptyChoices)
	}

	choice := resp.Choices[0]

	return provider.Completion{
		Text:         choice.Message.Content,
		Model:        resp.Model,
		FinishReason: choice.FinishReason,
		Usage: provider.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// --- request types ---

type apiRequest struct {
	Model     string       `json:"model"`
	Messages  []apiMessage `json:"messages"`
	MaxTokens int          `json:"max_tokens,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- response types ---

type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

type apiResponse struct {
	Model   string      `json:"model"`
	Choices []apiChoice `json:"choices"`
	Usage   apiUsage    `json:"usage"`
}

type apiChoice struct {
	Message      apiMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}
