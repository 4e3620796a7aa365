// Package provider defines the contract the probe uses to talk to a remote
// inference API, independent of the backend that implements it.
package provider

import (
	"context"
	"errors"

	"github.com/germanamz/keyprobe/pkg/chats/message"
)

var (
	// ErrEmptyChoices is returned when a completion response carries no choices.
	ErrEmptyChoices = errors.New("empty choices in response")

	// ErrInvalidRole is returned by Complete for a message whose role the
	// API does not accept. No request is sent.
	ErrInvalidRole = errors.New("invalid message role")
)

// Usage holds token counts reported for a single completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Total returns the sum of prompt and completion tokens.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// Completion is the generated reply of a chat completion call.
type Completion struct {
	Text         string
	Model        string // Model that served the request, as reported by the API.
	FinishReason string
	Usage        Usage
}

// Client is a remote inference API client.
type Client interface {
	// ListModels returns the identifiers of the models visible to the
	// credential, in the order the API lists them.
	ListModels(ctx context.Context) ([]string, error)

	// Complete sends msgs to model and returns the first choice.
	Complete(ctx context.Context, model string, msgs []message.Message, maxTokens int) (Completion, error)
}
