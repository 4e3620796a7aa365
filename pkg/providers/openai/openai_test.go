package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/germanamz/keyprobe/pkg/chats/message"
	"github.com/germanamz/keyprobe/pkg/chats/role"
	"github.com/germanamz/keyprobe/pkg/modeladapter"
	"github.com/germanamz/keyprobe/pkg/providers/openai"
	"github.com/germanamz/keyprobe/pkg/providers/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *openai.Adapter {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return openai.New(srv.URL, "test-key")
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}

	return req
}

func TestListModels(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("x-ratelimit-remaining-requests", "499")
		writeJSON(t, w, map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"id": "gpt-4o", "object": "model"},
				{"id": "gpt-3.5-turbo", "object": "model"},
			},
		})
	})

	ids, err := adapter.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-3.5-turbo"}, ids)

	info := adapter.LastRateLimitInfo()
	require.NotNil(t, info)
	assert.Equal(t, 499, info.RemainingRequests)
}

func TestListModels_Empty(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"object": "list", "data": []any{}})
	})

	ids, err := adapter.ListModels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestListModels_Unauthorized(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided: sk-bad.","type":"invalid_request_error","code":"invalid_api_key"}}`))
	})

	_, err := adapter.ListModels(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "openai: list models")

	var se *modeladapter.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, "invalid_api_key", se.Code)
}

func TestComplete_SimpleText(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		req := readBody(t, r)

		assert.Equal(t, "gpt-3.5-turbo", req["model"])
		assert.EqualValues(t, 50, req["max_tokens"])

		msgs, _ := req["messages"].([]any)
		if !assert.Len(t, msgs, 1) {
			return
		}

		first, _ := msgs[0].(map[string]any)
		assert.Equal(t, "user", first["role"])
		assert.Equal(t, "Say hello", first["content"])

		writeJSON(t, w, map[string]any{
			"model": "gpt-3.5-turbo-0125",
			"choices": []map[string]any{
				{
					"message":       map[string]any{"role": "assistant", "content": "Hello! Your API key is working!"},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     18,
				"completion_tokens": 9,
			},
		})
	})

	got, err := adapter.Complete(context.Background(), "gpt-3.5-turbo", []message.Message{message.User("Say hello")}, 50)
	require.NoError(t, err)

	assert.Equal(t, "Hello! Your API key is working!", got.Text)
	assert.Equal(t, "gpt-3.5-turbo-0125", got.Model)
	assert.Equal(t, "stop", got.FinishReason)
	assert.Equal(t, 18, got.Usage.PromptTokens)
	assert.Equal(t, 9, got.Usage.CompletionTokens)
}

func TestComplete_SystemMessage(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)

		msgs, _ := req["messages"].([]any)
		if !assert.Len(t, msgs, 2) {
			return
		}

		first, _ := msgs[0].(map[string]any)
		assert.Equal(t, "system", first["role"])

		writeJSON(t, w, map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "OK"}},
			},
		})
	})

	got, err := adapter.Complete(context.Background(), "gpt-4o", []message.Message{
		message.New(role.System, "Reply with exactly OK."),
		message.User("ping"),
	}, 5)
	require.NoError(t, err)
	assert.Equal(t, "OK", got.Text)
}

func TestComplete_EmptyChoices(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"choices": []any{}})
	})

	_, err := adapter.Complete(context.Background(), "gpt-4o", []message.Message{message.User("hi")}, 50)
	require.ErrorIs(t, err, provider.ErrEmptyChoices)
}

func TestComplete_QuotaExceeded(t *testing.T) {
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "20")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"You exceeded your current quota, please check your plan and billing details.","type":"insufficient_quota","code":"insufficient_quota"}}`))
	})

	_, err := adapter.Complete(context.Background(), "gpt-4o", []message.Message{message.User("hi")}, 50)
	require.Error(t, err)
	assert.ErrorContains(t, err, "openai: chat completion")

	var rle *modeladapter.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, "insufficient_quota", rle.Code)
}

func TestComplete_InvalidRole(t *testing.T) {
	var calls atomic.Int32
	adapter := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := adapter.Complete(context.Background(), "gpt-4o", []message.Message{
		message.New(role.Role("tool"), "result"),
	}, 50)
	require.ErrorIs(t, err, provider.ErrInvalidRole)
	assert.ErrorContains(t, err, `"tool"`)
	assert.Zero(t, calls.Load())
}
