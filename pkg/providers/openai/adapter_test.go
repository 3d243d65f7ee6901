package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/providers"
)

type recordedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	temperature := float32(0.2)
	maxTokens := 64
	adapter, err := New(providers.Settings{
		ID:          "test-openai",
		Kind:        providers.KindStructuredChat,
		BaseURL:     ts.URL + "/v1",
		APIKey:      "test-key",
		Model:       "deepseek-chat",
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	require.NoError(t, err)
	return adapter
}

func completionResponse(content string) string {
	return `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"choices": [
			{"index": 0, "message": {"role": "assistant", "content": ` + jsonString(content) + `}, "finish_reason": "stop"}
		]
	}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestCompleteSynthesizesSystemMessage(t *testing.T) {
	var got recordedRequest
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse("Fine, thanks.")))
	})

	msgs := conversation.Conversation{}.AppendUser("How are you?")
	reply, err := adapter.Complete(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, "Fine, thanks.", reply)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, DefaultSystemPrompt, got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "deepseek-chat", got.Model)
	assert.Equal(t, float32(0.2), got.Temperature)
	assert.Equal(t, 64, got.MaxTokens)
}

func TestCompleteKeepsCallerSystemMessage(t *testing.T) {
	var got recordedRequest
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse("ok")))
	})

	msgs := conversation.Conversation{
		conversation.NewMessage(conversation.RoleSystem, "You are a pirate."),
		conversation.NewMessage(conversation.RoleUser, "ahoy"),
	}
	_, err := adapter.Complete(context.Background(), msgs)
	require.NoError(t, err)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "You are a pirate.", got.Messages[0].Content)
}

func TestCompleteErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   providers.ErrorKind
	}{
		{"auth", http.StatusUnauthorized, providers.ErrorKindAuth},
		{"forbidden", http.StatusForbidden, providers.ErrorKindAuth},
		{"rate limit", http.StatusTooManyRequests, providers.ErrorKindRateLimit},
		{"server error", http.StatusInternalServerError, providers.ErrorKindNetwork},
		{"bad request", http.StatusBadRequest, providers.ErrorKindMalformedResponse},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error": {"message": "nope", "type": "invalid_request_error"}}`))
			})

			_, err := adapter.Complete(context.Background(), conversation.Conversation{}.AppendUser("hi"))

			var provErr *providers.ProviderError
			require.ErrorAs(t, err, &provErr)
			assert.Equal(t, "test-openai", provErr.Provider)
			assert.Equal(t, tc.kind, provErr.Kind)
		})
	}
}

func TestCompleteEmptyChoicesIsMalformed(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-1", "object": "chat.completion", "choices": []}`))
	})

	_, err := adapter.Complete(context.Background(), conversation.Conversation{}.AppendUser("hi"))

	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, providers.ErrorKindMalformedResponse, provErr.Kind)
}

func TestNewRequiresModel(t *testing.T) {
	_, err := New(providers.Settings{ID: "x", Kind: providers.KindStructuredChat})
	require.Error(t, err)
}
