package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	p := NewOpenAIProvider("key", "", "gpt-4o-mini")
	assert.Equal(t, defaultAPIBase, p.apiBase)
	assert.Equal(t, "gpt-4o-mini", p.DefaultModel())
}

func TestNewOpenAIProvider_TrimsTrailingSlash(t *testing.T) {
	p := NewOpenAIProvider("key", "http://localhost:9999/v1/", "m")
	assert.Equal(t, "http://localhost:9999/v1", p.apiBase)
}

func TestChat_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "gpt-4o-mini", payload["model"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{
					"message":       map[string]string{"content": "Olá!"},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", srv.URL, "gpt-4o-mini")
	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "oi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Olá!", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 8, resp.Usage["total_tokens"])
}

func TestChat_APIError_ReturnedAsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("k", srv.URL, "m")
	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "oi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "error", resp.FinishReason)
	assert.Contains(t, resp.Content, "status 429")
	assert.Contains(t, resp.Content, "rate limited")
}

func TestChat_ConnectionFailure_ReturnedAsContent(t *testing.T) {
	p := NewOpenAIProvider("k", "http://127.0.0.1:1", "m")
	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "oi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "error", resp.FinishReason)
	assert.Contains(t, resp.Content, "Chat request failed")
}

func TestParseChatResponse_NoChoices(t *testing.T) {
	resp, err := parseChatResponse([]byte(`{"choices": []}`))
	require.NoError(t, err)
	assert.Equal(t, "error", resp.FinishReason)
}

func TestParseChatResponse_Malformed(t *testing.T) {
	_, err := parseChatResponse([]byte(`not json`))
	assert.Error(t, err)
}
