package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisquicidev/easydiet-backend/internal/platform/aigateway"
)

func TestCompleteMessagesAPI(t *testing.T) {
	var got messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{
			"model": "claude-test",
			"content": [{"type":"text","text":"{\"a\":"},{"type":"tool_use"},{"type":"text","text":"1}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 7, "output_tokens": 3}
		}`))
	}))
	defer srv.Close()

	p, err := New(nil, Config{APIKey: "ak-test", BaseURL: srv.URL})
	require.NoError(t, err)
	comp, err := p.Complete(context.Background(), aigateway.Request{System: "be terse", Prompt: "hi", JSON: true})
	require.NoError(t, err)

	assert.Equal(t, `{"a":1}`, comp.Text)
	assert.Equal(t, "claude-test", comp.Model)
	assert.Equal(t, 10, comp.Usage.TotalTokens)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	assert.Contains(t, got.System, "be terse")
	assert.Contains(t, got.System, "JSON")
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestCompleteRateLimitedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := New(nil, Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), aigateway.Request{Prompt: "x"})
	assert.True(t, aigateway.IsTransient(err))
}
