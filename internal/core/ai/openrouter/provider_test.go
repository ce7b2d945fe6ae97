package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touille/internal/core/ai/provider"
)

func newTestProvider(baseURL string) *Provider {
	return New(provider.Config{
		APIKey:    "sk-or-test",
		Model:     "anthropic/claude-sonnet-4",
		BaseURL:   baseURL,
		MaxTokens: 2048,
	})
}

func TestProvider_Complete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-or-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "anthropic/claude-sonnet-4", req.Model)
		assert.Equal(t, 2048, req.MaxTokens)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, chatMessage{Role: "system", Content: "be brief"}, req.Messages[0])
		assert.Equal(t, chatMessage{Role: "user", Content: "hello"}, req.Messages[1])

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"model":"anthropic/claude-sonnet-4","choices":[{"message":{"content":"hi"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":1}}`)
	}))
	defer ts.Close()

	resp, err := newTestProvider(ts.URL).Complete(context.Background(), &provider.Request{
		System:   "be brief",
		Messages: []provider.Message{{Role: "user", Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Content)
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, int64(3), resp.Usage.InputTokens)
}

func TestProvider_CompleteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"status", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, "API returned 401"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
		{"invalid json", http.StatusOK, `not json`, "parse response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			_, err := newTestProvider(ts.URL).Complete(context.Background(), &provider.Request{
				Messages: []provider.Message{{Role: "user", Content: "x"}},
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

const sseBody = `: OPENROUTER PROCESSING

data: {"choices":[{"delta":{"role":"assistant","content":""}}]}

data: {"choices":[{"delta":{"content":"Lower "}}]}

data: not-json

data: {"choices":[{"delta":{"content":"the heat."}}]}

data: [DONE]

data: {"choices":[{"delta":{"content":"ignored"}}]}
`

func TestProvider_Stream(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody)
	}))
	defer ts.Close()

	var chunks []string
	err := newTestProvider(ts.URL).Stream(context.Background(), &provider.Request{
		Messages: []provider.Message{{Role: "user", Content: "too smoky"}},
	}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lower ", "the heat."}, chunks)
}

func TestProvider_StreamErrorEvent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"rate limited\"}}\n\n")
	}))
	defer ts.Close()

	err := newTestProvider(ts.URL).Stream(context.Background(), &provider.Request{}, func(string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestProvider_StreamStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":{"message":"insufficient credits"}}`)
	}))
	defer ts.Close()

	err := newTestProvider(ts.URL).Stream(context.Background(), &provider.Request{}, func(string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")
	assert.Contains(t, err.Error(), "insufficient credits")
}

func TestProvider_StreamStopsOnChunkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody)
	}))
	defer ts.Close()

	stop := errors.New("disconnected")
	calls := 0
	err := newTestProvider(ts.URL).Stream(context.Background(), &provider.Request{}, func(string) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}
