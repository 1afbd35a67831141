package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantErr  error
		provider string
	}{
		{"default provider", Config{OpenAIAPIKey: "k"}, nil, ProviderOpenAI},
		{"anthropic", Config{Provider: ProviderAnthropic, Model: "claude-sonnet-4-5", AnthropicAPIKey: "k"}, nil, ProviderAnthropic},
		{"openai without key", Config{Provider: ProviderOpenAI}, ErrMissingAPIKey, ""},
		{"anthropic without key", Config{Provider: ProviderAnthropic, OpenAIAPIKey: "k"}, ErrMissingAPIKey, ""},
		{"unknown", Config{Provider: "bard", OpenAIAPIKey: "k"}, ErrUnsupportedProvider, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.provider, client.Provider())
		})
	}
}

func TestNew_DefaultModel(t *testing.T) {
	client, err := New(Config{OpenAIAPIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, client.Model())
}

func TestOpenAI_Complete(t *testing.T) {
	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "ETH is trending."}
			}]
		}`))
	}))
	defer srv.Close()

	client, err := New(Config{OpenAIAPIKey: "k", OpenAIBaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	answer, err := client.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "ETH is trending.", answer)

	assert.Equal(t, DefaultModel, body.Model)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.Equal(t, "sys", body.Messages[0].Content)
	assert.Equal(t, "user", body.Messages[1].Role)
	assert.Equal(t, "usr", body.Messages[1].Content)
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "x", "object": "chat.completion", "created": 1, "model": "gpt-4o", "choices": []}`))
	}))
	defer srv.Close()

	client, err := New(Config{OpenAIAPIKey: "k", OpenAIBaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "sys", "usr")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAI_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	client, err := New(Config{OpenAIAPIKey: "k", OpenAIBaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "sys", "usr")
	assert.ErrorContains(t, err, "openai chat completion")
}

func TestAnthropic_Complete(t *testing.T) {
	var body map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [{"type": "text", "text": "Mostly memes."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 3}
		}`))
	}))
	defer srv.Close()

	client, err := New(Config{
		Provider:         ProviderAnthropic,
		Model:            "claude-sonnet-4-5",
		AnthropicAPIKey:  "k",
		AnthropicBaseURL: srv.URL,
	})
	require.NoError(t, err)

	answer, err := client.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "Mostly memes.", answer)

	assert.Equal(t, "claude-sonnet-4-5", body["model"])
	assert.Equal(t, float64(DefaultMaxTokens), body["max_tokens"])
}

func TestMockClient(t *testing.T) {
	m := NewMockClient("answer")

	got, err := m.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "answer", got)
	assert.Equal(t, []Prompt{{System: "s", User: "u"}}, m.Prompts())
}
