package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRouterGenerate(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))
		assert.Equal(t, "https://vetddx.example", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "VetDDx", r.Header.Get("X-Title"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"## Red Flags\nseizures"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterOptions{
		APIKey:  "or-key",
		URL:     srv.URL,
		Referer: "https://vetddx.example",
		Title:   "VetDDx",
	}, srv.Client())

	text, err := client.Generate(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "## Red Flags\nseizures", text)
	assert.Equal(t, "xiaomi/mimo-v2-flash:free", got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.Equal(t, 8192, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "the prompt", got.Messages[0].Content)
}

func TestOpenRouterUpstreamErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit exceeded: free-models-per-day"}}`))
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterOptions{APIKey: "k", URL: srv.URL}, srv.Client())
	_, err := client.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, "Rate limit exceeded: free-models-per-day", err.Error())
	assert.Equal(t, ErrorRate, ClassifyError(err))
}

func TestOpenRouterTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "200")
		_, _ = w.Write([]byte(`{"choices":[`))
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterOptions{APIKey: "k", URL: srv.URL}, srv.Client())
	_, err := client.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read openrouter response")
}

func TestOpenRouterStatusWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterOptions{APIKey: "k", URL: srv.URL}, srv.Client())
	_, err := client.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, "OpenRouter API error: 502", err.Error())
}

func TestOpenRouterEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewOpenRouterClient(OpenRouterOptions{APIKey: "k", URL: srv.URL}, srv.Client())
	text, err := client.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, NoResponseText, text)
}

func TestOpenRouterMissingKey(t *testing.T) {
	client := NewOpenRouterClient(OpenRouterOptions{APIKey: "  "}, nil)
	_, err := client.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, "OpenRouter API key not configured", err.Error())
}
