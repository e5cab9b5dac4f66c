package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenRouterClient speaks the OpenAI-compatible chat completions API.
type OpenRouterClient struct {
	apiKey  string
	model   string
	url     string
	referer string
	title   string
	client  *http.Client
}

type OpenRouterOptions struct {
	APIKey  string
	Model   string
	URL     string
	Referer string
	Title   string
}

func NewOpenRouterClient(opts OpenRouterOptions, httpClient *http.Client) *OpenRouterClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.URL == "" {
		opts.URL = "https://openrouter.ai/api/v1/chat/completions"
	}
	if opts.Model == "" {
		opts.Model = "xiaomi/mimo-v2-flash:free"
	}
	return &OpenRouterClient{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   opts.Model,
		url:     opts.URL,
		referer: opts.Referer,
		title:   opts.Title,
		client:  httpClient,
	}
}

func (o *OpenRouterClient) Generate(ctx context.Context, prompt string) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("OpenRouter %w", ErrMissingCredential)
	}

	payload, _ := json.Marshal(map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": generationTemperature,
		"max_tokens":  generationMaxTokens,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build openrouter request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if o.referer != "" {
		req.Header.Set("HTTP-Referer", o.referer)
	}
	if o.title != "" {
		req.Header.Set("X-Title", o.title)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openrouter request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read openrouter response: %w", err)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode >= 400 {
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("%s", parsed.Error.Message)
		}
		return "", fmt.Errorf("OpenRouter API error: %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode openrouter response: %w", decodeErr)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return NoResponseText, nil
	}
	return parsed.Choices[0].Message.Content, nil
}
