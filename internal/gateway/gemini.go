package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	genai "google.golang.org/genai"
)

// Sampling settings shared by both upstreams.
const (
	generationTemperature = 0.7
	generationMaxTokens   = 8192
)

// GeminiClient calls the Gemini API through the official genai SDK.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client

	once    sync.Once
	cli     *genai.Client
	initErr error
}

func NewGeminiClient(apiKey, model string, httpClient *http.Client) *GeminiClient {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiClient{apiKey: strings.TrimSpace(apiKey), model: model, http: httpClient}
}

// WithBaseURL points the client at a different API host. Call it before the
// first Generate.
func (g *GeminiClient) WithBaseURL(u string) *GeminiClient {
	g.baseURL = u
	return g
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("Gemini %w", ErrMissingCredential)
	}

	cli, err := g.client(ctx)
	if err != nil {
		return "", err
	}

	resp, err := cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](generationTemperature),
			MaxOutputTokens: generationMaxTokens,
		},
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return NoResponseText, nil
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// client builds the genai client on first use and reuses it afterwards.
func (g *GeminiClient) client(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		g.cli, g.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:      g.apiKey,
			Backend:     genai.BackendGeminiAPI,
			HTTPClient:  g.http,
			HTTPOptions: genai.HTTPOptions{BaseURL: g.baseURL},
		})
		if g.initErr != nil {
			g.initErr = fmt.Errorf("gemini client: %w", g.initErr)
		}
	})
	return g.cli, g.initErr
}
