package gateway

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	text  string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func TestResolveSelectors(t *testing.T) {
	gw := New(nil, &fakeGenerator{}, &fakeGenerator{})

	cases := map[string][]string{
		"":       {ModelGemini},
		"gemini": {ModelGemini},
		"A":      {ModelGemini},
		"mimo":   {ModelMiMo},
		"b":      {ModelMiMo},
		"both":   {ModelGemini, ModelMiMo},
	}
	for sel, want := range cases {
		ups, err := gw.Resolve(sel)
		require.NoError(t, err, sel)
		var ids []string
		for _, u := range ups {
			ids = append(ids, u.ID)
		}
		assert.Equal(t, want, ids, sel)
	}

	_, err := gw.Resolve("gpt")
	assert.ErrorIs(t, err, ErrInvalidModel)
}

func TestGenerateSingleModel(t *testing.T) {
	gemini := &fakeGenerator{text: "## Ranked Differential Diagnoses\n80% | CKD | azotemia"}
	mimo := &fakeGenerator{text: "unused"}
	gw := New(nil, gemini, mimo)

	resp, err := gw.Generate(context.Background(), "prompt", "")
	require.NoError(t, err)
	assert.False(t, resp.MultiModel)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, "text", resp.Content[0].Type)
	assert.Equal(t, ModelGemini, resp.Content[0].Model)
	assert.Equal(t, "Google Gemini 2.5 Flash", resp.Content[0].ModelName)
	assert.Contains(t, resp.Content[0].Text, "CKD")
	assert.EqualValues(t, 0, mimo.calls.Load())
}

func TestGenerateSingleModelFailureIsError(t *testing.T) {
	gw := New(nil, &fakeGenerator{}, &fakeGenerator{err: errors.New("rate limited")})

	_, err := gw.Generate(context.Background(), "prompt", "mimo")
	require.Error(t, err)
	assert.Equal(t, "rate limited", err.Error())
}

func TestGenerateEmptyReplyPlaceholder(t *testing.T) {
	gw := New(nil, &fakeGenerator{text: "   "}, &fakeGenerator{})

	resp, err := gw.Generate(context.Background(), "prompt", "gemini")
	require.NoError(t, err)
	assert.Equal(t, NoResponseText, resp.Content[0].Text)
}

func TestGenerateBothSettlesAll(t *testing.T) {
	gemini := &fakeGenerator{err: errors.New("upstream 503 unavailable")}
	mimo := &fakeGenerator{text: "mimo answer", delay: 20 * time.Millisecond}
	gw := New(nil, gemini, mimo)

	resp, err := gw.Generate(context.Background(), "prompt", "both")
	require.NoError(t, err)
	assert.True(t, resp.MultiModel)
	require.Len(t, resp.Content, 2)

	assert.Equal(t, ModelGemini, resp.Content[0].Model)
	assert.Equal(t, "Error fetching Gemini response", resp.Content[0].Text)
	assert.True(t, resp.Content[0].Failed())

	assert.Equal(t, ModelMiMo, resp.Content[1].Model)
	assert.Equal(t, "Xiaomi MiMo-V2-Flash", resp.Content[1].ModelName)
	assert.Equal(t, "mimo answer", resp.Content[1].Text)
	assert.False(t, resp.Content[1].Failed())
}

func TestGenerateBothRunsConcurrently(t *testing.T) {
	gemini := &fakeGenerator{text: "a", delay: 100 * time.Millisecond}
	mimo := &fakeGenerator{text: "b", delay: 100 * time.Millisecond}
	gw := New(nil, gemini, mimo)

	start := time.Now()
	resp, err := gw.Generate(context.Background(), "prompt", "both")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 190*time.Millisecond)
	assert.Equal(t, "a", resp.Content[0].Text)
	assert.Equal(t, "b", resp.Content[1].Text)
}

func TestGenerateBothAllFailed(t *testing.T) {
	gw := New(nil,
		NewGeminiClient("", "", nil),
		NewOpenRouterClient(OpenRouterOptions{}, nil),
	)

	resp, err := gw.Generate(context.Background(), "prompt", "both")
	require.NoError(t, err)
	require.Len(t, resp.Content, 2)
	assert.Equal(t, "Error fetching Gemini response", resp.Content[0].Text)
	assert.Equal(t, "Gemini API key not configured", resp.Content[0].Error)
	assert.Equal(t, "Error fetching MiMo response", resp.Content[1].Text)
	assert.Equal(t, "OpenRouter API key not configured", resp.Content[1].Error)
}

func TestNilGeneratorIsMissingCredential(t *testing.T) {
	gw := New(nil, nil, nil)
	_, err := gw.Generate(context.Background(), "prompt", "")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, ErrorClass(""), ClassifyError(nil))
	assert.Equal(t, ErrorConfig, ClassifyError(missingKeyErr()))
	assert.Equal(t, ErrorQuota, ClassifyError(errors.New("Insufficient credits")))
	assert.Equal(t, ErrorRate, ClassifyError(errors.New("Rate limit exceeded")))
	assert.Equal(t, ErrorTransient, ClassifyError(context.DeadlineExceeded))
	assert.Equal(t, ErrorPermanent, ClassifyError(errors.New("invalid request")))
}

func missingKeyErr() error {
	_, err := NewGeminiClient("", "", nil).Generate(context.Background(), "x")
	return err
}
