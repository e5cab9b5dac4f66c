package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Skufu/vetddx/internal/config"
	"github.com/Skufu/vetddx/internal/model"
)

const (
	ModelGemini = "gemini"
	ModelMiMo   = "mimo"
	ModelBoth   = "both"

	NoResponseText = "No response generated"
)

// Generator is one hosted text-completion endpoint.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Upstream struct {
	ID        string
	Name      string
	Generator Generator
}

// Response is the envelope returned to callers of the proxy.
type Response struct {
	Content    []model.ModelReply `json:"content"`
	MultiModel bool               `json:"multiModel"`
}

// Gateway dispatches a prompt to one upstream or to both at once.
type Gateway struct {
	gemini Upstream
	mimo   Upstream
	logger *zap.Logger
}

func New(logger *zap.Logger, gemini, mimo Generator) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		gemini: Upstream{ID: ModelGemini, Name: "Google Gemini 2.5 Flash", Generator: gemini},
		mimo:   Upstream{ID: ModelMiMo, Name: "Xiaomi MiMo-V2-Flash", Generator: mimo},
		logger: logger,
	}
}

// Resolve maps a selector to the upstreams it names. An empty selector means
// Gemini; "A" and "B" are accepted as aliases.
func (g *Gateway) Resolve(selector string) ([]Upstream, error) {
	switch strings.ToLower(strings.TrimSpace(selector)) {
	case "", ModelGemini, "a":
		return []Upstream{g.gemini}, nil
	case ModelMiMo, "b":
		return []Upstream{g.mimo}, nil
	case ModelBoth:
		return []Upstream{g.gemini, g.mimo}, nil
	default:
		return nil, ErrInvalidModel
	}
}

// Generate runs prompt against the selected upstreams. With a single upstream
// its failure is returned as the error. With both, every slot reports its own
// outcome and the call as a whole succeeds.
func (g *Gateway) Generate(ctx context.Context, prompt, selector string) (Response, error) {
	upstreams, err := g.Resolve(selector)
	if err != nil {
		return Response{}, err
	}

	if len(upstreams) == 1 {
		reply, err := g.call(ctx, upstreams[0], prompt)
		if err != nil {
			return Response{}, err
		}
		return Response{Content: []model.ModelReply{reply}}, nil
	}

	// Settle-all: a failed slot never cancels or hides its sibling.
	replies := make([]model.ModelReply, len(upstreams))
	var eg errgroup.Group
	for i, up := range upstreams {
		eg.Go(func() error {
			replies[i], _ = g.call(ctx, up, prompt)
			return nil
		})
	}
	_ = eg.Wait()

	return Response{Content: replies, MultiModel: true}, nil
}

func (g *Gateway) call(ctx context.Context, up Upstream, prompt string) (model.ModelReply, error) {
	reply := model.ModelReply{Type: "text", Model: up.ID, ModelName: up.Name}

	var (
		text string
		err  error
	)
	if up.Generator == nil {
		err = fmt.Errorf("%s %w", up.Name, ErrMissingCredential)
	} else {
		text, err = up.Generator.Generate(ctx, prompt)
	}
	if err != nil {
		g.logger.Warn("upstream call failed",
			zap.String("model", up.ID),
			zap.String("error_class", string(ClassifyError(err))),
			zap.Error(err),
		)
		reply.Text = errorPlaceholder(up)
		reply.Error = err.Error()
		return reply, err
	}
	if strings.TrimSpace(text) == "" {
		text = NoResponseText
	}
	reply.Text = text
	return reply, nil
}

func errorPlaceholder(up Upstream) string {
	switch up.ID {
	case ModelGemini:
		return "Error fetching Gemini response"
	case ModelMiMo:
		return "Error fetching MiMo response"
	default:
		return "Error fetching " + up.Name + " response"
	}
}

// FromConfig wires both upstream clients from configuration.
func FromConfig(cfg *config.Config, logger *zap.Logger) *Gateway {
	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	return New(logger,
		NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, httpClient),
		NewOpenRouterClient(OpenRouterOptions{
			APIKey:  cfg.OpenRouterAPIKey,
			Model:   cfg.OpenRouterModel,
			URL:     cfg.OpenRouterURL,
			Referer: cfg.OpenRouterReferer,
			Title:   cfg.OpenRouterTitle,
		}, httpClient),
	)
}
