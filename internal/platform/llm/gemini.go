package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type geminiGenerator struct {
	log    *logger.Logger
	client *genai.Client
	model  string
	cfg    Config
}

func newGemini(ctx context.Context, cfg Config, log *logger.Logger, httpClient *http.Client) (*geminiGenerator, error) {
	client, err := newGenaiClient(ctx, cfg.APIKey, httpClient)
	if err != nil {
		return nil, err
	}
	return &geminiGenerator{
		log:    log.With("service", "GeminiGenerator"),
		client: client,
		model:  cfg.resolvedModel(),
		cfg:    cfg,
	}, nil
}

func newGenaiClient(ctx context.Context, apiKey string, httpClient *http.Client) (*genai.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if httpClient != nil {
		cc.HTTPClient = httpClient
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

func (g *geminiGenerator) Provider() string { return ProviderGemini }
func (g *geminiGenerator) Model() string    { return g.model }

func (g *geminiGenerator) Stream(ctx context.Context, req Request, onDelta DeltaFunc) (string, error) {
	req = req.withDefaults(g.cfg)
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	var full strings.Builder
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, buildGeminiContents(req.Messages), config) {
		if err != nil {
			return "", mapGeminiError(ctx, err)
		}
		d := resp.Text()
		if d == "" {
			continue
		}
		full.WriteString(d)
		if onDelta != nil {
			if err := onDelta(d); err != nil {
				return "", err
			}
		}
	}
	return full.String(), nil
}

func buildGeminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, len(msgs))
	for i, m := range msgs {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		out[i] = &genai.Content{Role: string(role), Parts: []*genai.Part{{Text: m.Content}}}
	}
	return out
}

func mapGeminiError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err)
	}
	return &ErrProviderUnavailable{Err: err}
}
