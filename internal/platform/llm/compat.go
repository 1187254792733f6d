package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

// openAICompat streams chat completions from any OpenAI-compatible endpoint
// (OpenRouter, vLLM, Ollama) through go-openai.
type openAICompat struct {
	log    *logger.Logger
	client *goopenai.Client
	model  string
	cfg    Config
}

func newOpenAICompat(cfg Config, log *logger.Logger, httpClient *http.Client) (*openAICompat, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing LLM_COMPAT_API_KEY")
	}
	oc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	oc.HTTPClient = httpClient
	return &openAICompat{
		log:    log.With("service", "OpenAICompat"),
		client: goopenai.NewClientWithConfig(oc),
		model:  cfg.resolvedModel(),
		cfg:    cfg,
	}, nil
}

func (c *openAICompat) Provider() string { return ProviderOpenAICompat }
func (c *openAICompat) Model() string    { return c.model }

func (c *openAICompat) Stream(ctx context.Context, req Request, onDelta DeltaFunc) (string, error) {
	req = req.withDefaults(c.cfg)
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		role := goopenai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = goopenai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	chatReq := goopenai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  msgs,
		MaxTokens: req.MaxTokens,
		Stream:    true,
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return "", mapCompatError(ctx, err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", mapCompatError(ctx, err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		d := chunk.Choices[0].Delta.Content
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

func mapCompatError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}
	return &ErrProviderUnavailable{Err: err}
}
