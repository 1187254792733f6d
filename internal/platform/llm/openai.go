package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

// openAIResponses streams from the OpenAI Responses API over raw HTTP + SSE.
type openAIResponses struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	cfg        Config
	httpClient *http.Client
}

type responsesInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model           string           `json:"model"`
	Input           []responsesInput `json:"input"`
	Temperature     *float64         `json:"temperature,omitempty"`
	MaxOutputTokens int              `json:"max_output_tokens,omitempty"`
	Stream          bool             `json:"stream"`
}

func newOpenAIResponses(cfg Config, log *logger.Logger, httpClient *http.Client) (*openAIResponses, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &openAIResponses{
		log:        log.With("service", "OpenAIResponses"),
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.resolvedModel(),
		cfg:        cfg,
		httpClient: httpClient,
	}, nil
}

func (c *openAIResponses) Provider() string { return ProviderOpenAI }
func (c *openAIResponses) Model() string    { return c.model }

func (c *openAIResponses) Stream(ctx context.Context, req Request, onDelta DeltaFunc) (string, error) {
	req = req.withDefaults(c.cfg)
	body := responsesRequest{
		Model:           c.model,
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxTokens,
		Stream:          true,
	}
	if req.System != "" {
		body.Input = append(body.Input, responsesInput{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		body.Input = append(body.Input, responsesInput{Role: string(m.Role), Content: m.Content})
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/responses", &buf)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &ErrProviderUnavailable{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", classifyStatus(resp.StatusCode, &HTTPError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Body: string(raw)})
	}

	var full strings.Builder
	err = readSSE(resp.Body, func(event, data string) error {
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			return nil
		}
		var obj struct {
			Type    string          `json:"type"`
			Delta   string          `json:"delta"`
			Refusal string          `json:"refusal"`
			Error   json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal([]byte(data), &obj); err != nil {
			return nil
		}
		evt := strings.TrimSpace(event)
		if obj.Type != "" {
			evt = obj.Type
		}
		if strings.TrimSpace(obj.Refusal) != "" {
			return &ErrInvalidResponse{Err: fmt.Errorf("model refused: %s", obj.Refusal)}
		}
		if len(obj.Error) > 0 && string(obj.Error) != "null" {
			return &ErrProviderUnavailable{Err: fmt.Errorf("openai stream error: %s", string(obj.Error))}
		}
		if !strings.Contains(evt, "output_text.delta") {
			return nil
		}
		d := strings.TrimRight(obj.Delta, "\u0000")
		if d == "" {
			return nil
		}
		full.WriteString(d)
		if onDelta != nil {
			return onDelta(d)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return full.String(), nil
}
