package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/yungbote/neurotutor-backend/internal/platform/envutil"
)

// Embedder turns a query into the vector space of the curriculum index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
}

type EmbedConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	// Dim is only used by the hash embedder.
	Dim int
}

func EmbedConfigFromEnv() EmbedConfig {
	cfg := EmbedConfig{
		Provider: strings.ToLower(envutil.String("EMBEDDING_PROVIDER", ProviderOpenAI)),
		Model:    envutil.String("EMBEDDING_MODEL", ""),
		Dim:      envutil.Int("EMBEDDING_DIM", 256),
	}
	switch cfg.Provider {
	case ProviderGemini:
		cfg.APIKey = envutil.String("GEMINI_API_KEY", envutil.String("GOOGLE_API_KEY", ""))
		if cfg.Model == "" {
			cfg.Model = "gemini-embedding-001"
		}
	default:
		cfg.APIKey = envutil.String("OPENAI_API_KEY", "")
		cfg.BaseURL = envutil.String("EMBEDDING_BASE_URL", "")
		if cfg.Model == "" {
			cfg.Model = string(goopenai.SmallEmbedding3)
		}
	}
	return cfg
}

// NewEmbedder builds the configured embedder. The "mock" provider returns a
// deterministic hash embedder that needs no network.
func NewEmbedder(ctx context.Context, cfg EmbedConfig, httpClient *http.Client) (Embedder, error) {
	switch cfg.Provider {
	case ProviderGemini:
		client, err := newGenaiClient(ctx, cfg.APIKey, httpClient)
		if err != nil {
			return nil, err
		}
		return &genaiEmbedder{client: client, model: cfg.Model}, nil
	case ProviderMock:
		return NewHashEmbedder(cfg.Dim), nil
	case ProviderOpenAI, ProviderOpenAICompat, "":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("missing OPENAI_API_KEY for embeddings")
		}
		oc := goopenai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		if httpClient != nil {
			oc.HTTPClient = httpClient
		}
		return &openAIEmbedder{client: goopenai.NewClientWithConfig(oc), model: cfg.Model}, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}

type openAIEmbedder struct {
	client *goopenai.Client
	model  string
}

func (e *openAIEmbedder) Name() string { return "openai:" + e.model }

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: []string{text},
		Model: goopenai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, mapCompatError(ctx, err)
	}
	if len(resp.Data) == 0 {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("no embeddings returned")}
	}
	return resp.Data[0].Embedding, nil
}

type genaiEmbedder struct {
	client *genai.Client
	model  string
}

func (e *genaiEmbedder) Name() string { return "genai:" + e.model }

func (e *genaiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, mapGeminiError(ctx, err)
	}
	if len(result.Embeddings) == 0 {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("no embeddings returned")}
	}
	return result.Embeddings[0].Values, nil
}

// HashEmbedder hashes lowercase tokens into a fixed number of buckets and
// L2-normalizes the result.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{dim: dim}
}

func (e *HashEmbedder) Name() string { return fmt.Sprintf("hash:%d", e.dim) }

func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dim)]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		return vec, nil
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec, nil
}
