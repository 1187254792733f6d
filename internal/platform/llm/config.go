package llm

import (
	"strings"
	"time"

	"github.com/yungbote/neurotutor-backend/internal/platform/envutil"
)

const (
	ProviderOpenAI       = "openai"
	ProviderOpenAICompat = "openai-compat"
	ProviderAnthropic    = "anthropic"
	ProviderGemini       = "gemini"
	ProviderMock         = "mock"

	defaultMaxTokens = 1024
)

var defaultModels = map[string]string{
	ProviderOpenAI:       "gpt-4o-mini",
	ProviderOpenAICompat: "gpt-4o-mini",
	ProviderAnthropic:    "claude-haiku-4-5-20251001",
	ProviderGemini:       "gemini-2.0-flash",
	ProviderMock:         "mock",
}

// modelAliases maps friendly names to provider model ids.
var modelAliases = map[string]string{
	"claude-sonnet": "claude-sonnet-4-20250514",
	"claude-haiku":  "claude-haiku-4-5-20251001",
	"gemini-flash":  "gemini-2.0-flash",
}

type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	Temperature *float64
	MaxTokens   int
}

// ConfigFromEnv reads LLM_PROVIDER and the matching provider credentials.
func ConfigFromEnv() Config {
	provider := strings.ToLower(envutil.String("LLM_PROVIDER", ProviderOpenAI))
	cfg := Config{
		Provider:  provider,
		Model:     envutil.String("LLM_MODEL", ""),
		Timeout:   envutil.Duration("LLM_TIMEOUT_SECONDS", 120*time.Second),
		MaxTokens: envutil.Int("LLM_MAX_TOKENS", defaultMaxTokens),
	}
	if raw := envutil.String("LLM_TEMPERATURE", ""); raw != "" {
		switch strings.ToLower(raw) {
		case "off", "none", "nil", "false":
		default:
			cfg.Temperature = Float(envutil.Float("LLM_TEMPERATURE", 0.3))
		}
	}
	switch provider {
	case ProviderOpenAI:
		cfg.APIKey = envutil.String("OPENAI_API_KEY", "")
		cfg.BaseURL = envutil.String("OPENAI_BASE_URL", "https://api.openai.com")
		if cfg.Model == "" {
			cfg.Model = envutil.String("OPENAI_MODEL", "")
		}
	case ProviderOpenAICompat:
		cfg.APIKey = envutil.String("LLM_COMPAT_API_KEY", envutil.String("OPENAI_API_KEY", ""))
		cfg.BaseURL = envutil.String("LLM_COMPAT_BASE_URL", "https://openrouter.ai/api/v1")
	case ProviderAnthropic:
		cfg.APIKey = envutil.String("ANTHROPIC_API_KEY", "")
		cfg.BaseURL = envutil.String("ANTHROPIC_BASE_URL", "")
	case ProviderGemini:
		cfg.APIKey = envutil.String("GEMINI_API_KEY", envutil.String("GOOGLE_API_KEY", ""))
	}
	return cfg
}

func (c Config) resolvedModel() string {
	name := strings.TrimSpace(c.Model)
	if name == "" {
		return defaultModels[c.Provider]
	}
	if id, ok := modelAliases[name]; ok {
		return id
	}
	return name
}
