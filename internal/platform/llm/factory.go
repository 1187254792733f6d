package llm

import (
	"context"
	"fmt"

	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

// New builds the configured provider wrapped with Instrument.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Generator, error) {
	if log == nil {
		log = logger.Nop()
	}
	var (
		base Generator
		err  error
	)
	switch cfg.Provider {
	case ProviderOpenAI, "":
		base, err = newOpenAIResponses(cfg, log, nil)
	case ProviderOpenAICompat:
		base, err = newOpenAICompat(cfg, log, nil)
	case ProviderAnthropic:
		base, err = newAnthropic(cfg, log, nil)
	case ProviderGemini:
		base, err = newGemini(ctx, cfg, log, nil)
	case ProviderMock:
		base = NewMockGenerator()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}
	log.Info("LLM provider ready", "provider", base.Provider(), "model", base.Model())
	return Instrument(base, log), nil
}
