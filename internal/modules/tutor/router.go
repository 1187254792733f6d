package tutor

import (
	"context"
	"strings"

	"github.com/yungbote/neurotutor-backend/internal/platform/llm"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type Intent int

const (
	IntentFallback Intent = iota
	IntentExplain
	IntentQuiz
)

func (i Intent) String() string {
	switch i {
	case IntentExplain:
		return "explain"
	case IntentQuiz:
		return "quiz"
	default:
		return "fallback"
	}
}

// ParseIntent maps raw classifier output to an Intent. Anything without a
// recognised label is Fallback.
func ParseIntent(raw string) Intent {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "explanation"):
		return IntentExplain
	case strings.Contains(s, "quiz"):
		return IntentQuiz
	default:
		return IntentFallback
	}
}

// Router classifies learner messages with one generation call.
type Router struct {
	log     *logger.Logger
	gen     llm.Generator
	prompts *Prompts
}

func NewRouter(log *logger.Logger, gen llm.Generator, prompts *Prompts) *Router {
	if prompts == nil {
		prompts = LoadPrompts(log)
	}
	return &Router{log: log.With("module", "IntentRouter"), gen: gen, prompts: prompts}
}

// Classify never fails: generation errors resolve to IntentFallback.
func (r *Router) Classify(ctx context.Context, message string) Intent {
	if strings.TrimSpace(message) == "" {
		return IntentFallback
	}
	raw, err := llm.Complete(ctx, r.gen, r.prompts.IntentRequest(message))
	if err != nil {
		r.log.Warn("intent classification failed; using fallback", "error", err)
		return IntentFallback
	}
	intent := ParseIntent(raw)
	r.log.Debug("intent classified", "raw", strings.TrimSpace(raw), "intent", intent.String())
	return intent
}
