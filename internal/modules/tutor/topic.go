package tutor

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/neurotutor-backend/internal/domain/tutor"
	"github.com/yungbote/neurotutor-backend/internal/platform/llm"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

const maxTopicRunes = 60

// Topics labels new conversations from their first message.
type Topics struct {
	log     *logger.Logger
	gen     llm.Generator
	prompts *Prompts
}

func NewTopics(log *logger.Logger, gen llm.Generator, prompts *Prompts) *Topics {
	if prompts == nil {
		prompts = LoadPrompts(log)
	}
	return &Topics{log: log.With("module", "Topics"), gen: gen, prompts: prompts}
}

// Label returns a short topic. It falls back to the truncated message, or
// the default topic when the message is blank.
func (t *Topics) Label(ctx context.Context, firstMessage string) string {
	msg := strings.TrimSpace(firstMessage)
	if msg == "" {
		return tutor.DefaultTopic
	}
	if t != nil && t.gen != nil {
		out, err := llm.Complete(ctx, t.gen, t.prompts.TopicRequest(msg))
		if err == nil {
			if label := cleanTopic(out); label != "" {
				return label
			}
		} else {
			t.log.Warn("topic generation failed", "error", err)
		}
	}
	return truncateRunes(strings.Join(strings.Fields(msg), " "), maxTopicRunes)
}

func cleanTopic(raw string) string {
	line := raw
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "Title:")
	line = strings.Trim(strings.TrimSpace(line), `"'*#. `)
	return truncateRunes(line, maxTopicRunes)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
