package tutor

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/neurotutor-backend/internal/platform/llm"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

const promptsEnv = "TUTOR_PROMPTS_YAML"

//go:embed prompts.yaml
var promptsFS embed.FS

type promptExample struct {
	User      string `yaml:"user"`
	Assistant string `yaml:"assistant"`
}

type promptSpec struct {
	System   string          `yaml:"system"`
	User     string          `yaml:"user"`
	Examples []promptExample `yaml:"examples"`
}

// Prompts is the parsed prompt set. Explain templates are compiled once.
type Prompts struct {
	Version   int        `yaml:"version"`
	Intent    promptSpec `yaml:"intent"`
	Explain   promptSpec `yaml:"explain"`
	Quiz      promptSpec `yaml:"quiz"`
	Summarize promptSpec `yaml:"summarize"`
	Fallback  promptSpec `yaml:"fallback"`
	Topic     promptSpec `yaml:"topic"`

	explainSystem *template.Template
	explainUser   *template.Template
}

var (
	promptsOnce  sync.Once
	promptsCache *Prompts
)

// LoadPrompts returns the process prompt set. A broken override file is
// logged and the embedded prompts are used instead.
func LoadPrompts(log *logger.Logger) *Prompts {
	promptsOnce.Do(func() {
		if path := strings.TrimSpace(os.Getenv(promptsEnv)); path != "" {
			data, err := os.ReadFile(path)
			if err == nil {
				promptsCache, err = ParsePrompts(data)
			}
			if err == nil {
				return
			}
			if log != nil {
				log.Warn("tutor: prompt override failed; using embedded prompts", "path", path, "error", err)
			}
		}
		data, err := promptsFS.ReadFile("prompts.yaml")
		if err != nil {
			panic(fmt.Sprintf("embedded prompts missing: %v", err))
		}
		p, err := ParsePrompts(data)
		if err != nil {
			panic(fmt.Sprintf("embedded prompts invalid: %v", err))
		}
		promptsCache = p
	})
	return promptsCache
}

func ParsePrompts(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	for name, spec := range map[string]promptSpec{
		"intent": p.Intent, "explain": p.Explain, "quiz": p.Quiz,
		"summarize": p.Summarize, "fallback": p.Fallback, "topic": p.Topic,
	} {
		if strings.TrimSpace(spec.System) == "" {
			return nil, fmt.Errorf("prompt %q: system text is required", name)
		}
	}
	if strings.TrimSpace(p.Explain.User) == "" {
		return nil, errors.New(`prompt "explain": user template is required`)
	}
	var err error
	if p.explainSystem, err = template.New("explain.system").Option("missingkey=error").Parse(p.Explain.System); err != nil {
		return nil, err
	}
	if p.explainUser, err = template.New("explain.user").Option("missingkey=error").Parse(p.Explain.User); err != nil {
		return nil, err
	}
	return &p, nil
}

type explainVars struct {
	Context string
	Query   string
	Grade   string
	Board   string
}

func (p *Prompts) withExamples(spec promptSpec, msgs []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, 2*len(spec.Examples)+len(msgs))
	for _, ex := range spec.Examples {
		out = append(out,
			llm.Message{Role: llm.RoleUser, Content: strings.TrimSpace(ex.User)},
			llm.Message{Role: llm.RoleAssistant, Content: strings.TrimSpace(ex.Assistant)},
		)
	}
	return append(out, msgs...)
}

func (p *Prompts) IntentRequest(message string) llm.Request {
	return llm.Request{
		System:      p.Intent.System,
		Messages:    p.withExamples(p.Intent, []llm.Message{{Role: llm.RoleUser, Content: message}}),
		Temperature: llm.Float(0),
		MaxTokens:   8,
	}
}

func (p *Prompts) ExplainRequest(history []llm.Message, v explainVars) (llm.Request, error) {
	if strings.TrimSpace(v.Context) == "" {
		v.Context = "(no syllabus context available)"
	}
	var sys, usr bytes.Buffer
	if err := p.explainSystem.Execute(&sys, v); err != nil {
		return llm.Request{}, fmt.Errorf("render explain system prompt: %w", err)
	}
	if err := p.explainUser.Execute(&usr, v); err != nil {
		return llm.Request{}, fmt.Errorf("render explain user prompt: %w", err)
	}
	msgs := append(append([]llm.Message{}, history...), llm.Message{Role: llm.RoleUser, Content: usr.String()})
	return llm.Request{System: sys.String(), Messages: msgs}, nil
}

func (p *Prompts) QuizRequest(text string) llm.Request {
	return llm.Request{
		System:   p.Quiz.System,
		Messages: p.withExamples(p.Quiz, []llm.Message{{Role: llm.RoleUser, Content: text}}),
	}
}

func (p *Prompts) SummarizeRequest(history []llm.Message) llm.Request {
	var b strings.Builder
	for _, m := range history {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return llm.Prompt(p.Summarize.System, b.String())
}

func (p *Prompts) FallbackRequest(history []llm.Message, question string) llm.Request {
	msgs := append(append([]llm.Message{}, history...), llm.Message{Role: llm.RoleUser, Content: question})
	return llm.Request{System: p.Fallback.System, Messages: msgs}
}

func (p *Prompts) TopicRequest(message string) llm.Request {
	req := llm.Prompt(p.Topic.System, message)
	req.MaxTokens = 24
	return req
}
