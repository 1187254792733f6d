// Package llm is the generation capability the tutor depends on: a prompt
// plus history in, a stream of text deltas out. Concrete providers live in
// this package; callers only see Generator.
package llm

import (
	"context"
	"strings"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

type Request struct {
	System   string
	Messages []Message
	// Temperature is left to the provider default when nil.
	Temperature *float64
	MaxTokens   int
}

// DeltaFunc receives streamed text in generation order. Returning an error
// aborts the stream and is returned from Stream.
type DeltaFunc func(delta string) error

type Generator interface {
	// Stream generates a completion, forwarding each delta to onDelta (which
	// may be nil), and returns the full text.
	Stream(ctx context.Context, req Request, onDelta DeltaFunc) (string, error)
	Provider() string
	Model() string
}

// Complete runs req without streaming deltas anywhere.
func Complete(ctx context.Context, g Generator, req Request) (string, error) {
	return g.Stream(ctx, req, nil)
}

// Prompt builds a single-turn request.
func Prompt(system, user string) Request {
	return Request{System: system, Messages: []Message{{Role: RoleUser, Content: user}}}
}

func Float(v float64) *float64 { return &v }

func (r Request) withDefaults(cfg Config) Request {
	if r.Temperature == nil && cfg.Temperature != nil {
		r.Temperature = cfg.Temperature
	}
	if r.MaxTokens <= 0 {
		r.MaxTokens = cfg.MaxTokens
	}
	if r.MaxTokens <= 0 {
		r.MaxTokens = defaultMaxTokens
	}
	r.System = strings.TrimSpace(r.System)
	return r
}
