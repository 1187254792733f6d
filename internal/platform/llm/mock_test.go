package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

func TestMockGeneratorFIFO(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockGenerator(
		MockResponse{Text: "héllo world", ChunkSize: 3},
		MockResponse{Err: boom},
	)

	var chunks []string
	out, err := m.Stream(context.Background(), Prompt("sys", "q1"), func(d string) error {
		chunks = append(chunks, d)
		return nil
	})
	if err != nil || out != "héllo world" {
		t.Fatalf("out=%q err=%v", out, err)
	}
	if strings.Join(chunks, "") != out || len(chunks) != 4 {
		t.Fatalf("chunks=%q", chunks)
	}
	if chunks[0] != "hél" {
		t.Fatalf("chunk split on bytes: %q", chunks[0])
	}

	if _, err := Complete(context.Background(), m, Prompt("", "q2")); !errors.Is(err, boom) {
		t.Fatalf("expected scripted error, got %v", err)
	}
	var unavailable *ErrProviderUnavailable
	if _, err := Complete(context.Background(), m, Prompt("", "q3")); !errors.As(err, &unavailable) {
		t.Fatalf("expected unavailable on empty queue, got %v", err)
	}
	calls := m.Calls()
	if len(calls) != 3 || calls[0].System != "sys" || calls[2].Messages[0].Content != "q3" {
		t.Fatalf("calls=%+v", calls)
	}
}

func TestMockGeneratorHonorsCancel(t *testing.T) {
	m := NewMockGenerator(MockResponse{Text: "abcdef", ChunkSize: 1})
	ctx, cancel := context.WithCancel(context.Background())
	n := 0
	_, err := m.Stream(ctx, Prompt("", "q"), func(string) error {
		n++
		if n == 2 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if n != 2 {
		t.Fatalf("delivered %d chunks after cancel", n)
	}
}

func TestInstrumentPassesThrough(t *testing.T) {
	m := NewMockGenerator(MockResponse{Text: "ok"}, MockResponse{Err: &ErrRateLimit{}})
	g := Instrument(m, logger.Nop())
	if g.Provider() != ProviderMock || g.Model() != "mock" {
		t.Fatalf("provider/model not forwarded")
	}
	if out, err := Complete(context.Background(), g, Prompt("", "a")); err != nil || out != "ok" {
		t.Fatalf("out=%q err=%v", out, err)
	}
	if _, err := Complete(context.Background(), g, Prompt("", "b")); statusLabel(err) != "rate_limited" {
		t.Fatalf("status=%s", statusLabel(err))
	}
}

func TestStatusLabel(t *testing.T) {
	cases := map[string]error{
		"ok":           nil,
		"canceled":     context.Canceled,
		"timeout":      context.DeadlineExceeded,
		"rate_limited": &ErrRateLimit{},
		"invalid":      &ErrInvalidResponse{},
		"error":        errors.New("x"),
	}
	for want, err := range cases {
		if got := statusLabel(err); got != want {
			t.Fatalf("statusLabel(%v)=%s want %s", err, got, want)
		}
	}
}

func TestHashEmbedderNormalized(t *testing.T) {
	e := NewHashEmbedder(32)
	a, _ := e.Embed(context.Background(), "Newton laws of motion")
	b, _ := e.Embed(context.Background(), "newton LAWS of motion")
	if len(a) != 32 {
		t.Fatalf("dim=%d", len(a))
	}
	var norm float32
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding not case-insensitive at %d", i)
		}
		norm += a[i] * a[i]
	}
	if norm < 0.999 || norm > 1.001 {
		t.Fatalf("norm=%f", norm)
	}
}
