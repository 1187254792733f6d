package llm

import (
	"context"
	"sync"
	"unicode/utf8"
)

// MockResponse is one scripted answer. Text is streamed in chunks of
// ChunkSize runes (whole text when ChunkSize <= 0).
type MockResponse struct {
	Text      string
	ChunkSize int
	Err       error
}

// MockGenerator returns scripted responses in FIFO order and records every
// request. An empty queue yields ErrProviderUnavailable.
type MockGenerator struct {
	mu        sync.Mutex
	responses []MockResponse
	calls     []Request
}

func NewMockGenerator(responses ...MockResponse) *MockGenerator {
	return &MockGenerator{responses: responses}
}

func (m *MockGenerator) Provider() string { return ProviderMock }
func (m *MockGenerator) Model() string    { return "mock" }

func (m *MockGenerator) Stream(ctx context.Context, req Request, onDelta DeltaFunc) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	if len(m.responses) == 0 {
		m.mu.Unlock()
		return "", &ErrProviderUnavailable{}
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	m.mu.Unlock()

	if resp.Err != nil {
		return "", resp.Err
	}
	if onDelta == nil {
		return resp.Text, nil
	}
	for _, chunk := range splitRunes(resp.Text, resp.ChunkSize) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := onDelta(chunk); err != nil {
			return "", err
		}
	}
	return resp.Text, nil
}

func (m *MockGenerator) Add(resp ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp...)
}

// Calls returns a copy of the recorded requests.
func (m *MockGenerator) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Pending is the number of scripted responses not yet consumed.
func (m *MockGenerator) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses)
}

func splitRunes(s string, size int) []string {
	if s == "" {
		return nil
	}
	if size <= 0 || utf8.RuneCountInString(s) <= size {
		return []string{s}
	}
	var out []string
	for len(s) > 0 {
		i, n := 0, 0
		for i < len(s) && n < size {
			_, w := utf8.DecodeRuneInString(s[i:])
			i += w
			n++
		}
		out = append(out, s[:i])
		s = s[i:]
	}
	return out
}
