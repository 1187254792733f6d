package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/neurotutor-backend/internal/domain/tutor"
	"github.com/yungbote/neurotutor-backend/internal/platform/llm"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
	"github.com/yungbote/neurotutor-backend/internal/platform/qdrant"
)

const (
	DefaultTopK           = 3
	DefaultScoreThreshold = 0.7
)

// Retriever finds curriculum passages for a personalized explanation.
type Retriever interface {
	Retrieve(ctx context.Context, query string, profile Profile) ([]tutor.Source, error)
}

// Profile is the learner context used to personalize a turn.
type Profile struct {
	Grade string
	Board string
}

type searcher interface {
	Search(ctx context.Context, vector []float32, p qdrant.SearchParams) ([]qdrant.Hit, error)
}

// VectorRetriever embeds the query and searches the curriculum collection.
type VectorRetriever struct {
	log       *logger.Logger
	embedder  llm.Embedder
	index     searcher
	topK      int
	threshold float64
	// filterByProfile restricts hits to the learner's grade and board.
	filterByProfile bool
}

func NewVectorRetriever(log *logger.Logger, embedder llm.Embedder, index *qdrant.Client, topK int, threshold float64, filterByProfile bool) *VectorRetriever {
	return newVectorRetriever(log, embedder, index, topK, threshold, filterByProfile)
}

func newVectorRetriever(log *logger.Logger, embedder llm.Embedder, index searcher, topK int, threshold float64, filterByProfile bool) *VectorRetriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}
	return &VectorRetriever{
		log:             log.With("module", "Retriever"),
		embedder:        embedder,
		index:           index,
		topK:            topK,
		threshold:       threshold,
		filterByProfile: filterByProfile,
	}
}

func (r *VectorRetriever) Retrieve(ctx context.Context, query string, profile Profile) ([]tutor.Source, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	params := qdrant.SearchParams{TopK: r.topK, ScoreThreshold: r.threshold}
	if r.filterByProfile {
		params.Filter = qdrant.MatchFields(map[string]string{"grade": profile.Grade, "board": profile.Board})
	}
	hits, err := r.index.Search(ctx, vec, params)
	if err != nil {
		return nil, fmt.Errorf("search curriculum: %w", err)
	}
	out := make([]tutor.Source, 0, len(hits))
	for _, h := range hits {
		content := strings.TrimSpace(h.PayloadString("content"))
		if content == "" {
			continue
		}
		out = append(out, tutor.Source{Label: SourceLabel(h), Content: content, Score: h.Score})
	}
	r.log.Debug("retrieved sources", "count", len(out), "hits", len(hits))
	return out, nil
}

// SourceLabel renders "board - grade - subject - chapter - subheading",
// skipping empty parts.
func SourceLabel(h qdrant.Hit) string {
	parts := make([]string, 0, 5)
	for _, k := range []string{"board", "grade", "subject", "chapter", "subheading"} {
		if v := strings.TrimSpace(h.PayloadString(k)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " - ")
}

// formatContext joins sources for the explain prompt.
func formatContext(sources []tutor.Source) string {
	var b strings.Builder
	for i, s := range sources {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if s.Label != "" {
			b.WriteString("[" + s.Label + "]\n")
		}
		b.WriteString(s.Content)
	}
	return b.String()
}
