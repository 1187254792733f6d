package tutor

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/neurotutor-backend/internal/platform/llm"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
	"github.com/yungbote/neurotutor-backend/internal/platform/qdrant"
)

type fakeIndex struct {
	hits   []qdrant.Hit
	err    error
	params qdrant.SearchParams
	calls  int
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, p qdrant.SearchParams) ([]qdrant.Hit, error) {
	f.calls++
	f.params = p
	return f.hits, f.err
}

func TestVectorRetrieverRetrieve(t *testing.T) {
	idx := &fakeIndex{hits: []qdrant.Hit{
		{ID: "1", Score: 0.91, Payload: map[string]any{
			"board": "CBSE", "grade": "10th", "subject": "Physics", "chapter": "Light", "subheading": "Shadows",
			"content": "A shadow forms when an opaque object blocks light.",
		}},
		{ID: "2", Score: 0.8, Payload: map[string]any{"board": "CBSE", "content": "   "}},
		{ID: "3", Score: 0.75, Payload: map[string]any{"subject": "Physics", "content": "Light travels in straight lines."}},
	}}
	r := newVectorRetriever(logger.Nop(), llm.NewHashEmbedder(32), idx, 0, 0, true)

	got, err := r.Retrieve(context.Background(), "why do shadows form", Profile{Grade: "10th", Board: "CBSE"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected hits without content to be skipped, got %d", len(got))
	}
	if got[0].Label != "CBSE - 10th - Physics - Light - Shadows" || got[1].Label != "Physics" {
		t.Fatalf("labels=%q,%q", got[0].Label, got[1].Label)
	}
	if idx.params.TopK != DefaultTopK || idx.params.ScoreThreshold != DefaultScoreThreshold {
		t.Fatalf("params=%+v", idx.params)
	}
	if idx.params.Filter == nil || len(idx.params.Filter.Must) != 2 {
		t.Fatalf("expected grade/board filter, got %+v", idx.params.Filter)
	}
}

func TestVectorRetrieverNoFilterAndErrors(t *testing.T) {
	idx := &fakeIndex{err: errors.New("boom")}
	r := newVectorRetriever(logger.Nop(), llm.NewHashEmbedder(8), idx, 5, 0.5, false)

	if _, err := r.Retrieve(context.Background(), "q", Profile{Grade: "9th"}); err == nil {
		t.Fatalf("expected search error")
	}
	if idx.params.Filter != nil || idx.params.TopK != 5 || idx.params.ScoreThreshold != 0.5 {
		t.Fatalf("params=%+v", idx.params)
	}
	got, err := r.Retrieve(context.Background(), "  ", Profile{})
	if err != nil || got != nil || idx.calls != 1 {
		t.Fatalf("blank query should not search: got=%v err=%v calls=%d", got, err, idx.calls)
	}
}

func TestFormatContext(t *testing.T) {
	if formatContext(nil) != "" {
		t.Fatalf("expected empty context")
	}
}
