package tutor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/neurotutor-backend/internal/platform/llm"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
	"github.com/yungbote/neurotutor-backend/internal/platform/qdrant"
)

// CurriculumChunk is one syllabus passage as stored in the vector index.
// The payload keys match what the retriever reads back.
type CurriculumChunk struct {
	Board      string `json:"board"`
	Grade      string `json:"grade"`
	Subject    string `json:"subject"`
	Chapter    string `json:"chapter"`
	Subheading string `json:"subheading"`
	Content    string `json:"content"`
}

func (c CurriculumChunk) payload() map[string]any {
	return map[string]any{
		"board":      c.Board,
		"grade":      c.Grade,
		"subject":    c.Subject,
		"chapter":    c.Chapter,
		"subheading": c.Subheading,
		"content":    c.Content,
	}
}

// sourceID is stable across re-ingests so the same passage overwrites its point.
func (c CurriculumChunk) sourceID() string {
	return strings.Join([]string{c.Board, c.Grade, c.Subject, c.Chapter, c.Subheading, c.Content}, "\x1f")
}

// ReadCurriculumJSONL parses one chunk per line. Blank lines are skipped and
// chunks without content are rejected with their line number.
func ReadCurriculumJSONL(r io.Reader) ([]CurriculumChunk, error) {
	var out []CurriculumChunk
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var c CurriculumChunk
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if strings.TrimSpace(c.Content) == "" {
			return nil, fmt.Errorf("line %d: content is required", line)
		}
		out = append(out, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type curriculumIndex interface {
	EnsureCollection(ctx context.Context, dim int) error
	Upsert(ctx context.Context, points []qdrant.Point) error
}

type IngestOptions struct {
	BatchSize   int
	Concurrency int
}

// IngestCurriculum embeds chunks and upserts them into index, creating the
// collection from the first vector's dimension.
func IngestCurriculum(ctx context.Context, log *logger.Logger, embedder llm.Embedder, index curriculumIndex, chunks []CurriculumChunk, opts IngestOptions) (int, error) {
	if embedder == nil || index == nil {
		return 0, errors.New("embedder and index required")
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("module", "CurriculumIngest", "embedder", embedder.Name())

	points := make([]qdrant.Point, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i := range chunks {
		i := i
		g.Go(func() error {
			vec, err := embedder.Embed(gctx, chunks[i].Content)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}
			points[i] = qdrant.Point{ID: chunks[i].sourceID(), Vector: vec, Payload: chunks[i].payload()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := index.EnsureCollection(ctx, len(points[0].Vector)); err != nil {
		return 0, fmt.Errorf("ensure collection: %w", err)
	}
	written := 0
	for start := 0; start < len(points); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(points) {
			end = len(points)
		}
		if err := index.Upsert(ctx, points[start:end]); err != nil {
			return written, fmt.Errorf("upsert batch at %d: %w", start, err)
		}
		written += end - start
		log.Debug("curriculum batch upserted", "written", written, "total", len(points))
	}
	log.Info("curriculum ingested", "chunks", written)
	return written, nil
}
