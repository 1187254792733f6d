package app

import (
	"context"
	"fmt"
	"io"

	types "github.com/yungbote/neurotutor-backend/internal/domain"
	tutormod "github.com/yungbote/neurotutor-backend/internal/modules/tutor"
	"github.com/yungbote/neurotutor-backend/internal/platform/llm"
	"github.com/yungbote/neurotutor-backend/internal/platform/qdrant"
	"github.com/yungbote/neurotutor-backend/internal/platform/rediscache"
	"github.com/yungbote/neurotutor-backend/internal/services"
)

// RecomputeMetrics rebuilds one user's rollup from the ledger. The fresh rollup
// is also written to the cache when Redis is configured.
func (a *App) RecomputeMetrics(ctx context.Context, userID string) (*types.UserMetricsRollup, error) {
	var cache services.RollupCache
	if a.Cfg.Redis.Enabled() {
		c, err := rediscache.Connect(ctx, a.Log, a.Cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		defer c.Close()
		cache = c
	}
	agg := services.NewMetricsAggregator(a.DB, a.Log, a.Repos.QuizSubmission, a.Repos.UserMetrics, cache)
	return agg.Recompute(ctx, userID)
}

// IngestCurriculum loads JSONL curriculum chunks into the vector index.
func (a *App) IngestCurriculum(ctx context.Context, r io.Reader, opts tutormod.IngestOptions) (int, error) {
	chunks, err := tutormod.ReadCurriculumJSONL(r)
	if err != nil {
		return 0, fmt.Errorf("read curriculum: %w", err)
	}
	qcfg, err := qdrant.ConfigFromEnv()
	if err != nil {
		return 0, fmt.Errorf("qdrant config: %w", err)
	}
	if !qcfg.Enabled() {
		return 0, fmt.Errorf("QDRANT_URL is required")
	}
	index, err := qdrant.New(a.Log, qcfg, nil)
	if err != nil {
		return 0, fmt.Errorf("init qdrant: %w", err)
	}
	embedder, err := llm.NewEmbedder(ctx, a.Cfg.Embed, nil)
	if err != nil {
		return 0, fmt.Errorf("init embedder: %w", err)
	}
	return tutormod.IngestCurriculum(ctx, a.Log, embedder, index, chunks, opts)
}
