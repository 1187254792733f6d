package app

import (
	"context"
	"fmt"

	"github.com/yungbote/neurotutor-backend/internal/platform/imagesearch"
	"github.com/yungbote/neurotutor-backend/internal/platform/llm"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
	"github.com/yungbote/neurotutor-backend/internal/platform/qdrant"
	"github.com/yungbote/neurotutor-backend/internal/platform/rediscache"
)

// Clients are the external backends. Only Generator is required; the rest
// are nil when their configuration is absent.
type Clients struct {
	Generator llm.Generator
	Embedder  llm.Embedder
	Qdrant    *qdrant.Client
	Images    *imagesearch.Client
	Redis     *rediscache.Cache
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	gen, err := llm.New(ctx, cfg.LLM, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init llm: %w", err)
	}
	c.Generator = gen

	qcfg, err := qdrant.ConfigFromEnv()
	if err != nil {
		return Clients{}, fmt.Errorf("qdrant config: %w", err)
	}
	if qcfg.Enabled() {
		embedder, err := llm.NewEmbedder(ctx, cfg.Embed, nil)
		if err != nil {
			return Clients{}, fmt.Errorf("init embedder: %w", err)
		}
		index, err := qdrant.New(log, qcfg, nil)
		if err != nil {
			return Clients{}, fmt.Errorf("init qdrant: %w", err)
		}
		c.Embedder, c.Qdrant = embedder, index
	} else {
		log.Warn("QDRANT_URL not set; explanations run without curriculum context")
	}

	if cfg.Images.Enabled() {
		images, err := imagesearch.New(ctx, log, cfg.Images, nil)
		if err != nil {
			return Clients{}, fmt.Errorf("init image search: %w", err)
		}
		c.Images = images
	}

	if cfg.Redis.Enabled() {
		cache, err := rediscache.Connect(ctx, log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		c.Redis = cache
	}
	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
