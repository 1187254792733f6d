package app

import (
	"time"

	"github.com/yungbote/neurotutor-backend/internal/data/db"
	"github.com/yungbote/neurotutor-backend/internal/platform/envutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/identity"
	"github.com/yungbote/neurotutor-backend/internal/platform/imagesearch"
	"github.com/yungbote/neurotutor-backend/internal/platform/llm"
	"github.com/yungbote/neurotutor-backend/internal/platform/rediscache"
	"github.com/yungbote/neurotutor-backend/internal/realtime/ws"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string

	Addr            string
	MetricsAddr     string
	ShutdownTimeout time.Duration

	Postgres db.PostgresConfig
	Redis    rediscache.Config
	Identity identity.Config
	LLM      llm.Config
	Embed    llm.EmbedConfig
	Images   imagesearch.Config
	WS       ws.Config

	RetrievalTopK      int
	RetrievalThreshold float64
	// RetrievalByProfile restricts curriculum hits to the learner's grade and board.
	RetrievalByProfile bool
	MediaMaxQueries    int
	MediaPerQuery      int
}

func LoadConfig() Config {
	return Config{
		ServiceName:     envutil.String("SERVICE_NAME", "neurotutor"),
		Environment:     envutil.String("APP_ENV", "development"),
		Version:         envutil.String("APP_VERSION", "dev"),
		Addr:            envutil.String("ADDR", ":"+envutil.String("PORT", "8080")),
		MetricsAddr:     envutil.String("METRICS_ADDR", ":9090"),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),

		Postgres: db.PostgresConfigFromEnv(),
		Redis:    rediscache.ConfigFromEnv(),
		Identity: identity.ConfigFromEnv(),
		LLM:      llm.ConfigFromEnv(),
		Embed:    llm.EmbedConfigFromEnv(),
		Images:   imagesearch.ConfigFromEnv(),
		WS:       ws.ConfigFromEnv(),

		RetrievalTopK:      envutil.Int("RETRIEVAL_TOP_K", 3),
		RetrievalThreshold: envutil.Float("RETRIEVAL_SCORE_THRESHOLD", 0.7),
		RetrievalByProfile: envutil.Bool("RETRIEVAL_FILTER_BY_PROFILE", false),
		MediaMaxQueries:    envutil.Int("MEDIA_MAX_QUERIES", 3),
		MediaPerQuery:      envutil.Int("MEDIA_IMAGES_PER_QUERY", 1),
	}
}
