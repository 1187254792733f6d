package app

import (
	"fmt"

	"gorm.io/gorm"

	tutormod "github.com/yungbote/neurotutor-backend/internal/modules/tutor"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
	"github.com/yungbote/neurotutor-backend/internal/services"
)

type Services struct {
	History       services.HistoryService
	Quiz          services.QuizService
	Metrics       services.MetricsAggregator
	Ledger        services.SubmissionLedger
	Conversations services.ConversationService
	User          services.UserService
	Pipeline      *tutormod.Pipeline
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	// A nil *rediscache.Cache must not become a non-nil interface.
	var cache services.RollupCache
	if clients.Redis != nil {
		cache = clients.Redis
	}

	prompts := tutormod.LoadPrompts(log)
	history := services.NewHistoryService(db, log, reposet.Session, reposet.Turn)
	quizzes := services.NewQuizService(db, log, reposet.Quiz)
	metrics := services.NewMetricsAggregator(db, log, reposet.QuizSubmission, reposet.UserMetrics, cache)

	deps := tutormod.PipelineDeps{
		Log:       log,
		Generator: clients.Generator,
		Router:    tutormod.NewRouter(log, clients.Generator, prompts),
		History:   history,
		Quizzes:   quizzes,
		Prompts:   prompts,
	}
	if clients.Qdrant != nil && clients.Embedder != nil {
		deps.Retriever = tutormod.NewVectorRetriever(log, clients.Embedder, clients.Qdrant, cfg.RetrievalTopK, cfg.RetrievalThreshold, cfg.RetrievalByProfile)
	}
	if clients.Images != nil {
		deps.Media = tutormod.NewMediaFinder(log, clients.Images, cfg.MediaMaxQueries, cfg.MediaPerQuery)
	}
	pipeline, err := tutormod.NewPipeline(deps)
	if err != nil {
		return Services{}, fmt.Errorf("init pipeline: %w", err)
	}

	return Services{
		History:       history,
		Quiz:          quizzes,
		Metrics:       metrics,
		Ledger:        services.NewSubmissionLedger(db, log, reposet.User, reposet.Quiz, reposet.QuizSubmission, metrics),
		Conversations: services.NewConversationService(db, log, reposet.Session, history, tutormod.NewTopics(log, clients.Generator, prompts)),
		User:          services.NewUserService(db, log, reposet.User),
		Pipeline:      pipeline,
	}, nil
}
