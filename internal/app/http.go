package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurotutor-backend/internal/http"
	httpH "github.com/yungbote/neurotutor-backend/internal/http/handlers"
	httpMW "github.com/yungbote/neurotutor-backend/internal/http/middleware"
	"github.com/yungbote/neurotutor-backend/internal/observability"
	"github.com/yungbote/neurotutor-backend/internal/platform/identity"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
	"github.com/yungbote/neurotutor-backend/internal/realtime/ws"
)

type Handlers struct {
	Health        *httpH.HealthHandler
	User          *httpH.UserHandler
	Conversations *httpH.ConversationHandler
	Quiz          *httpH.QuizHandler
	Performance   *httpH.PerformanceHandler
	Tutor         *ws.Server
}

func wireHandlers(log *logger.Logger, cfg Config, services Services, ready httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:        httpH.NewHealthHandler(ready),
		User:          httpH.NewUserHandler(services.User),
		Conversations: httpH.NewConversationHandler(services.Conversations),
		Quiz:          httpH.NewQuizHandler(services.Quiz, services.Ledger),
		Performance:   httpH.NewPerformanceHandler(services.Metrics),
		Tutor: ws.NewServer(log, cfg.WS, ws.Deps{
			Pipeline:      services.Pipeline,
			Sessions:      services.History,
			Conversations: services.Conversations,
			Profiles:      services.User,
		}),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, verifier identity.Verifier) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return http.NewRouter(http.RouterConfig{
		Log:                 log,
		Metrics:             observability.Current(),
		ServiceName:         cfg.ServiceName,
		AuthMiddleware:      httpMW.NewAuthMiddleware(log, verifier),
		ConversationHandler: handlers.Conversations,
		QuizHandler:         handlers.Quiz,
		UserHandler:         handlers.User,
		PerformanceHandler:  handlers.Performance,
		HealthHandler:       handlers.Health,
		Tutor:               handlers.Tutor,
	})
}

func dbPinger(a *App) httpH.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
