package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurotutor-backend/internal/http/handlers"
	httpMW "github.com/yungbote/neurotutor-backend/internal/http/middleware"
	"github.com/yungbote/neurotutor-backend/internal/observability"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

const wsRoute = "/api/ws/ai-tutor"

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AuthMiddleware *httpMW.AuthMiddleware

	ConversationHandler *httpH.ConversationHandler
	QuizHandler         *httpH.QuizHandler
	UserHandler         *httpH.UserHandler
	PerformanceHandler  *httpH.PerformanceHandler
	HealthHandler       *httpH.HealthHandler

	// Tutor serves the WebSocket upgrade once the caller is authenticated.
	Tutor http.Handler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics, wsRoute))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}

	if cfg.Tutor != nil {
		api.GET("/ws/ai-tutor", gin.WrapH(cfg.Tutor))
	}

	if cfg.UserHandler != nil {
		api.POST("/users", cfg.UserHandler.Create)
		api.POST("/users/login", cfg.UserHandler.Login)
		api.POST("/users/continue", cfg.UserHandler.Continue)
		api.GET("/me", cfg.UserHandler.GetMe)
		api.PATCH("/me", cfg.UserHandler.UpdateMe)
	}

	if cfg.ConversationHandler != nil {
		api.POST("/conversations", cfg.ConversationHandler.Create)
		api.GET("/conversations", cfg.ConversationHandler.List)
		api.GET("/conversations/:id", cfg.ConversationHandler.Get)
	}

	if cfg.QuizHandler != nil {
		api.POST("/quizzes/submit", cfg.QuizHandler.Submit)
		api.GET("/quizzes/:id", cfg.QuizHandler.Get)
	}

	if cfg.PerformanceHandler != nil {
		api.GET("/user-performance/:user_id", cfg.PerformanceHandler.Get)
	}

	return r
}
