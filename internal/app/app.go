package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/neurotutor-backend/internal/data/db"
	"github.com/yungbote/neurotutor-backend/internal/http"
	"github.com/yungbote/neurotutor-backend/internal/observability"
	"github.com/yungbote/neurotutor-backend/internal/platform/envutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/identity"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Router   *gin.Engine

	pg           *db.PostgresService
	otelShutdown func(context.Context) error
}

// Open builds the logger, configuration and database handle. It is enough
// for the maintenance commands; Wire adds everything the server needs.
func Open(ctx context.Context, logMode string) (*App, error) {
	if logMode == "" {
		logMode = envutil.String("LOG_MODE", "development")
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig()

	observability.Init(log)
	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	pg, err := db.NewPostgresService(log, cfg.Postgres)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	return &App{
		Log:          log,
		DB:           pg.DB(),
		Cfg:          cfg,
		Repos:        wireRepos(pg.DB(), log),
		pg:           pg,
		otelShutdown: shutdown,
	}, nil
}

func (a *App) Migrate() error {
	if err := a.pg.AutoMigrateAll(); err != nil {
		return fmt.Errorf("postgres automigrate: %w", err)
	}
	return nil
}

// Wire connects the external clients and builds services and the router.
func (a *App) Wire(ctx context.Context) error {
	clients, err := wireClients(ctx, a.Log, a.Cfg)
	if err != nil {
		return err
	}
	a.Clients = clients

	verifier, err := identity.NewHMAC(a.Cfg.Identity)
	if err != nil {
		return fmt.Errorf("init identity: %w", err)
	}
	serviceset, err := wireServices(a.DB, a.Log, a.Cfg, clients, a.Repos)
	if err != nil {
		return err
	}
	a.Services = serviceset
	a.Router = wireRouter(a.Log, a.Cfg, wireHandlers(a.Log, a.Cfg, serviceset, dbPinger(a)), verifier)
	return nil
}

// Serve runs the API until ctx is cancelled.
func (a *App) Serve(ctx context.Context, addr string) error {
	if a == nil || a.Router == nil {
		return errors.New("app not wired")
	}
	if addr == "" {
		addr = a.Cfg.Addr
	}
	if m := observability.Current(); m != nil {
		m.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		m.StartPostgresCollector(ctx, a.Log, a.DB)
		if a.Clients.Redis != nil {
			m.StartRedisCollector(ctx, a.Log, a.Clients.Redis.Client())
		}
	}
	a.Log.Info("Server listening", "addr", addr)
	return (&http.Server{Engine: a.Router}).Run(ctx, addr, a.Cfg.ShutdownTimeout)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
