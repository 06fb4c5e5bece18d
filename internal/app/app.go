package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/data/db"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	crmhttp "github.com/yungbote/licensing-crm-backend/internal/http"
	"github.com/yungbote/licensing-crm-backend/internal/observability"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
	"github.com/yungbote/licensing-crm-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *crmhttp.Server
	Cfg      Config
	Clients  Clients
	Repos    repos.Set
	Services Services
	SSEHub   *realtime.SSEHub

	pg           *db.PostgresService
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// NewLogger builds the process logger from LOG_MODE.
func NewLogger() (*logger.Logger, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// OpenDB connects and migrates the CRM schema.
func OpenDB(log *logger.Logger, cfg db.Config) (*db.PostgresService, error) {
	pg, err := db.NewPostgresService(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(pg.DB()); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return pg, nil
}

func New(ctx context.Context, log *logger.Logger) (*App, error) {
	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		return nil, err
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	pg, err := OpenDB(log, cfg.DB)
	if err != nil {
		return nil, err
	}
	theDB := pg.DB()

	clients := wireClients(ctx, log, cfg)
	hub := realtime.NewSSEHub(log)
	reposet := repos.NewSet(theDB, log)

	serviceset, err := wireServices(theDB, log, cfg, clients, reposet, hub)
	if err != nil {
		clients.Close()
		_ = pg.Close()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset, hub)
	server := wireServer(log, cfg, serviceset, handlerset)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		SSEHub:       hub,
		pg:           pg,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background work. With Redis configured, SSE events
// published by any replica are forwarded to this replica's hub.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Services.Bus != nil {
		if err := a.Services.Bus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start SSE forwarder: %w", err)
		}
	}
	return nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Listening", "addr", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.Bus != nil {
		_ = a.Services.Bus.Close()
	}
	a.Clients.Close()
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.Log.Warn("close database failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	a.Log.Sync()
}
