package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/vaultvoice-backend/internal/config"
	"github.com/yungbote/vaultvoice-backend/internal/db"
	"github.com/yungbote/vaultvoice-backend/internal/http"
	"github.com/yungbote/vaultvoice-backend/internal/observability"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      *config.Config
	DB       *db.Service
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *http.Server

	otelShutdown func(context.Context) error
}

// New builds the whole object graph. Callers own Close.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.OTel.ServiceName,
		Environment: cfg.Env,
		Version:     cfg.OTel.Version,
	})
	metrics := observability.Init(log)

	database, err := db.Open(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := database.AutoMigrateAll(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	clientset, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	reposet := wireRepos(database.DB(), log)
	serviceset := wireServices(log, cfg, clientset, reposet)

	if cfg.Auth.JWTSecret == "" {
		log.Warn("auth.jwt_secret is empty; every /api request will be rejected")
	}
	handlerset := wireHandlers(log, database, serviceset, reposet)
	middleware := wireMiddleware(log, cfg)
	server := wireServer(log, cfg, handlerset, middleware, metrics)

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           database,
		Clients:      clientset,
		Repos:        reposet,
		Services:     serviceset,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx ends, then shuts down within the configured
// timeout and drains fire-and-forget vault writes.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTP.Addr)
		errCh <- a.Server.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Log.Warn("http shutdown incomplete", "error", err)
	}
	return a.Drain(shutdownCtx)
}

// Drain waits for in-flight fire-and-forget writes.
func (a *App) Drain(ctx context.Context) error {
	if err := a.Services.Tracker.Wait(ctx); err != nil {
		a.Log.Warn("vault writes still in flight at shutdown", "error", err)
		return err
	}
	return nil
}

func (a *App) shutdownTimeout() time.Duration {
	if d := a.Cfg.HTTP.ShutdownTimeout.Duration; d > 0 {
		return d
	}
	return 15 * time.Second
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
