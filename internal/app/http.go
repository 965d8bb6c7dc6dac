package app

import (
	"github.com/yungbote/vaultvoice-backend/internal/config"
	"github.com/yungbote/vaultvoice-backend/internal/db"
	"github.com/yungbote/vaultvoice-backend/internal/http"
	httpH "github.com/yungbote/vaultvoice-backend/internal/http/handlers"
	httpMW "github.com/yungbote/vaultvoice-backend/internal/http/middleware"
	"github.com/yungbote/vaultvoice-backend/internal/observability"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health *httpH.HealthHandler
	Turn   *httpH.TurnHandler
	Vault  *httpH.VaultHandler
	User   *httpH.UserHandler
}

func wireHandlers(log *logger.Logger, database *db.Service, services Services, reposet Repos) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(database.Ping),
		Turn:   httpH.NewTurnHandler(services.Orchestrator),
		Vault:  httpH.NewVaultHandler(services.Vault),
		User:   httpH.NewUserHandler(reposet.User),
	}
}

func wireMiddleware(log *logger.Logger, cfg *config.Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.Auth.JWTSecret, cfg.Auth.Issuer),
	}
}

func wireServer(log *logger.Logger, cfg *config.Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:             log,
		ServiceName:     cfg.OTel.ServiceName,
		CORSOrigins:     cfg.HTTP.CORSOrigins,
		MaxRequestBytes: cfg.HTTP.MaxRequestBytes,
		Metrics:         metrics,
		AuthMiddleware:  middleware.Auth,
		HealthHandler:   handlers.Health,
		TurnHandler:     handlers.Turn,
		VaultHandler:    handlers.Vault,
		UserHandler:     handlers.User,
	}, cfg.HTTP)
}
