package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/vaultvoice-backend/internal/http/handlers"
	httpMW "github.com/yungbote/vaultvoice-backend/internal/http/middleware"
	"github.com/yungbote/vaultvoice-backend/internal/observability"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	ServiceName     string
	CORSOrigins     []string
	MaxRequestBytes int64
	Metrics         *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware
	HealthHandler  *httpH.HealthHandler
	TurnHandler    *httpH.TurnHandler
	VaultHandler   *httpH.VaultHandler
	UserHandler    *httpH.UserHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "vaultvoice"
	}
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	if len(cfg.CORSOrigins) == 0 && cfg.Log != nil {
		cfg.Log.Warn("no CORS origins configured; browser clients on other origins will be blocked")
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.LimitRequestBody(cfg.MaxRequestBytes))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Turns
		if cfg.TurnHandler != nil {
			api.POST("/turn", cfg.TurnHandler.Turn)
			api.POST("/route", cfg.TurnHandler.Route)
		}

		// Vault
		if cfg.VaultHandler != nil {
			api.POST("/vault/provision", cfg.VaultHandler.Provision)
			api.GET("/vault/context", cfg.VaultHandler.Context)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			api.GET("/me", cfg.UserHandler.GetMe)
			api.PUT("/me", cfg.UserHandler.PutMe)
		}
	}

	return r
}
