package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/vaultvoice-backend/internal/config"
	"github.com/yungbote/vaultvoice-backend/internal/engine"
	"github.com/yungbote/vaultvoice-backend/internal/engine/mock"
	"github.com/yungbote/vaultvoice-backend/internal/engine/oaihttp"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
	"github.com/yungbote/vaultvoice-backend/internal/vault/adapter"
)

type Clients struct {
	Engine engine.Engine
	Store  *storeProvider
	Redis  *goredis.Client
	Locker adapter.Locker
}

func wireClients(ctx context.Context, log *logger.Logger, cfg *config.Config) (Clients, error) {
	log.Info("Wiring clients...")

	eng, err := newEngine(cfg.LLM)
	if err != nil {
		return Clients{}, fmt.Errorf("init llm engine: %w", err)
	}
	log.Info("LLM engine selected", "type", cfg.LLM.Type, "router_model", cfg.LLM.RouterModel, "agent_model", cfg.LLM.AgentModel)

	provider, err := resolveStoreConnector(ctx, log, cfg.Store)
	if err != nil {
		return Clients{}, err
	}

	// Redis
	var (
		rdb    *goredis.Client
		locker adapter.Locker
	)
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rdb, err = adapter.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			_ = provider.Close()
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		locker = adapter.NewRedisLocker(rdb, log, cfg.Redis.LockTTL.Duration)
	}

	return Clients{
		Engine: eng,
		Store:  provider,
		Redis:  rdb,
		Locker: locker,
	}, nil
}

func newEngine(cfg config.LLMConfig) (engine.Engine, error) {
	switch cfg.Type {
	case "oai_http":
		return oaihttp.New(cfg)
	case "mock", "":
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown llm type %q", cfg.Type)
	}
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}
