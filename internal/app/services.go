package app

import (
	"github.com/yungbote/vaultvoice-backend/internal/agents"
	"github.com/yungbote/vaultvoice-backend/internal/config"
	"github.com/yungbote/vaultvoice-backend/internal/orchestrator"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
	"github.com/yungbote/vaultvoice-backend/internal/vault"
	"github.com/yungbote/vaultvoice-backend/internal/vault/adapter"
)

type Services struct {
	Vault        *vault.Service
	Orchestrator *orchestrator.Orchestrator
	// Tracker holds fire-and-forget vault writes until shutdown drains them.
	Tracker *agents.Tracker
}

func wireServices(log *logger.Logger, cfg *config.Config, clients Clients, reposet Repos) Services {
	log.Info("Wiring services...")

	vaultAdapter := adapter.New(clients.Store.Connector, log, adapter.Options{
		RootFolderName:  cfg.Store.RootFolderName,
		OpTimeout:       cfg.Store.OpTimeout.Duration,
		ConflictRetries: cfg.Store.ConflictRetries,
		Locker:          clients.Locker,
	})
	vaultService := vault.NewService(vaultAdapter, reposet.User, log, vault.Options{
		RecentRows:      cfg.Vault.RecentRows,
		KeywordRows:     cfg.Vault.KeywordRows,
		PatternSample:   cfg.Vault.PatternSample,
		MaxContextChars: cfg.Vault.MaxContextChars,
		FolderCacheSize: cfg.Vault.FolderCacheSize,
		FolderCacheTTL:  cfg.Vault.FolderCacheTTL.Duration,
		WriteTimeout:    cfg.Vault.WriteTimeout.Duration,
		ContextTimeout:  cfg.Vault.ContextTimeout.Duration,
	})

	tracker := &agents.Tracker{}
	orch := orchestrator.New(clients.Engine, agents.Deps{
		Model:      cfg.LLM.AgentModel,
		Vault:      vaultService,
		Training:   reposet.Training,
		Log:        log,
		Tracker:    tracker,
		LLMTimeout: cfg.LLM.Timeout.Duration,
	}, log, orchestrator.Options{
		RouterModel:  cfg.LLM.RouterModel,
		RouteTimeout: cfg.LLM.Timeout.Duration,
	})

	return Services{
		Vault:        vaultService,
		Orchestrator: orch,
		Tracker:      tracker,
	}
}
