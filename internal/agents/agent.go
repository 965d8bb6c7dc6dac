// Package agents holds the domain specialists. Every agent is a Definition
// (persona, partition, ordered extraction rules, payload mapping) driven by
// one shared turn pipeline.
package agents

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/vaultvoice-backend/internal/engine"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
	"github.com/yungbote/vaultvoice-backend/internal/types"
	"github.com/yungbote/vaultvoice-backend/internal/vault"
)

type Agent interface {
	ID() types.AgentID
	// GenerateResponse always returns a non-empty reply.
	GenerateResponse(ctx context.Context, userID, message string, history []types.ConversationTurn) string
	// VaultPartition reports false for agents that never log.
	VaultPartition() (types.Partition, bool)
	// DetectLoggingIntent parses message as of now (the user's local time).
	DetectLoggingIntent(message string, now time.Time) *types.LoggingIntent
	HandleLogging(ctx context.Context, userID string, intent *types.LoggingIntent) bool
}

// Vault is the slice of the vault service agents use.
type Vault interface {
	Write(ctx context.Context, userID string, partition types.Partition, payload vault.Payload) bool
	BuildContext(ctx context.Context, userID string, partition types.Partition, query string) string
	UserLocation(ctx context.Context, userID string) *time.Location
}

type TrainingSource interface {
	GetByAgent(ctx context.Context, tx *gorm.DB, agentID types.AgentID) (string, error)
}

type Deps struct {
	Engine   engine.Engine
	Model    string
	Vault    Vault
	Training TrainingSource
	Log      *logger.Logger
	Now      func() time.Time
	Tracker  *Tracker
	// LLMTimeout bounds the reply call. Zero leaves ctx as is.
	LLMTimeout time.Duration
}

// Tracker counts fire-and-forget writes so shutdown can drain them.
type Tracker struct {
	wg sync.WaitGroup
}

func (t *Tracker) Go(fn func()) {
	if t == nil {
		go fn()
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		fn()
	}()
}

// Wait blocks until tracked work finishes or ctx ends.
func (t *Tracker) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
