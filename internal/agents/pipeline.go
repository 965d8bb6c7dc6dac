package agents

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/vaultvoice-backend/internal/engine"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
	"github.com/yungbote/vaultvoice-backend/internal/platform/promptstyle"
	"github.com/yungbote/vaultvoice-backend/internal/types"
	"github.com/yungbote/vaultvoice-backend/internal/vault"
)

const (
	FallbackReply       = "Sorry, I'm having trouble answering right now. Please try again in a moment."
	fallbackLoggedReply = "I saved that to your vault, but I'm having trouble answering right now. Please try again in a moment."

	defaultMaxTokens = 160
	replyTemperature = 0.6
	maxHistoryTurns  = 12
)

// Definition is one agent as plain configuration.
type Definition struct {
	ID types.AgentID
	// Topics is what the router shows for this agent.
	Topics  string
	Persona string
	// Partition is empty for agents that never log.
	Partition types.Partition
	// Acknowledge makes the write synchronous so the reply can mention it.
	Acknowledge bool
	Detect      func(message string, now time.Time) *types.LoggingIntent
	Payload     func(intent *types.LoggingIntent) (vault.Payload, bool)
	// Describe renders an intent for the logging outcome note.
	Describe  func(intent *types.LoggingIntent) string
	MaxTokens int
}

type pipelineAgent struct {
	def    Definition
	deps   Deps
	log    *logger.Logger
	tracer trace.Tracer
}

func newPipelineAgent(def Definition, deps Deps) *pipelineAgent {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &pipelineAgent{
		def:    def,
		deps:   deps,
		log:    log.With("agent", string(def.ID)),
		tracer: otel.Tracer("vaultvoice/agents"),
	}
}

func (a *pipelineAgent) ID() types.AgentID { return a.def.ID }

func (a *pipelineAgent) VaultPartition() (types.Partition, bool) {
	return a.def.Partition, a.def.Partition != ""
}

func (a *pipelineAgent) DetectLoggingIntent(message string, now time.Time) *types.LoggingIntent {
	if a.def.Detect == nil || a.def.Partition == "" {
		return nil
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	intent := a.def.Detect(message, now)
	if intent != nil && intent.DetectedAt.IsZero() {
		intent.DetectedAt = now
	}
	return intent
}

func (a *pipelineAgent) HandleLogging(ctx context.Context, userID string, intent *types.LoggingIntent) bool {
	if intent == nil || a.def.Partition == "" || a.def.Payload == nil || a.deps.Vault == nil {
		return false
	}
	payload, ok := a.def.Payload(intent)
	if !ok {
		a.log.Debug("logging intent produced no payload", "type", intent.Type)
		return false
	}
	return a.deps.Vault.Write(ctx, userID, a.def.Partition, payload)
}

func (a *pipelineAgent) GenerateResponse(ctx context.Context, userID, message string, history []types.ConversationTurn) string {
	ctx, span := a.tracer.Start(ctx, "agent.generate", trace.WithAttributes(
		attribute.String("agent.id", string(a.def.ID)),
	))
	defer span.End()

	var vaultContext string
	now := a.deps.Now()
	if a.def.Partition != "" && a.deps.Vault != nil {
		vaultContext = a.deps.Vault.BuildContext(ctx, userID, a.def.Partition, message)
		now = now.In(a.deps.Vault.UserLocation(ctx, userID))
	}

	training := a.loadTraining(ctx)

	var (
		note   string
		logged bool
	)
	if intent := a.DetectLoggingIntent(message, now); intent != nil {
		span.SetAttributes(attribute.String("agent.intent", intent.Type))
		if a.def.Acknowledge {
			logged = a.HandleLogging(ctx, userID, intent)
			note = a.outcomeNote(intent, logged)
			span.SetAttributes(attribute.Bool("agent.logged", logged))
		} else {
			detached := context.WithoutCancel(ctx)
			a.deps.Tracker.Go(func() {
				if !a.HandleLogging(detached, userID, intent) {
					a.log.Debug("background log not written", "type", intent.Type)
				}
			})
		}
	}

	messages := a.buildMessages(message, history, vaultContext, training, note)

	genCtx := ctx
	if a.deps.LLMTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, a.deps.LLMTimeout)
		defer cancel()
	}
	maxTokens := a.def.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	reply, err := a.deps.Engine.GenerateText(genCtx, a.deps.Model, messages, engine.GenerateOptions{
		Temperature: replyTemperature,
		MaxTokens:   maxTokens,
	})
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		a.log.Warn("reply generation failed", "error", err, "empty", reply == "")
		span.SetAttributes(attribute.Bool("agent.fallback", true))
		if logged {
			return fallbackLoggedReply
		}
		return FallbackReply
	}
	return reply
}

func (a *pipelineAgent) loadTraining(ctx context.Context) string {
	if a.deps.Training == nil {
		return ""
	}
	text, err := a.deps.Training.GetByAgent(ctx, nil, a.def.ID)
	if err != nil {
		a.log.Debug("training override unavailable", "error", err)
		return ""
	}
	return strings.TrimSpace(text)
}

func (a *pipelineAgent) outcomeNote(intent *types.LoggingIntent, ok bool) string {
	what := intent.Type
	if a.def.Describe != nil {
		if d := strings.TrimSpace(a.def.Describe(intent)); d != "" {
			what = d
		}
	}
	if ok {
		return "LOGGING: " + what + " was saved to the user's vault. Confirm it in a few words."
	}
	return "LOGGING: saving " + what + " to the user's vault did not succeed. Do not say it was logged; " +
		"suggest connecting the vault or trying again later."
}

func (a *pipelineAgent) buildMessages(message string, history []types.ConversationTurn, vaultContext, training, note string) []engine.Message {
	system := []string{strings.TrimSpace(a.def.Persona)}
	if vaultContext != "" {
		system = append(system, "", "USER_VAULT_CONTEXT:", vaultContext)
	}
	if training != "" {
		system = append(system, "", "OPERATOR_GUIDANCE:", training)
	}
	if note != "" {
		system = append(system, "", note)
	}

	prompt := promptstyle.ApplySystem(strings.Join(system, "\n"), promptstyle.Spoken)
	out := []engine.Message{{Role: "system", Content: prompt}}
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	for _, turn := range history {
		role := strings.ToLower(strings.TrimSpace(turn.Role))
		if role != "user" && role != "assistant" {
			continue
		}
		if content := strings.TrimSpace(turn.Content); content != "" {
			out = append(out, engine.Message{Role: role, Content: content})
		}
	}
	return append(out, engine.Message{Role: "user", Content: message})
}
