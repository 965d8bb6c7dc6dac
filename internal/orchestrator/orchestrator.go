// Package orchestrator classifies each utterance into one agent and runs the
// turn through it. It keeps no state between turns.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/vaultvoice-backend/internal/agents"
	"github.com/yungbote/vaultvoice-backend/internal/engine"
	"github.com/yungbote/vaultvoice-backend/internal/observability"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
	"github.com/yungbote/vaultvoice-backend/internal/platform/promptstyle"
	"github.com/yungbote/vaultvoice-backend/internal/types"
)

const routeMaxTokens = 8

type Result struct {
	AgentID types.AgentID `json:"agent_id"`
	Reply   string        `json:"reply"`
}

type Options struct {
	RouterModel  string
	RouteTimeout time.Duration
}

type Orchestrator struct {
	engine       engine.Engine
	routerModel  string
	routeTimeout time.Duration
	deps         agents.Deps
	instructions string
	log          *logger.Logger
	tracer       trace.Tracer
}

// New wires the router. deps is handed to every agent built for a turn.
func New(eng engine.Engine, deps agents.Deps, log *logger.Logger, opts Options) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	if deps.Engine == nil {
		deps.Engine = eng
	}
	if deps.Log == nil {
		deps.Log = log
	}
	timeout := opts.RouteTimeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Orchestrator{
		engine:       eng,
		routerModel:  opts.RouterModel,
		routeTimeout: timeout,
		deps:         deps,
		instructions: promptstyle.ApplySystem(routerInstructions(), promptstyle.Label),
		log:          log.With("service", "Orchestrator"),
		tracer:       otel.Tracer("vaultvoice/orchestrator"),
	}
}

// Route returns one agent id from the closed set. Any engine failure, empty
// answer, or unknown label yields the catch-all.
func (o *Orchestrator) Route(ctx context.Context, message string) types.AgentID {
	ctx, span := o.tracer.Start(ctx, "orchestrator.route")
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		span.SetAttributes(attribute.String("route.agent", string(agents.Fallback)))
		return agents.Fallback
	}

	ctx, cancel := context.WithTimeout(ctx, o.routeTimeout)
	defer cancel()

	out, err := o.engine.GenerateText(ctx, o.routerModel, []engine.Message{
		{Role: "system", Content: o.instructions},
		{Role: "user", Content: message},
	}, engine.GenerateOptions{Temperature: 0, MaxTokens: routeMaxTokens})
	if err != nil {
		o.log.Warn("route classification failed", "error", err)
		observability.Current().IncRouteFallback()
		span.SetAttributes(attribute.Bool("route.fallback", true))
		return agents.Fallback
	}

	id, ok := ParseAgentID(out)
	if !ok {
		o.log.Debug("route output not in closed set", "output", truncate(out, 64))
		observability.Current().IncRouteFallback()
		span.SetAttributes(attribute.Bool("route.fallback", true))
		return agents.Fallback
	}
	span.SetAttributes(attribute.String("route.agent", string(id)))
	return id
}

// Handle routes message and delegates the whole turn to a fresh agent.
func (o *Orchestrator) Handle(ctx context.Context, userID, message string, history []types.ConversationTurn) Result {
	ctx, span := o.tracer.Start(ctx, "orchestrator.handle")
	defer span.End()

	id := o.Route(ctx, message)
	span.SetAttributes(attribute.String("agent.id", string(id)))

	agent := agents.New(id, o.deps)
	observability.Current().IncTurn(string(agent.ID()))
	reply := agent.GenerateResponse(ctx, userID, message, history)
	if strings.TrimSpace(reply) == "" {
		reply = agents.FallbackReply
	}
	if reply == agents.FallbackReply {
		observability.Current().IncReplyFallback(string(agent.ID()))
	}
	return Result{AgentID: agent.ID(), Reply: reply}
}

// ParseAgentID normalizes a model label ("Sales.", "`fitness`") and checks it
// against the closed set.
func ParseAgentID(raw string) (types.AgentID, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	}
	s = strings.Trim(s, " \t\r\n.,;:!?\"'`*()[]{}<>")
	s = strings.TrimPrefix(s, "agent=")
	id := types.AgentID(s)
	if !agents.Has(id) {
		return "", false
	}
	return id, true
}

func routerInstructions() string {
	lines := []string{
		"You route a user's message to exactly one specialist.",
		"Reply with the specialist id only, lower-case, no punctuation.",
		"",
		"Specialists:",
	}
	for _, id := range agents.IDs() {
		def, _ := agents.Lookup(id)
		lines = append(lines, "- "+string(id)+": "+def.Topics)
	}
	lines = append(lines, "", "If unsure, choose "+string(agents.Fallback)+".")
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
