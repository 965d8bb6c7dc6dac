package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/vaultvoice-backend/internal/engine"
)

// Engine is a deterministic offline engine. Zero-temperature calls with a
// tiny token budget are treated as routing and answered from Routes by
// keyword; everything else echoes the last user message.
type Engine struct {
	Routes map[string]string
}

func New() *Engine {
	return &Engine{Routes: map[string]string{
		"price":     "sales",
		"pricing":   "sales",
		"subscribe": "sales",
		"peptide":   "peptides",
		"mcg":       "peptides",
		"ate":       "nutrition",
		"calories":  "nutrition",
		"sets":      "fitness",
		"workout":   "fitness",
		"breath":    "breathwork",
		"journal":   "journal",
		"vision":    "vision",
		"back":      "memory",
		"slept":     "sleep",
	}}
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_ = model

	var user string
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(messages[i].Role, "user") {
			user = messages[i].Content
			break
		}
	}

	if opts.Temperature == 0 && opts.MaxTokens > 0 && opts.MaxTokens <= 16 {
		lower := strings.ToLower(user)
		for _, word := range strings.Fields(lower) {
			if id, ok := e.Routes[strings.Trim(word, ".,!?")]; ok {
				return id, nil
			}
		}
		return "general", nil
	}

	if strings.TrimSpace(user) == "" {
		return "mock: ok", nil
	}
	return fmt.Sprintf("mock: %s", user), nil
}
