package agents

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/vaultvoice-backend/internal/types"
	"github.com/yungbote/vaultvoice-backend/internal/vault"
)

var breathTechniques = map[string]string{
	"wimhof":             "Wim Hof",
	"whm":                "Wim Hof",
	"wimhofmethod":       "Wim Hof",
	"box":                "Box Breathing",
	"square":             "Box Breathing",
	"478":                "4-7-8",
	"coherent":           "Coherent Breathing",
	"resonance":          "Coherent Breathing",
	"resonant":           "Coherent Breathing",
	"tummo":              "Tummo",
	"alternatenostril":   "Alternate Nostril",
	"nadishodhana":       "Alternate Nostril",
	"buteyko":            "Buteyko",
	"physiologicalsigh":  "Physiological Sigh",
	"physiologicalsighs": "Physiological Sigh",
	"sigh":               "Physiological Sigh",
	"cyclicsighing":      "Physiological Sigh",
	"kapalbhati":         "Kapalbhati",
	"breathoffire":       "Kapalbhati",
	"diaphragmatic":      "Diaphragmatic",
	"belly":              "Diaphragmatic",
}

const (
	techniqueToken = `([a-z0-9][a-z0-9 .'\-]*?)(?:\s+(?:breathing|breathwork|breaths?|method))?`
	breathEnd      = `(?:\s+(?:with|and|today|this|for)\b|[.,!?]|$)`
)

// Hold patterns: clock forms ("2:30") before plain seconds, either side of
// the hold keyword.
var (
	holdClockPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:hold|held|retention)\b[^0-9]{0,20}(\d{1,2}):(\d{2})\b`),
		regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s+(?:min(?:ute)?\s+)?(?:hold|retention)\b`),
	}
	holdSecondPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:hold|held|retention)\b[^0-9]{0,20}(\d{1,3})\s*(?:s|secs?|seconds)\b`),
		regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:s|secs?|seconds?)\s+(?:hold|retention)\b`),
	}
)

var breathRules = []rule{
	{
		// "3 rounds of wim hof"
		name: "rounds_of",
		re:   regexp.MustCompile(`(?i)\b(\d{1,2})\s+rounds?\s+of\s+` + techniqueToken + breathEnd),
		build: func(m []string, message string, _ time.Time) *types.LoggingIntent {
			rounds, ok := parseInt(m[1])
			if !ok || rounds <= 0 {
				return nil
			}
			return breathIntent(m[2], rounds, 0, message)
		},
	},
	{
		// "10 minutes of box breathing"
		name: "minutes_of",
		re:   regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:min(?:ute)?s?)\s+of\s+` + techniqueToken + breathEnd),
		build: func(m []string, message string, _ time.Time) *types.LoggingIntent {
			minutes, ok := parseInt(m[1])
			if !ok || minutes <= 0 {
				return nil
			}
			return breathIntent(m[2], 0, minutes, message)
		},
	},
	{
		// "did box breathing for 10 minutes"
		name: "did_for",
		re:   regexp.MustCompile(`(?i)\b(?:did|finished|practiced|completed)\s+(?:some\s+|a\s+)?([a-z0-9][a-z0-9 .'\-]*?)\s+(?:breathing|breathwork|breaths?|session)\s+(?:for\s+)?(\d{1,3})\s*(?:min(?:ute)?s?)\b`),
		build: func(m []string, message string, _ time.Time) *types.LoggingIntent {
			minutes, ok := parseInt(m[2])
			if !ok || minutes <= 0 {
				return nil
			}
			return breathIntent(m[1], 0, minutes, message)
		},
	},
}

func breathIntent(rawTechnique string, rounds, minutes int, message string) *types.LoggingIntent {
	technique := resolveAlias(rawTechnique, breathTechniques)
	if _, known := breathTechniques[squash(rawTechnique)]; !known {
		technique = titleWords(technique)
	}
	if technique == "" {
		return nil
	}
	data := map[string]any{"technique": technique}
	if rounds > 0 {
		data["rounds"] = rounds
	}
	if minutes > 0 {
		data["minutes"] = minutes
	}
	if hold, ok := parseHold(message); ok {
		data["hold_seconds"] = hold
	}
	return newIntent("breath_session", data)
}

func parseHold(message string) (int, bool) {
	for _, re := range holdClockPatterns {
		if m := re.FindStringSubmatch(message); m != nil {
			mins, ok1 := parseInt(m[1])
			secs, ok2 := parseInt(m[2])
			if ok1 && ok2 && secs < 60 {
				return mins*60 + secs, true
			}
		}
	}
	for _, re := range holdSecondPatterns {
		if m := re.FindStringSubmatch(message); m != nil {
			return parseInt(m[1])
		}
	}
	return 0, false
}

func optionalInt(intent *types.LoggingIntent, key string) string {
	if n, ok := intent.Int(key); ok {
		return strconv.Itoa(n)
	}
	return ""
}

func breathworkAgent() Definition {
	return Definition{
		ID:     types.AgentBreathwork,
		Topics: "breathwork, breathing exercises, wim hof, box breathing, 4-7-8, breath holds, retention, calming down, stress breathing",
		Persona: "You are the VaultVoice breathwork guide. You coach techniques step by step in a calm voice, " +
			"note rounds and holds the user reports, and remind them never to practice breath holds in water or " +
			"while driving.",
		Partition: types.PartitionBreathSessions,
		Detect:    detectWith(breathRules),
		Payload: func(intent *types.LoggingIntent) (vault.Payload, bool) {
			technique := strings.TrimSpace(intent.String("technique"))
			if technique == "" {
				return nil, false
			}
			return vault.CSV{
				File: vault.FileBreathLog,
				At:   intent.DetectedAt,
				Fields: types.Row{
					field("technique", technique),
					field("rounds", optionalInt(intent, "rounds")),
					field("minutes", optionalInt(intent, "minutes")),
					field("hold_seconds", optionalInt(intent, "hold_seconds")),
				},
			}, true
		},
	}
}
