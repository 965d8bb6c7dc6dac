package agents

import (
	"regexp"
	"strconv"
	"time"

	"github.com/yungbote/vaultvoice-backend/internal/types"
	"github.com/yungbote/vaultvoice-backend/internal/vault"
)

var backwardSpan = regexp.MustCompile(`(?i)\b(?:backwards?|reverse|reversed)\b`)

var memoryRules = []rule{
	{
		// "got 85% on 3 back"
		name:  "accuracy_on_level",
		re:    regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:%|percent)?\s*(?:accuracy\s+)?(?:on|at|in|for|with)\s+(?:a\s+)?(?:dual\s+)?(?:level\s+)?(\d{1,3})[\s\-]?back\b`),
		build: buildNBack,
	},
	{
		// "3 back at 85%", "dual 4-back with 72 percent"
		name:  "level_then_accuracy",
		re:    regexp.MustCompile(`(?i)\b(?:dual\s+)?(?:level\s+)?(\d{1,3})[\s\-]?back\b\D{0,24}?(\d{1,3})\s*(?:%|percent)`),
		build: buildNBack,
	},
	{
		// "n-back level 4 score 90"
		name:  "nback_two_numbers",
		re:    regexp.MustCompile(`(?i)\bn[\s\-]?back\b\D{0,20}?(\d{1,3})\D{1,20}?(\d{1,3})\b`),
		build: buildNBack,
	},
	{
		name:  "digit_span",
		re:    regexp.MustCompile(`(?i)\bdigit[\s\-]?span\b\D{0,30}?(\d{1,2})\b`),
		build: buildDigitSpan,
	},
	{
		name:  "remembered_digits",
		re:    regexp.MustCompile(`(?i)\b(?:remembered|recalled|repeated)\s+(\d{1,2})\s+(?:digits?|numbers?)\b`),
		build: buildDigitSpan,
	},
}

// buildNBack tells the two numbers apart by magnitude: accuracy is the one
// above 10, the level is the other and must sit in 1..9.
func buildNBack(m []string, _ string, _ time.Time) *types.LoggingIntent {
	a, ok1 := parseInt(m[1])
	b, ok2 := parseInt(m[2])
	if !ok1 || !ok2 {
		return nil
	}
	var level, accuracy int
	switch {
	case a > 10 && b <= 10:
		accuracy, level = a, b
	case b > 10 && a <= 10:
		accuracy, level = b, a
	default:
		return nil
	}
	if level < 1 || level > 9 || accuracy > 100 {
		return nil
	}
	return newIntent("nback", map[string]any{"n_level": level, "accuracy": accuracy})
}

func buildDigitSpan(m []string, message string, _ time.Time) *types.LoggingIntent {
	span, ok := parseInt(m[1])
	if !ok || span < 2 || span > 20 {
		return nil
	}
	direction := "forward"
	if backwardSpan.MatchString(message) {
		direction = "backward"
	}
	return newIntent("digit_span", map[string]any{"span": span, "direction": direction})
}

func memoryPayload(intent *types.LoggingIntent) (vault.Payload, bool) {
	switch intent.Type {
	case "nback":
		level, ok1 := intent.Int("n_level")
		acc, ok2 := intent.Int("accuracy")
		if !ok1 || !ok2 {
			return nil, false
		}
		return vault.CSV{
			File: vault.FileNBackLog,
			At:   intent.DetectedAt,
			Fields: types.Row{
				field("n_level", strconv.Itoa(level)),
				field("accuracy", strconv.Itoa(acc)),
			},
		}, true
	case "digit_span":
		span, ok := intent.Int("span")
		if !ok {
			return nil, false
		}
		return vault.CSV{
			File: vault.FileDigitSpanLog,
			At:   intent.DetectedAt,
			Fields: types.Row{
				field("span", strconv.Itoa(span)),
				field("direction", intent.String("direction")),
			},
		}, true
	}
	return nil, false
}

func memoryAgent() Definition {
	return Definition{
		ID:     types.AgentMemory,
		Topics: "memory training, n-back, dual n-back, digit span, working memory, recall drills, brain training scores",
		Persona: "You are the VaultVoice memory training coach. You track n-back and digit span results, explain " +
			"when to level up (consistently above 80 percent) or step down (below 50 percent), and keep the user " +
			"motivated with their own progress.",
		Partition:   types.PartitionMemoryTraining,
		Acknowledge: true,
		Detect:      detectWith(memoryRules),
		Payload:     memoryPayload,
		Describe: func(intent *types.LoggingIntent) string {
			if intent.Type == "digit_span" {
				return intent.String("direction") + " digit span of " + intent.String("span")
			}
			return intent.String("n_level") + "-back at " + intent.String("accuracy") + "%"
		},
	}
}
