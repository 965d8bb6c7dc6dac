package agents

import (
	"math"
	"regexp"
	"time"

	"github.com/yungbote/vaultvoice-backend/internal/types"
	"github.com/yungbote/vaultvoice-backend/internal/vault"
)

var sleepQuality = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:/|out\s+of)\s*10\b`)

var sleepRules = []rule{
	{
		// "slept 7 hours and 30 minutes", "got about 6.5 hrs"
		name:  "slept_hours",
		re:    regexp.MustCompile(`(?i)\b(?:slept|sleep|got)\s+(?:for\s+)?(?:about\s+|around\s+|like\s+|only\s+|roughly\s+)?(\d{1,2}(?:\.\d+)?)\s*(?:hours?|hrs?|h)\b(?:\s+and\s+(?:a\s+)?(\d{1,2})\s*(?:minutes?|mins?))?`),
		build: buildSleep,
	},
	{
		// "8 hours of sleep last night"
		name:  "hours_of_sleep",
		re:    regexp.MustCompile(`(?i)\b(\d{1,2}(?:\.\d+)?)\s*(?:hours?|hrs?)\s+(?:and\s+(\d{1,2})\s*(?:minutes?|mins?)\s+)?(?:of\s+)?sleep\b`),
		build: buildSleep,
	},
}

func buildSleep(m []string, message string, _ time.Time) *types.LoggingIntent {
	hours, ok := parseFloat(m[1])
	if !ok {
		return nil
	}
	if m[2] != "" {
		mins, ok := parseInt(m[2])
		if !ok || mins >= 60 {
			return nil
		}
		hours += float64(mins) / 60
	}
	if hours <= 0 || hours > 24 {
		return nil
	}
	data := map[string]any{"hours": math.Round(hours*100) / 100}
	if q := sleepQuality.FindStringSubmatch(message); q != nil {
		quality, ok := parseInt(q[1])
		if !ok || quality > 10 {
			return nil
		}
		data["quality"] = quality
	}
	return newIntent("sleep", data)
}

func sleepAgent() Definition {
	return Definition{
		ID:     types.AgentSleep,
		Topics: "sleep, hours slept, bedtime, waking up, insomnia, naps, sleep quality, tiredness in the morning",
		Persona: "You are the VaultVoice sleep coach. You log the sleep the user reports, look for patterns in " +
			"duration and quality, and offer one practical habit at a time (light, caffeine timing, consistent " +
			"wake time). Persistent insomnia or snoring with gasping is a reason to see a doctor.",
		Partition:   types.PartitionSleep,
		Acknowledge: true,
		Detect:      detectWith(sleepRules),
		Payload: func(intent *types.LoggingIntent) (vault.Payload, bool) {
			hours, ok := intent.Float("hours")
			if !ok {
				return nil, false
			}
			return vault.CSV{
				File: vault.FileSleepLog,
				At:   intent.DetectedAt,
				Fields: types.Row{
					field("hours", formatNumber(hours)),
					field("quality", optionalInt(intent, "quality")),
				},
			}, true
		},
		Describe: func(intent *types.LoggingIntent) string {
			return intent.String("hours") + " hours of sleep"
		},
	}
}
