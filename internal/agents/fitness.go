package agents

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/vaultvoice-backend/internal/types"
	"github.com/yungbote/vaultvoice-backend/internal/vault"
)

const weightUnit = `(lbs?|pounds?|kgs?|kilos?|kilograms?)?`

var fitnessRules = []rule{
	{
		// "3 sets of 10 squats at 225 lbs", "4 sets of bench at 185"
		name:  "sets_of",
		re:    regexp.MustCompile(`(?i)\b(\d{1,2})\s+sets?\s+of\s+(?:(\d{1,3})\s+(?:reps?\s+(?:of\s+)?)?)?([a-z][a-z \-]*?)\s+(?:at|with|@)\s+(\d+(?:\.\d+)?)\s*` + weightUnit + `\b`),
		build: buildSets,
	},
	{
		// "3x10 bench at 185"
		name:  "sets_by_reps",
		re:    regexp.MustCompile(`(?i)\b(\d{1,2})\s*[x×]\s*(\d{1,3})\s+([a-z][a-z \-]*?)\s+(?:at|with|@)\s+(\d+(?:\.\d+)?)\s*` + weightUnit + `\b`),
		build: buildSets,
	},
	{
		name:  "did_session",
		re:    regexp.MustCompile(`(?i)\b(?:did|finished|completed|went\s+for|just\s+did)\s+(?:a\s+|an\s+|my\s+|some\s+)?(.{3,}?)\s*(?:[.!?]|$)`),
		build: buildSession,
	},
}

func buildSets(m []string, _ string, _ time.Time) *types.LoggingIntent {
	sets, ok := parseInt(m[1])
	if !ok || sets <= 0 {
		return nil
	}
	var reps int
	if m[2] != "" {
		if reps, ok = parseInt(m[2]); !ok || reps <= 0 {
			return nil
		}
	}
	exercise := strings.ToLower(cleanPhrase(strings.TrimSuffix(strings.TrimSpace(m[3]), " reps")))
	if exercise == "" {
		return nil
	}
	weight, ok := parseFloat(m[4])
	if !ok || weight <= 0 {
		return nil
	}
	data := map[string]any{
		"exercise": exercise,
		"sets":     sets,
		"weight":   weight,
		"unit":     normalizeWeightUnit(m[5]),
	}
	if reps > 0 {
		data["reps"] = reps
	}
	return newIntent("strength_sets", data)
}

func buildSession(m []string, _ string, _ time.Time) *types.LoggingIntent {
	activity := cleanPhrase(m[1])
	if len(activity) < 3 {
		return nil
	}
	return newIntent("session_note", map[string]any{"activity": activity})
}

func normalizeWeightUnit(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	if strings.HasPrefix(u, "k") {
		return "kg"
	}
	return "lbs"
}

func fitnessPayload(intent *types.LoggingIntent) (vault.Payload, bool) {
	switch intent.Type {
	case "strength_sets":
		sets, ok := intent.Int("sets")
		weight, wok := intent.Float("weight")
		if !ok || !wok {
			return nil, false
		}
		var reps string
		if n, ok := intent.Int("reps"); ok {
			reps = strconv.Itoa(n)
		}
		return vault.CSV{
			File: vault.FileWorkoutLog,
			At:   intent.DetectedAt,
			Fields: types.Row{
				field("exercise", intent.String("exercise")),
				field("sets", strconv.Itoa(sets)),
				field("reps", reps),
				field("weight", formatNumber(weight)),
				field("unit", intent.String("unit")),
			},
		}, true
	case "session_note":
		at := intent.DetectedAt
		day := dayStamp(at)
		return vault.Markdown{
			File:    "workout-" + day + ".md",
			Header:  docHeader("Workout Log", at, ""),
			Content: "## " + at.Format("15:04") + "\n" + intent.String("activity"),
			Mode:    vault.DocAppend,
		}, true
	}
	return nil, false
}

func fitnessAgent() Definition {
	return Definition{
		ID:     types.AgentFitness,
		Topics: "workouts, lifting, sets, reps, weights, running, cardio, training plans, exercise form, recovery",
		Persona: "You are the VaultVoice strength and conditioning coach. You log sets and sessions the user " +
			"reports, comment on volume and progression using their history, and suggest one concrete next step. " +
			"Flag pain as a reason to stop and see a professional.",
		Partition:   types.PartitionWorkouts,
		Acknowledge: true,
		Detect:      detectWith(fitnessRules),
		Payload:     fitnessPayload,
		Describe: func(intent *types.LoggingIntent) string {
			if intent.Type == "session_note" {
				return "workout note (" + intent.String("activity") + ")"
			}
			return intent.String("sets") + " sets of " + intent.String("exercise") + " at " +
				intent.String("weight") + " " + intent.String("unit")
		},
	}
}
