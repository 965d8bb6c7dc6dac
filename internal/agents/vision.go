package agents

import (
	"regexp"
	"time"

	"github.com/yungbote/vaultvoice-backend/internal/types"
	"github.com/yungbote/vaultvoice-backend/internal/vault"
)

var visionExercises = map[string]string{
	"palming":          "Palming",
	"pencilpushups":    "Pencil Push-ups",
	"pencilpushup":     "Pencil Push-ups",
	"brockstring":      "Brock String",
	"brock":            "Brock String",
	"nearfar":          "Near-Far Focus",
	"nearandfar":       "Near-Far Focus",
	"nearfarfocus":     "Near-Far Focus",
	"focusshifting":    "Near-Far Focus",
	"saccades":         "Saccades",
	"saccade":          "Saccades",
	"eyechart":         "Eye Chart",
	"snellen":          "Eye Chart",
	"convergence":      "Convergence",
	"figure8":          "Figure Eights",
	"figure8s":         "Figure Eights",
	"figureeight":      "Figure Eights",
	"figureeights":     "Figure Eights",
	"blinking":         "Blinking",
	"sunning":          "Sunning",
	"eyetracking":      "Eye Tracking",
	"tracking":         "Eye Tracking",
	"peripheral":       "Peripheral Awareness",
	"peripheralvision": "Peripheral Awareness",
}

var acuityRe = regexp.MustCompile(`\b20\s*/\s*(\d{1,3})\b`)

const visionEnd = `(?:\s+(?:exercises?|drills?|training|practice))?(?:[.,!?]|\s+(?:and|with|today|this|then)\b|$)`

var visionRules = []rule{
	{
		// "15 minutes of palming"
		name: "minutes_of",
		re:   regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:min(?:ute)?s?)\s+(?:of\s+)?([a-z][a-z0-9 \-]*?)` + visionEnd),
		build: func(m []string, message string, _ time.Time) *types.LoggingIntent {
			minutes, ok := parseInt(m[1])
			if !ok || minutes <= 0 {
				return nil
			}
			return visionIntent(m[2], minutes, message)
		},
	},
	{
		// "did pencil push ups for 10 minutes"
		name: "did_for",
		re:   regexp.MustCompile(`(?i)\b(?:did|practiced|finished|completed)\s+(?:some\s+|my\s+)?([a-z][a-z0-9 \-]*?)\s+(?:exercises?\s+|drills?\s+)?(?:for\s+)?(\d{1,3})\s*(?:min(?:ute)?s?)\b`),
		build: func(m []string, message string, _ time.Time) *types.LoggingIntent {
			minutes, ok := parseInt(m[2])
			if !ok || minutes <= 0 {
				return nil
			}
			return visionIntent(m[1], minutes, message)
		},
	},
	{
		// "read 20/30 on the eye chart"
		name: "acuity_only",
		re:   regexp.MustCompile(`(?i)\b(?:read|scored|measured|acuity|vision|got)\b.*?\b20\s*/\s*\d{1,3}\b`),
		build: func(_ []string, message string, _ time.Time) *types.LoggingIntent {
			return visionIntent("eye chart", 0, message)
		},
	},
}

func visionIntent(rawExercise string, minutes int, message string) *types.LoggingIntent {
	exercise := resolveAlias(rawExercise, visionExercises)
	if _, known := visionExercises[squash(rawExercise)]; !known {
		exercise = titleWords(exercise)
	}
	if exercise == "" {
		return nil
	}
	data := map[string]any{"exercise": exercise}
	if minutes > 0 {
		data["minutes"] = minutes
	}
	if a := acuityRe.FindStringSubmatch(message); a != nil {
		denom, ok := parseInt(a[1])
		if !ok || denom <= 0 {
			return nil
		}
		data["acuity"] = "20/" + a[1]
	}
	if minutes == 0 && data["acuity"] == nil {
		return nil
	}
	return newIntent("vision_session", data)
}

func visionAgent() Definition {
	return Definition{
		ID:     types.AgentVision,
		Topics: "vision training, eye exercises, palming, pencil push-ups, brock string, focus, eye strain, eye chart, 20/20 acuity",
		Persona: "You are the VaultVoice vision training coach. You guide eye exercises, track minutes and acuity " +
			"readings the user reports, and encourage steady daily practice. Sudden vision changes are a reason " +
			"to see an eye doctor, not to train harder.",
		Partition:   types.PartitionVisionTraining,
		Acknowledge: true,
		Detect:      detectWith(visionRules),
		Payload: func(intent *types.LoggingIntent) (vault.Payload, bool) {
			if intent.String("exercise") == "" {
				return nil, false
			}
			return vault.CSV{
				File: vault.FileVisionTrainingLog,
				At:   intent.DetectedAt,
				Fields: types.Row{
					field("exercise", intent.String("exercise")),
					field("minutes", optionalInt(intent, "minutes")),
					field("acuity", intent.String("acuity")),
				},
			}, true
		},
		Describe: func(intent *types.LoggingIntent) string {
			if m := optionalInt(intent, "minutes"); m != "" {
				return m + " minutes of " + intent.String("exercise")
			}
			return "acuity reading " + intent.String("acuity")
		},
	}
}
