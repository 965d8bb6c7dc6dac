package agents

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/vaultvoice-backend/internal/types"
	"github.com/yungbote/vaultvoice-backend/internal/vault"
)

var (
	mealKeyword  = regexp.MustCompile(`(?i)\b(breakfast|brunch|lunch|dinner|supper|snack)\b`)
	caloriesRe   = regexp.MustCompile(`(?i)\b(\d{2,5})\s*(?:k?cals?|calories)\b`)
	proteinRe    = regexp.MustCompile(`(?i)\b(\d{1,3})\s*g(?:rams?)?\s+(?:of\s+)?protein\b`)
	mealTrailers = regexp.MustCompile(`(?i)\s+(?:for|at|as)\s+(?:my\s+|a\s+)?(?:breakfast|brunch|lunch|dinner|supper|snack)\b.*$`)
	nutritionCut = regexp.MustCompile(`(?i)(?:\s*(?:,|\bwith\b|\babout\b|\baround\b|\bat\b))*\s*\b\d{2,5}\s*(?:k?cals?|calories)\b.*$`)
)

var nutritionRules = []rule{
	{
		name:  "ate_food",
		re:    regexp.MustCompile(`(?i)\b(?:ate|eaten|eating|finished)\s+(?:a\s+|an\s+|some\s+|my\s+)?(.+?)\s*(?:[.!?]|$)`),
		build: buildMeal,
	},
	{
		// "had" and "grabbed" take any object, so they need a meal word or a
		// macro in the same utterance.
		name:  "had_food",
		re:    regexp.MustCompile(`(?i)\b(?:had|grabbed)\s+(?:a\s+|an\s+|some\s+|my\s+)?(.+?)\s*(?:[.!?]|$)`),
		build: buildHadMeal,
	},
	{
		name:  "meal_was",
		re:    regexp.MustCompile(`(?i)\b(?:breakfast|brunch|lunch|dinner|supper|snack)\s+(?:was|is|:)\s+(.+?)\s*(?:[.!?]|$)`),
		build: buildMeal,
	},
	{
		name:  "calories_only",
		re:    regexp.MustCompile(`(?i)\b(?:log(?:ged)?|ate|had|consumed)\b.*?\b\d{2,5}\s*(?:k?cals?|calories)\b()`),
		build: buildMeal,
	},
}

var notFood = map[string]bool{
	"question": true, "questions": true, "idea": true, "call": true, "talk": true,
	"day": true, "chat": true, "meeting": true, "thought": true, "feeling": true,
	"problem": true, "look": true, "time": true, "session": true, "workout": true,
}

func buildHadMeal(m []string, message string, now time.Time) *types.LoggingIntent {
	words := strings.Fields(strings.ToLower(m[1]))
	if len(words) == 0 || notFood[strings.Trim(words[0], ".,!?")] {
		return nil
	}
	if !mealKeyword.MatchString(message) && !caloriesRe.MatchString(message) && !proteinRe.MatchString(message) {
		return nil
	}
	return buildMeal(m, message, now)
}

func buildMeal(m []string, message string, now time.Time) *types.LoggingIntent {
	desc := mealTrailers.ReplaceAllString(m[1], "")
	desc = cleanPhrase(nutritionCut.ReplaceAllString(desc, ""))

	data := map[string]any{
		"meal_type":   mealType(message, now),
		"description": desc,
	}
	if c := caloriesRe.FindStringSubmatch(message); c != nil {
		n, ok := parseInt(c[1])
		if !ok {
			return nil
		}
		data["calories"] = n
	}
	if p := proteinRe.FindStringSubmatch(message); p != nil {
		n, ok := parseInt(p[1])
		if !ok {
			return nil
		}
		data["protein_g"] = n
	}
	if desc == "" && data["calories"] == nil {
		return nil
	}
	return newIntent("meal", data)
}

// mealType prefers an explicit meal word, then buckets the local hour.
func mealType(message string, now time.Time) string {
	if m := mealKeyword.FindStringSubmatch(message); m != nil {
		switch strings.ToLower(m[1]) {
		case "brunch":
			return "lunch"
		case "supper":
			return "dinner"
		default:
			return strings.ToLower(m[1])
		}
	}
	h := now.Hour()
	switch {
	case h >= 5 && h < 11:
		return "breakfast"
	case h >= 11 && h < 15:
		return "lunch"
	case h >= 17 && h < 21:
		return "dinner"
	default:
		return "snack"
	}
}

func nutritionAgent() Definition {
	return Definition{
		ID:     types.AgentNutrition,
		Topics: "food, meals, what the user ate, breakfast/lunch/dinner/snacks, calories, protein, macros, diet, hydration",
		Persona: "You are the VaultVoice nutrition coach. You log meals the user mentions, give practical feedback " +
			"on protein, fiber, and balance, and relate today's meal to their recent pattern when history is " +
			"available. Do not moralize about food.",
		Partition:   types.PartitionNutrition,
		Acknowledge: true,
		Detect:      detectWith(nutritionRules),
		Payload: func(intent *types.LoggingIntent) (vault.Payload, bool) {
			var calories, protein string
			if n, ok := intent.Int("calories"); ok {
				calories = strconv.Itoa(n)
			}
			if n, ok := intent.Int("protein_g"); ok {
				protein = strconv.Itoa(n)
			}
			return vault.CSV{
				File: vault.FileNutritionLog,
				At:   intent.DetectedAt,
				Fields: types.Row{
					field("meal_type", intent.String("meal_type")),
					field("description", intent.String("description")),
					field("calories", calories),
					field("protein_g", protein),
				},
			}, true
		},
		Describe: func(intent *types.LoggingIntent) string {
			if d := intent.String("description"); d != "" {
				return intent.String("meal_type") + " (" + d + ")"
			}
			return intent.String("meal_type")
		},
	}
}
