package agents

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/vaultvoice-backend/internal/types"
	"github.com/yungbote/vaultvoice-backend/internal/vault"
)

// journalMinChars is the length above which any utterance is worth keeping.
const journalMinChars = 40

type moodBucket struct {
	label string
	words *regexp.Regexp
}

// Scanned in order; the first bucket with a hit names the mood.
var moodBuckets = []moodBucket{
	{"positive", regexp.MustCompile(`(?i)\b(grateful|thankful|happy|great|good|excited|proud|calm|peaceful|energized|joy(?:ful)?|amazing|hopeful|relaxed|content|loved)\b`)},
	{"negative", regexp.MustCompile(`(?i)\b(sad|angry|anxious|stressed|tired|exhausted|frustrated|upset|depressed|lonely|overwhelmed|worried|awful|terrible|scared)\b`)},
	{"neutral", regexp.MustCompile(`(?i)\b(okay|ok|fine|meh|alright|normal|so-so|average)\b`)},
}

func detectJournal(message string, _ time.Time) *types.LoggingIntent {
	entry := strings.TrimSpace(message)
	if len(entry) <= journalMinChars {
		return nil
	}
	data := map[string]any{"entry": entry}
	for _, b := range moodBuckets {
		if m := b.words.FindString(entry); m != "" {
			data["mood"] = b.label
			data["mood_word"] = strings.ToLower(m)
			break
		}
	}
	return newIntent("journal_entry", data)
}

func journalPayload(intent *types.LoggingIntent) (vault.Payload, bool) {
	entry := strings.TrimSpace(intent.String("entry"))
	if entry == "" {
		return nil, false
	}
	at := intent.DetectedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	mood := intent.String("mood")
	if w := intent.String("mood_word"); mood != "" && w != "" {
		mood += " (" + w + ")"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return vault.Markdown{
		File:    "journal-" + dayStamp(at) + "-" + suffix + ".md",
		Content: docHeader("Journal Entry", at, mood) + "\n\n" + entry + "\n",
		Mode:    vault.DocCreate,
	}, true
}

func journalAgent() Definition {
	return Definition{
		ID:     types.AgentJournal,
		Topics: "journaling, reflecting on the day, feelings, gratitude, venting, personal thoughts, diary entries",
		Persona: "You are the VaultVoice journaling companion. Listen first, reflect back what you heard in the " +
			"user's own terms, and ask at most one gentle follow-up question. Do not diagnose or lecture. If the " +
			"user mentions self-harm, encourage them to contact local emergency services or a crisis line.",
		Partition: types.PartitionJournal,
		Detect:    detectJournal,
		Payload:   journalPayload,
		MaxTokens: 200,
	}
}
