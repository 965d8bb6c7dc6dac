package agents

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/yungbote/vaultvoice-backend/internal/types"
)

// rule is one row of an agent's ordered pattern table. build sees the
// submatches of the first rule whose pattern matches; a nil result means the
// match did not parse and nothing is logged.
type rule struct {
	name  string
	re    *regexp.Regexp
	build func(m []string, message string, now time.Time) *types.LoggingIntent
}

func firstMatch(rules []rule, message string, now time.Time) *types.LoggingIntent {
	for _, r := range rules {
		m := r.re.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		intent := r.build(m, message, now)
		if intent != nil {
			intent.DetectedAt = now
		}
		return intent
	}
	return nil
}

func detectWith(rules []rule) func(string, time.Time) *types.LoggingIntent {
	return func(message string, now time.Time) *types.LoggingIntent {
		return firstMatch(rules, message, now)
	}
}

func newIntent(kind string, data map[string]any) *types.LoggingIntent {
	return &types.LoggingIntent{Type: kind, Data: data}
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// squash lower-cases s and drops spaces, hyphens, and underscores so alias
// keys match "BPC 157", "bpc-157" and "bpc157" alike.
func squash(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '\t':
			return -1
		}
		return r
	}, s)
}

func resolveAlias(raw string, aliases map[string]string) string {
	if v, ok := aliases[squash(raw)]; ok {
		return v
	}
	return cleanPhrase(raw)
}

var spaceRun = regexp.MustCompile(`\s+`)

func cleanPhrase(s string) string {
	s = spaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
	return strings.Trim(s, " .,!?;:\"'")
}

func titleWords(s string) string {
	words := strings.Fields(cleanPhrase(s))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func field(key, value string) types.Field {
	return types.Field{Key: key, Value: value}
}

func dayStamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.Format("2006-01-02")
}

func docHeader(title string, at time.Time, mood string) string {
	lines := []string{"# " + title, "Date: " + at.Format("2006-01-02 15:04 MST")}
	if mood != "" {
		lines = append(lines, "Mood: "+mood)
	}
	return strings.Join(lines, "\n")
}
