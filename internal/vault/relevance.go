package vault

import (
	"regexp"
	"strings"
)

// Need is how much history a query calls for.
type Need string

const (
	NeedRecent  Need = "recent"
	NeedPattern Need = "pattern"
	NeedKeyword Need = "keyword"
)

type Plan struct {
	Need  Need
	Limit int
	Terms []string
}

// RelevanceEngine decides how much vault history a query should surface.
type RelevanceEngine interface {
	Plan(query string) Plan
}

// KeywordRelevance classifies by phrase cues: lookup questions and quoted
// terms want matching rows, long-horizon questions want aggregates, and
// everything else gets the last few entries.
type KeywordRelevance struct {
	RecentRows    int
	KeywordRows   int
	PatternSample int
}

var quotedTerm = regexp.MustCompile(`"([^"]{2,})"|“([^”]{2,})”`)

var keywordCues = []string{
	"when did i", "last time", "did i ever", "have i ever", "what day did i", "which day", "find the",
}

var patternCues = []string{
	"all time", "all-time", "ever", "overall", "trend", "pattern", "average", "avg", "progress",
	"history", "since i started", "how often", "total", "so far", "over time", "this month", "compared",
}

func (k KeywordRelevance) Plan(query string) Plan {
	recent := Plan{Need: NeedRecent, Limit: orDefault(k.RecentRows, 5)}
	s := strings.ToLower(strings.TrimSpace(query))
	if s == "" {
		return recent
	}

	var quoted []string
	for _, m := range quotedTerm.FindAllStringSubmatch(query, -1) {
		term := m[1]
		if term == "" {
			term = m[2]
		}
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			quoted = append(quoted, term)
		}
	}
	if len(quoted) > 0 {
		return Plan{Need: NeedKeyword, Limit: orDefault(k.KeywordRows, 8), Terms: quoted}
	}

	if containsAny(s, keywordCues...) {
		if terms := queryTerms(s); len(terms) > 0 {
			return Plan{Need: NeedKeyword, Limit: orDefault(k.KeywordRows, 8), Terms: terms}
		}
	}
	if containsAnyWord(s, patternCues...) {
		return Plan{Need: NeedPattern, Limit: orDefault(k.PatternSample, 200)}
	}
	return recent
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// containsAnyWord matches single-word cues on word boundaries so "ever"
// does not fire on "every".
func containsAnyWord(s string, needles ...string) bool {
	words := " " + strings.Join(strings.Fields(strings.NewReplacer("?", " ", "!", " ", ".", " ", ",", " ").Replace(s)), " ") + " "
	for _, n := range needles {
		if strings.Contains(n, " ") || strings.Contains(n, "-") {
			if strings.Contains(s, n) {
				return true
			}
			continue
		}
		if strings.Contains(words, " "+n+" ") {
			return true
		}
	}
	return false
}

var queryStop = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "with": true, "about": true, "from": true,
	"was": true, "were": true, "been": true, "this": true, "that": true, "these": true, "those": true,
	"its": true, "into": true, "than": true, "then": true, "what": true, "which": true, "who": true,
	"why": true, "how": true, "does": true, "did": true, "can": true, "could": true, "should": true,
	"would": true, "will": true, "when": true, "last": true, "time": true, "ever": true, "have": true,
	"had": true, "has": true, "take": true, "took": true, "taken": true, "log": true, "logged": true,
	"day": true, "find": true, "my": true, "me": true, "you": true, "any": true, "some": true,
}

func queryTerms(s string) []string {
	s = strings.NewReplacer(
		".", " ", ",", " ", "?", " ", "!", " ", ":", " ", ";", " ", "(", " ", ")", " ",
		"\"", " ", "'", " ", "`", " ", "/", " ", "\\", " ",
	).Replace(s)
	var out []string
	for _, p := range strings.Fields(s) {
		if len(p) < 3 || queryStop[p] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
