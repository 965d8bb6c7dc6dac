package agents

import (
	"regexp"
	"strings"
	"time"

	"github.com/yungbote/vaultvoice-backend/internal/types"
	"github.com/yungbote/vaultvoice-backend/internal/vault"
)

var peptideAliases = map[string]string{
	"bpc":            "BPC-157",
	"bpc157":         "BPC-157",
	"tb":             "TB-500",
	"tb500":          "TB-500",
	"tb4":            "TB-500",
	"sema":           "Semaglutide",
	"semaglutide":    "Semaglutide",
	"ozempic":        "Semaglutide",
	"tirz":           "Tirzepatide",
	"tirzepatide":    "Tirzepatide",
	"reta":           "Retatrutide",
	"retatrutide":    "Retatrutide",
	"cjc":            "CJC-1295",
	"cjc1295":        "CJC-1295",
	"ipa":            "Ipamorelin",
	"ipamorelin":     "Ipamorelin",
	"ghk":            "GHK-Cu",
	"ghkcu":          "GHK-Cu",
	"mots":           "MOTS-c",
	"motsc":          "MOTS-c",
	"aod":            "AOD-9604",
	"aod9604":        "AOD-9604",
	"pt141":          "PT-141",
	"selank":         "Selank",
	"semax":          "Semax",
	"epitalon":       "Epitalon",
	"tesamorelin":    "Tesamorelin",
	"kisspeptin":     "Kisspeptin",
	"sermorelin":     "Sermorelin",
	"thymosin":       "Thymosin Alpha-1",
	"thymosinalpha1": "Thymosin Alpha-1",
}

const (
	doseToken    = `\d+(?:\.\d+)?\s*(?:mcg|mg|iu|units?)`
	peptideToken = `[a-z][a-z0-9]*(?:[\s\-]?\d+)?`
	eitherToken  = `(?:` + doseToken + `|` + peptideToken + `)`
	doseVerb     = `\b(?:took|take|taking|injected|inject|pinned|dosed|administered|used)\s+(?:my\s+)?`
)

var doseOnly = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*(mcg|mg|iu|units?)$`)

var injectionSite = regexp.MustCompile(`(?i)\b(?:in|into)\s+(?:my\s+|the\s+)?(?:(left|right)\s+)?(abdomen|stomach|belly|thigh|glute|arm|shoulder|delt)\b`)

var peptideRules = []rule{
	{
		name:  "verb_dose_name",
		re:    regexp.MustCompile(`(?i)` + doseVerb + `(` + doseToken + `)\s+(?:of\s+)?(` + peptideToken + `)\b`),
		build: buildDose,
	},
	{
		name:  "verb_name_dose",
		re:    regexp.MustCompile(`(?i)` + doseVerb + `(` + peptideToken + `)\s+(?:of\s+)?(` + doseToken + `)\b`),
		build: buildDose,
	},
	{
		name:  "name_dose_of",
		re:    regexp.MustCompile(`(?i)\b(` + peptideToken + `)\s+(?:dose|dosage|injection|shot)\s+(?:of|was|at|is)\s+(` + doseToken + `)\b`),
		build: buildDose,
	},
	{
		name:  "pair_of",
		re:    regexp.MustCompile(`(?i)\b(` + eitherToken + `)\s+of\s+(` + eitherToken + `)\b`),
		build: buildDose,
	},
}

// buildDose decides which capture is the dosage by shape: exactly one of the
// pair must read as number+unit, and the other is the peptide name.
func buildDose(m []string, message string, _ time.Time) *types.LoggingIntent {
	a, b := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	da, db := doseOnly.FindStringSubmatch(a), doseOnly.FindStringSubmatch(b)
	var dose []string
	var name string
	switch {
	case da != nil && db == nil:
		dose, name = da, b
	case db != nil && da == nil:
		dose, name = db, a
	default:
		return nil
	}
	amount, ok := parseFloat(dose[1])
	if !ok || amount <= 0 {
		return nil
	}
	peptide := resolveAlias(name, peptideAliases)
	if peptide == "" {
		return nil
	}
	data := map[string]any{
		"peptide": peptide,
		"dosage":  amount,
		"unit":    normalizeDoseUnit(dose[2]),
	}
	if site := injectionSite.FindStringSubmatch(message); site != nil {
		data["site"] = strings.ToLower(strings.TrimSpace(site[1] + " " + site[2]))
	}
	return newIntent("peptide_dose", data)
}

func normalizeDoseUnit(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	if strings.HasPrefix(u, "unit") {
		return "iu"
	}
	return u
}

func peptideAgent() Definition {
	return Definition{
		ID:     types.AgentPeptides,
		Topics: "peptides, injections, doses in mcg/mg/iu, BPC-157, TB-500, semaglutide, CJC-1295, ipamorelin, cycles, reconstitution",
		Persona: "You are the VaultVoice peptide protocol specialist. You track doses the user reports, explain " +
			"what is commonly reported about peptides, storage, and reconstitution, and always remind the user " +
			"that dosing decisions belong with their clinician. Never prescribe or change a dose.",
		Partition:   types.PartitionPeptides,
		Acknowledge: true,
		Detect:      detectWith(peptideRules),
		Payload: func(intent *types.LoggingIntent) (vault.Payload, bool) {
			dosage, ok := intent.Float("dosage")
			if !ok || intent.String("peptide") == "" {
				return nil, false
			}
			return vault.CSV{
				File: vault.FilePeptideLog,
				At:   intent.DetectedAt,
				Fields: types.Row{
					field("peptide", intent.String("peptide")),
					field("dosage", formatNumber(dosage)),
					field("unit", intent.String("unit")),
					field("site", intent.String("site")),
				},
			}, true
		},
		Describe: func(intent *types.LoggingIntent) string {
			return intent.String("dosage") + intent.String("unit") + " " + intent.String("peptide") + " dose"
		},
	}
}
