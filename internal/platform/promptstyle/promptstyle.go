package promptstyle

import "strings"

const marker = "VAULTVOICE_PROMPT_STYLE_V1"

type Mode string

const (
	// Spoken is for replies that are read aloud to the user.
	Spoken Mode = "spoken"
	// Label is for single-token classification calls.
	Label Mode = "label"
)

// ApplySystem prepends the house style block for mode. Applying it twice is a
// no-op.
func ApplySystem(system string, mode Mode) string {
	base := strings.TrimSpace(system)
	if base == "" {
		return base
	}
	if strings.Contains(base, marker) {
		return base
	}

	var b strings.Builder
	b.WriteString(marker)
	switch mode {
	case Label:
		b.WriteString("\nYou are the dispatcher for VaultVoice.")
		b.WriteString("\nOutput only the requested label. No punctuation, no explanation.")
	default:
		b.WriteString("\nYou are part of VaultVoice, a voice-first wellness companion. Be warm, specific, and brief.")
		b.WriteString("\nReply in 2-3 short spoken-style sentences. No lists, no markdown, no headings.")
		b.WriteString("\nUse the vault context as grounding; do not invent past entries or numbers.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return strings.TrimSpace(b.String())
}
