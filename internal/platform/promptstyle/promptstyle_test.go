package promptstyle

import (
	"strings"
	"testing"
)

func TestApplySystem(t *testing.T) {
	if got := ApplySystem("   ", Spoken); got != "" {
		t.Fatalf("blank system should stay blank, got %q", got)
	}

	spoken := ApplySystem("You coach sleep.", Spoken)
	if !strings.HasPrefix(spoken, marker) || !strings.HasSuffix(spoken, "You coach sleep.") {
		t.Fatalf("unexpected layout:\n%s", spoken)
	}
	if !strings.Contains(spoken, "2-3 short spoken-style sentences") {
		t.Fatalf("spoken rules missing:\n%s", spoken)
	}
	if again := ApplySystem(spoken, Spoken); again != spoken {
		t.Fatalf("ApplySystem is not idempotent")
	}

	label := ApplySystem("Pick one id.", Label)
	if strings.Contains(label, "spoken-style") || !strings.Contains(label, "Output only the requested label") {
		t.Fatalf("label rules wrong:\n%s", label)
	}
}
