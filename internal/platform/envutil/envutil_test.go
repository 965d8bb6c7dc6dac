package envutil

import (
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("VV_TEST_INT", "42")
	t.Setenv("VV_TEST_BAD_INT", "forty")
	t.Setenv("VV_TEST_BOOL", "yes")
	t.Setenv("VV_TEST_DUR", "1500ms")
	t.Setenv("VV_TEST_DUR_SECS", "7")
	t.Setenv("VV_TEST_STR", "  hello ")

	if got := Int("VV_TEST_INT", 1); got != 42 {
		t.Fatalf("Int=%d", got)
	}
	if got := Int("VV_TEST_BAD_INT", 1); got != 1 {
		t.Fatalf("Int(bad)=%d, want default", got)
	}
	if got := Int("VV_TEST_MISSING", 9); got != 9 {
		t.Fatalf("Int(missing)=%d", got)
	}
	if !Bool("VV_TEST_BOOL", false) {
		t.Fatalf("Bool=false, want true")
	}
	if got := Duration("VV_TEST_DUR", time.Second); got != 1500*time.Millisecond {
		t.Fatalf("Duration=%s", got)
	}
	if got := Duration("VV_TEST_DUR_SECS", time.Second); got != 7*time.Second {
		t.Fatalf("Duration(secs)=%s", got)
	}
	if got := String("VV_TEST_STR", "x"); got != "hello" {
		t.Fatalf("String=%q", got)
	}
}
