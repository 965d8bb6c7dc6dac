package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := `env: development
llm:
  type: mock
store:
  mode: memory
db:
  driver: sqlite
  path: "file:` + strings.ReplaceAll(t.Name(), "/", "_") + `?mode=memory&cache=shared"
auth:
  jwt_secret: cli-secret
`
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		userID, trainAgent, trainFile, configPath = "", "", "", ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRouteCommand(t *testing.T) {
	out, err := execute(t, "", "--config", writeConfig(t), "route", "slept", "7", "hours")
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if strings.TrimSpace(out) != "sleep" {
		t.Fatalf("route output=%q", out)
	}
}

func TestAskCommandAlwaysReplies(t *testing.T) {
	out, err := execute(t, "", "--config", writeConfig(t), "ask", "-u", "nobody", "what's", "the", "pricing?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.HasPrefix(out, "[sales] ") {
		t.Fatalf("ask output=%q", out)
	}
}

func TestTrainCommand(t *testing.T) {
	cfgPath := writeConfig(t)
	out, err := execute(t, "  Mention rotating injection sites.\n", "--config", cfgPath, "train", "--agent", "Peptides", "--file", "-")
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if !strings.Contains(out, "guidance for peptides") {
		t.Fatalf("train output=%q", out)
	}

	_, err = execute(t, "", "--config", cfgPath, "train", "--agent", "astrology", "--file", "-")
	if err == nil {
		t.Fatalf("expected unknown agent error")
	}
}

func TestMigrateCommand(t *testing.T) {
	if _, err := execute(t, "", "--config", writeConfig(t), "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func TestReadGuidanceFromFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "g.txt")
	if err := os.WriteFile(p, []byte("\nbe brief\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := readGuidance(nil, p)
	if err != nil || got != "be brief" {
		t.Fatalf("readGuidance=%q err=%v", got, err)
	}
}
