package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadFromDefaults(t *testing.T) {
	t.Setenv("VAULTVOICE_STORE_MODE", "")
	t.Setenv("VAULTVOICE_LLM_TYPE", "")

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.Type)
	assert.Equal(t, "memory", cfg.Store.Mode)
	assert.Equal(t, "VaultVoice", cfg.Store.RootFolderName)
	assert.Equal(t, 5, cfg.Vault.RecentRows)
	assert.Equal(t, 10*time.Second, cfg.Store.OpTimeout.Duration)
}

func TestLoadFromYAMLOverlaysDefaults(t *testing.T) {
	t.Setenv("VAULTVOICE_STORE_MODE", "")
	t.Setenv("VAULTVOICE_LLM_TYPE", "")

	p := writeConfig(t, `
llm:
  type: openai_http
  base_url: "http://llm.local/"
  timeout: 7s
store:
  mode: gcs
  bucket: vault-bucket
  conflict_retries: 5
vault:
  folder_cache_ttl: 90
`)
	cfg, err := LoadFrom(p)
	require.NoError(t, err)
	assert.Equal(t, "oai_http", cfg.LLM.Type)
	assert.Equal(t, "http://llm.local", cfg.LLM.BaseURL)
	assert.Equal(t, 7*time.Second, cfg.LLM.Timeout.Duration)
	assert.Equal(t, "gcs", cfg.Store.Mode)
	assert.Equal(t, 5, cfg.Store.ConflictRetries)
	assert.Equal(t, 90*time.Second, cfg.Vault.FolderCacheTTL.Duration)
	// untouched sections keep their defaults
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "VaultVoice", cfg.Store.RootFolderName)
}

func TestEnvOverridesFile(t *testing.T) {
	p := writeConfig(t, "store:\n  mode: memory\n")
	t.Setenv("VAULTVOICE_STORE_MODE", "gcs_emulator")
	t.Setenv("VAULTVOICE_GCS_BUCKET", "emu")
	t.Setenv("VAULTVOICE_LLM_TYPE", "")

	cfg, err := LoadFrom(p)
	require.NoError(t, err)
	assert.Equal(t, "gcs_emulator", cfg.Store.Mode)
	assert.Equal(t, "emu", cfg.Store.Bucket)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("VAULTVOICE_STORE_MODE", "")
	t.Setenv("VAULTVOICE_LLM_TYPE", "")
	t.Setenv("VAULTVOICE_LLM_BASE_URL", "")
	t.Setenv("VAULTVOICE_GCS_BUCKET", "")

	cases := map[string]string{
		"bad_store_mode":     "store:\n  mode: s3\n",
		"gcs_without_bucket": "store:\n  mode: gcs\n",
		"oai_without_url":    "llm:\n  type: oai_http\n",
		"bad_llm_type":       "llm:\n  type: carrier_pigeon\n",
		"bad_duration":       "llm:\n  timeout: soon\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}
