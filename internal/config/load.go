package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/vaultvoice-backend/internal/platform/envutil"
)

// UnmarshalYAML accepts "5s" style strings or a bare integer of seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	s := strings.TrimSpace(node.Value)
	if s == "" || s == "null" || s == "~" {
		d.Duration = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		d.Duration = time.Duration(n) * time.Second
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration must be a string like \"5s\" or an int of seconds: %w", err)
	}
	d.Duration = dd
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			IdleTimeout:       Duration{Duration: 2 * time.Minute},
			ShutdownTimeout:   Duration{Duration: 15 * time.Second},
			MaxRequestBytes:   1 << 20,
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
		},
		LLM: LLMConfig{
			Type:                "mock",
			ChatCompletionsPath: "/v1/chat/completions",
			RouterModel:         "gpt-4o-mini",
			AgentModel:          "gpt-4o-mini",
			Timeout:             Duration{Duration: 20 * time.Second},
			MaxRetries:          1,
		},
		Store: StoreConfig{
			Mode:            "memory",
			RootFolderName:  "VaultVoice",
			OpTimeout:       Duration{Duration: 10 * time.Second},
			ConflictRetries: 3,
		},
		Redis: RedisConfig{
			LockTTL: Duration{Duration: 15 * time.Second},
		},
		DB: DBConfig{
			Driver:  "sqlite",
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "vaultvoice",
			SSLMode: "disable",
			Path:    "vaultvoice.db",
		},
		Auth: AuthConfig{
			Issuer: "vaultvoice",
		},
		Vault: VaultConfig{
			RecentRows:      5,
			KeywordRows:     8,
			PatternSample:   200,
			MaxContextChars: 1800,
			FolderCacheSize: 1024,
			FolderCacheTTL:  Duration{Duration: 30 * time.Minute},
			WriteTimeout:    Duration{Duration: 20 * time.Second},
			ContextTimeout:  Duration{Duration: 4 * time.Second},
		},
		OTel: OTelConfig{
			ServiceName: "vaultvoice",
		},
	}
}

// Load resolves defaults, then the YAML file (VAULTVOICE_CONFIG_PATH or
// ./config/config.yaml when present), then environment overrides.
func Load() (*Config, error) {
	cfgPath := strings.TrimSpace(os.Getenv("VAULTVOICE_CONFIG_PATH"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "config.yaml")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}
	return LoadFrom(cfgPath)
}

func LoadFrom(cfgPath string) (*Config, error) {
	cfg := defaultConfig()

	if cfgPath != "" {
		b, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfgPath, err)
		}
	}

	applyEnv(cfg)

	if err := normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)

	cfg.HTTP.Addr = envutil.String("VAULTVOICE_HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.ShutdownTimeout.Duration = envutil.Duration("VAULTVOICE_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout.Duration)
	if v := envutil.String("VAULTVOICE_CORS_ORIGINS", ""); v != "" {
		cfg.HTTP.CORSOrigins = splitCSV(v)
	}

	cfg.LLM.Type = envutil.String("VAULTVOICE_LLM_TYPE", cfg.LLM.Type)
	cfg.LLM.BaseURL = envutil.String("VAULTVOICE_LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = envutil.String("OPENAI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.APIKey = envutil.String("VAULTVOICE_LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.RouterModel = envutil.String("VAULTVOICE_ROUTER_MODEL", cfg.LLM.RouterModel)
	cfg.LLM.AgentModel = envutil.String("VAULTVOICE_AGENT_MODEL", cfg.LLM.AgentModel)
	cfg.LLM.Timeout.Duration = envutil.Duration("VAULTVOICE_LLM_TIMEOUT", cfg.LLM.Timeout.Duration)
	cfg.LLM.MaxRetries = envutil.Int("VAULTVOICE_LLM_MAX_RETRIES", cfg.LLM.MaxRetries)

	cfg.Store.Mode = envutil.String("VAULTVOICE_STORE_MODE", cfg.Store.Mode)
	cfg.Store.RootFolderName = envutil.String("VAULTVOICE_ROOT_FOLDER", cfg.Store.RootFolderName)
	cfg.Store.Bucket = envutil.String("VAULTVOICE_GCS_BUCKET", cfg.Store.Bucket)
	cfg.Store.EmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", cfg.Store.EmulatorHost)
	cfg.Store.OAuthClientID = envutil.String("GOOGLE_OAUTH_CLIENT_ID", cfg.Store.OAuthClientID)
	cfg.Store.OAuthClientSecret = envutil.String("GOOGLE_OAUTH_CLIENT_SECRET", cfg.Store.OAuthClientSecret)
	cfg.Store.OpTimeout.Duration = envutil.Duration("VAULTVOICE_STORE_TIMEOUT", cfg.Store.OpTimeout.Duration)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)

	cfg.DB.Driver = envutil.String("VAULTVOICE_DB_DRIVER", cfg.DB.Driver)
	cfg.DB.Host = envutil.String("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envutil.String("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = envutil.String("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Password = envutil.String("POSTGRES_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = envutil.String("POSTGRES_NAME", cfg.DB.Name)
	cfg.DB.Path = envutil.String("VAULTVOICE_SQLITE_PATH", cfg.DB.Path)

	cfg.Auth.JWTSecret = envutil.String("JWT_SECRET_KEY", cfg.Auth.JWTSecret)
}

func normalize(cfg *Config) error {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 1 << 20
	}

	cfg.LLM.Type = strings.ToLower(strings.TrimSpace(cfg.LLM.Type))
	switch cfg.LLM.Type {
	case "openai_http", "oai_http":
		cfg.LLM.Type = "oai_http"
		cfg.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.LLM.BaseURL), "/")
		if cfg.LLM.BaseURL == "" {
			return errors.New("llm.base_url is required for oai_http")
		}
	case "mock":
	default:
		return fmt.Errorf("invalid llm.type=%q", cfg.LLM.Type)
	}
	if strings.TrimSpace(cfg.LLM.RouterModel) == "" || strings.TrimSpace(cfg.LLM.AgentModel) == "" {
		return errors.New("llm.router_model and llm.agent_model are required")
	}
	if cfg.LLM.MaxRetries < 0 {
		return fmt.Errorf("invalid llm.max_retries=%d", cfg.LLM.MaxRetries)
	}
	if cfg.LLM.Timeout.Duration <= 0 {
		cfg.LLM.Timeout = Duration{Duration: 20 * time.Second}
	}

	cfg.Store.Mode = strings.ToLower(strings.TrimSpace(cfg.Store.Mode))
	switch cfg.Store.Mode {
	case "drive":
		if cfg.Store.OAuthClientID == "" || cfg.Store.OAuthClientSecret == "" {
			return errors.New("store mode drive requires oauth_client_id and oauth_client_secret")
		}
	case "gcs", "gcs_emulator":
		if strings.TrimSpace(cfg.Store.Bucket) == "" {
			return fmt.Errorf("store mode %s requires bucket", cfg.Store.Mode)
		}
	case "memory":
	default:
		return fmt.Errorf("invalid store.mode=%q (allowed: drive, gcs, gcs_emulator, memory)", cfg.Store.Mode)
	}
	if strings.TrimSpace(cfg.Store.RootFolderName) == "" {
		return errors.New("store.root_folder_name is required")
	}
	if cfg.Store.ConflictRetries < 0 {
		return fmt.Errorf("invalid store.conflict_retries=%d", cfg.Store.ConflictRetries)
	}
	if cfg.Store.OpTimeout.Duration <= 0 {
		cfg.Store.OpTimeout = Duration{Duration: 10 * time.Second}
	}

	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	switch cfg.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid db.driver=%q", cfg.DB.Driver)
	}

	if cfg.Vault.RecentRows <= 0 {
		cfg.Vault.RecentRows = 5
	}
	if cfg.Vault.KeywordRows <= 0 {
		cfg.Vault.KeywordRows = 8
	}
	if cfg.Vault.PatternSample <= 0 {
		cfg.Vault.PatternSample = 200
	}
	if cfg.Vault.MaxContextChars <= 0 {
		cfg.Vault.MaxContextChars = 1800
	}
	if cfg.Vault.FolderCacheSize <= 0 {
		cfg.Vault.FolderCacheSize = 1024
	}
	return nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
