package config

import "time"

type Duration struct {
	Duration time.Duration
}

type HTTPConfig struct {
	Addr              string   `yaml:"addr"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	IdleTimeout       Duration `yaml:"idle_timeout"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
	MaxRequestBytes   int64    `yaml:"max_request_bytes"`
	CORSOrigins       []string `yaml:"cors_origins"`
}

type LLMConfig struct {
	// Type is "oai_http" or "mock".
	Type string `yaml:"type"`

	BaseURL             string `yaml:"base_url"`
	APIKey              string `yaml:"api_key"`
	ChatCompletionsPath string `yaml:"chat_completions_path"`

	RouterModel string `yaml:"router_model"`
	AgentModel  string `yaml:"agent_model"`

	Timeout    Duration `yaml:"timeout"`
	MaxRetries int      `yaml:"max_retries"`
}

type StoreConfig struct {
	// Mode is one of drive, gcs, gcs_emulator, memory.
	Mode           string `yaml:"mode"`
	RootFolderName string `yaml:"root_folder_name"`

	Bucket       string `yaml:"bucket"`
	EmulatorHost string `yaml:"emulator_host"`
	Credentials  string `yaml:"credentials"`

	OAuthClientID     string `yaml:"oauth_client_id"`
	OAuthClientSecret string `yaml:"oauth_client_secret"`

	OpTimeout       Duration `yaml:"op_timeout"`
	ConflictRetries int      `yaml:"conflict_retries"`
}

type RedisConfig struct {
	// Addr empty disables the cross-replica write lock.
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	LockTTL  Duration `yaml:"lock_ttl"`
}

type DBConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	Path     string `yaml:"path"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type VaultConfig struct {
	RecentRows      int      `yaml:"recent_rows"`
	KeywordRows     int      `yaml:"keyword_rows"`
	PatternSample   int      `yaml:"pattern_sample"`
	MaxContextChars int      `yaml:"max_context_chars"`
	FolderCacheSize int      `yaml:"folder_cache_size"`
	FolderCacheTTL  Duration `yaml:"folder_cache_ttl"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ContextTimeout  Duration `yaml:"context_timeout"`
}

type OTelConfig struct {
	ServiceName string `yaml:"service_name"`
	Version     string `yaml:"version"`
}

type Config struct {
	Env   string      `yaml:"env"`
	HTTP  HTTPConfig  `yaml:"http"`
	LLM   LLMConfig   `yaml:"llm"`
	Store StoreConfig `yaml:"store"`
	Redis RedisConfig `yaml:"redis"`
	DB    DBConfig    `yaml:"db"`
	Auth  AuthConfig  `yaml:"auth"`
	Vault VaultConfig `yaml:"vault"`
	OTel  OTelConfig  `yaml:"otel"`
}
