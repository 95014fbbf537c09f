package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"mockview/internal/domain"
)

// Config is the top-level application configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Interview InterviewConfig `yaml:"interview"`
	Routing   RoutingConfig   `yaml:"routing"`
	Search    SearchConfig    `yaml:"search"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	History   HistoryConfig   `yaml:"history"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Logger    LoggerConfig    `yaml:"logger"`
	Tracer    TracerConfig    `yaml:"tracer"`
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	DefaultProvider string               `yaml:"default_provider"`
	Providers       []ProviderConfig     `yaml:"providers"`
	CircuitBreaker  CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// ProviderConfig holds settings for a single LLM provider.
type ProviderConfig struct {
	Name        string        `yaml:"name"`
	Type        string        `yaml:"type"` // "openai" | "anthropic"
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"` // supports ${ENV_VAR} expansion
	Model       string        `yaml:"model"`
	ConnTimeout time.Duration `yaml:"conn_timeout"`
	RespTimeout time.Duration `yaml:"resp_timeout"`
	Pool        PoolConfig    `yaml:"pool"`
}

// PoolConfig holds HTTP connection pool settings for LLM providers.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// CircuitBreakerConfig holds circuit breaker settings for LLM providers.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// InterviewConfig holds the defaults applied to new sessions when the
// caller does not override them.
type InterviewConfig struct {
	LLM      domain.LLMSettings       `yaml:"llm"`
	Defaults domain.InterviewSettings `yaml:"defaults"`
}

// RoutingConfig tunes agent selection and response combination.
type RoutingConfig struct {
	SupportThreshold float64 `yaml:"support_threshold"` // min CanHandle score for supporting agents
	SuccessThreshold float64 `yaml:"success_threshold"` // min confidence counted as a successful response
	MaxSupporting    int     `yaml:"max_supporting"`    // cap on supporting agents per turn
}

// SearchConfig holds web search settings.
type SearchConfig struct {
	Backend    string        `yaml:"backend"` // "searxng" | "noop"
	BaseURL    string        `yaml:"base_url"`
	MaxResults int           `yaml:"max_results"`
	Timeout    time.Duration `yaml:"timeout"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

// GatewayConfig holds the WebSocket/HTTP gateway settings.
type GatewayConfig struct {
	Enabled        bool            `yaml:"enabled"`
	Addr           string          `yaml:"addr"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool     `yaml:"enabled"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
	Burst             int      `yaml:"burst"`
	TrustedProxies    []string `yaml:"trusted_proxies"`
}

// HistoryConfig holds transcript archive settings.
type HistoryConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "none"
	Path   string `yaml:"path"`
}

// SessionsConfig holds session lifecycle settings.
type SessionsConfig struct {
	MaxIdle      time.Duration `yaml:"max_idle"`      // sessions idle longer than this are reaped
	ReapSchedule string        `yaml:"reap_schedule"` // cron spec
	MaxSessions  int           `yaml:"max_sessions"`  // 0 = unlimited
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, or a file path
}

// TracerConfig holds OpenTelemetry tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout", "noop"
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		LLM: LLMConfig{
			DefaultProvider: "openai",
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:     true,
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
		},
		Interview: InterviewConfig{
			LLM: domain.LLMSettings{
				Provider:    "openai",
				Model:       "gpt-4o",
				Temperature: 0.7,
				MaxTokens:   1000,
			},
			Defaults: domain.InterviewSettings{
				InterviewType: "behavioral",
				Tone:          "professional",
				Difficulty:    "medium",
			},
		},
		Routing: RoutingConfig{
			SupportThreshold: 0.3,
			SuccessThreshold: 0.5,
			MaxSupporting:    3,
		},
		Search: SearchConfig{
			Backend:    "noop",
			MaxResults: 5,
			Timeout:    10 * time.Second,
			CacheTTL:   5 * time.Minute,
		},
		Gateway: GatewayConfig{
			Enabled: true,
			Addr:    ":8089",
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             10,
			},
		},
		History: HistoryConfig{
			Driver: "sqlite",
			Path:   "./data/transcripts.db",
		},
		Sessions: SessionsConfig{
			MaxIdle:      30 * time.Minute,
			ReapSchedule: "*/5 * * * *",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "stdout",
		},
	}
}

// Load reads a YAML config file, expands ${ENV} references in secrets,
// and applies env var overrides. A missing file is not an error; defaults
// plus env overrides are returned instead.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	expandSecrets(cfg)
	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandSecrets resolves ${ENV_VAR} references in credential fields so
// keys never need to live in the config file itself.
func expandSecrets(cfg *Config) {
	for i := range cfg.LLM.Providers {
		cfg.LLM.Providers[i].APIKey = os.ExpandEnv(cfg.LLM.Providers[i].APIKey)
	}
	cfg.Search.BaseURL = os.ExpandEnv(cfg.Search.BaseURL)
}

// ApplyEnvOverrides maps MOCKVIEW_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MOCKVIEW_LLM_DEFAULT_PROVIDER"); v != "" {
		cfg.LLM.DefaultProvider = v
	}
	if v := os.Getenv("MOCKVIEW_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("MOCKVIEW_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("MOCKVIEW_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("MOCKVIEW_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("MOCKVIEW_GATEWAY_ADDR"); v != "" {
		cfg.Gateway.Addr = v
	}
	if v := os.Getenv("MOCKVIEW_SEARCH_BACKEND"); v != "" {
		cfg.Search.Backend = v
	}
	if v := os.Getenv("MOCKVIEW_SEARCH_BASE_URL"); v != "" {
		cfg.Search.BaseURL = v
	}
	if v := os.Getenv("MOCKVIEW_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("MOCKVIEW_SESSIONS_MAX_IDLE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sessions.MaxIdle = d
		}
	}
	if v := os.Getenv("MOCKVIEW_SESSIONS_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sessions.MaxSessions = n
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		setProviderKey(cfg, "openai", v)
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		setProviderKey(cfg, "anthropic", v)
	}
}

// setProviderKey fills the API key for providers of the given type that
// have no key configured. Explicit config always wins over the ambient
// environment.
func setProviderKey(cfg *Config, providerType, key string) {
	for i := range cfg.LLM.Providers {
		if cfg.LLM.Providers[i].Type == providerType && cfg.LLM.Providers[i].APIKey == "" {
			cfg.LLM.Providers[i].APIKey = key
		}
	}
}
