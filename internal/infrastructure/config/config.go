package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Engine    EngineConfig
	Script    ScriptConfig
	Fetch     FetchConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `envconfig:"PORT" default:"8000"`
	Host         string        `envconfig:"HOST" default:"0.0.0.0"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
	MaxBodyBytes int64         `envconfig:"MAX_BODY_BYTES" default:"10485760"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// EngineConfig sizes the shared rule caches.
type EngineConfig struct {
	RuleCacheSize  int           `envconfig:"RULE_CACHE_SIZE" default:"4096"`
	GlobalVarsSize int           `envconfig:"GLOBAL_VARS_SIZE" default:"10000"`
	RegexTimeout   time.Duration `envconfig:"REGEX_TIMEOUT" default:"2s"`
}

// ScriptConfig holds script engine configuration.
type ScriptConfig struct {
	Enabled     bool          `envconfig:"SCRIPT_ENABLED" default:"true"`
	Timeout     time.Duration `envconfig:"SCRIPT_TIMEOUT" default:"5s"`
	MaxMemoryMB int           `envconfig:"SCRIPT_MAX_MEMORY_MB" default:"50"`
	PoolSize    int           `envconfig:"SCRIPT_POOL_SIZE" default:"4"`
	Console     bool          `envconfig:"SCRIPT_CONSOLE" default:"true"`
}

// FetchConfig holds outbound HTTP configuration.
type FetchConfig struct {
	Timeout          time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	Retries          int           `envconfig:"FETCH_RETRIES" default:"2"`
	RetryWait        time.Duration `envconfig:"FETCH_RETRY_WAIT" default:"500ms"`
	UserAgent        string        `envconfig:"FETCH_USER_AGENT" default:"rulekit/1.0"`
	RateLimit        float64       `envconfig:"FETCH_RATE_LIMIT" default:"10"`
	BreakerThreshold uint32        `envconfig:"FETCH_BREAKER_THRESHOLD" default:"5"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8000",
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			MaxBodyBytes: 10 << 20,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Engine: EngineConfig{
			RuleCacheSize:  4096,
			GlobalVarsSize: 10000,
			RegexTimeout:   2 * time.Second,
		},
		Script: ScriptConfig{
			Enabled:     true,
			Timeout:     5 * time.Second,
			MaxMemoryMB: 50,
			PoolSize:    4,
			Console:     true,
		},
		Fetch: FetchConfig{
			Timeout:          30 * time.Second,
			Retries:          2,
			RetryWait:        500 * time.Millisecond,
			UserAgent:        "rulekit/1.0",
			RateLimit:        10,
			BreakerThreshold: 5,
		},
	}
}
