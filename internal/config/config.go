// Package config loads the orchestrator's configuration: TOML file layered
// under environment variables layered under built-in defaults, following
// the teacher's specmcp.toml precedence exactly.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration for orchestratord.
// Precedence: environment variables > config file > defaults.
type Config struct {
	LLM       LLMConfig       `toml:"llm"`
	Executor  ExecutorConfig  `toml:"executor"`
	Budget    BudgetConfig    `toml:"budget"`
	Transport TransportConfig `toml:"transport"`
	Log       LogConfig       `toml:"log"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Workers   WorkersConfig   `toml:"workers"`
}

// LLMConfig configures the text-generation client and its response cache
// (C1).
type LLMConfig struct {
	Provider    string        `toml:"provider"` // "openai" or "gemini"
	APIKey      string        `toml:"api_key"`
	Model       string        `toml:"model"`
	CacheTTL    time.Duration `toml:"cache_ttl"`
	MaxAttempts int           `toml:"max_attempts"`
}

// ExecutorConfig configures the Autonomous Executor's circuit breaker and
// timeouts (C7).
type ExecutorConfig struct {
	FailureThreshold uint32        `toml:"failure_threshold"`
	SuccessThreshold uint32        `toml:"success_threshold"`
	ResetTimeout     time.Duration `toml:"reset_timeout"`
	PerTaskTimeout   time.Duration `toml:"per_task_timeout"`
	Window           time.Duration `toml:"window"`
	MaxParallel      int           `toml:"max_parallel"`
}

// BudgetConfig holds a default change budget (C2). It is loaded but not
// passed to the Planning Engine, which falls back to spec.DefaultBudget()
// for specs that don't name their own.
type BudgetConfig struct {
	MaxFiles int `toml:"max_files"`
	MaxLOC   int `toml:"max_loc"`
}

// TransportConfig holds transport-related settings for the RPC server.
type TransportConfig struct {
	// Mode selects the transport: "stdio" (default) or "http".
	Mode string `toml:"mode"`
	// Port is the HTTP listen port (default: 8787). Only used when Mode is "http".
	Port string `toml:"port"`
	// Host is the HTTP listen address (default: "0.0.0.0"). Only used when Mode is "http".
	Host string `toml:"host"`
	// CORSOrigins is a comma-separated list of allowed CORS origins (default: "*").
	CORSOrigins string `toml:"cors_origins"`
	// BearerToken is loaded but not read by the HTTP transport, which
	// accepts any non-empty bearer token without comparing it to this value.
	BearerToken string `toml:"bearer_token"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// SchedulerConfig holds settings for periodic background jobs. It is
// loaded but not read by the daemon, which starts no scheduled jobs.
type SchedulerConfig struct {
	CacheSweepInterval time.Duration `toml:"cache_sweep_interval"`
}

// WorkersConfig lists the HTTP worker endpoints the Worker Pool (C5)
// dispatches to, in addition to any in-process workers registered by code.
type WorkersConfig struct {
	HTTPEndpoints []string `toml:"http_endpoints"`
}

// Load creates a Config by reading from a TOML config file and environment
// variables. Precedence: environment variables > config file > defaults.
//
// Config file search order (first found wins):
//  1. Path passed via configPath parameter (from --config flag)
//  2. ORCHESTRATORD_CONFIG environment variable
//  3. ./orchestratord.toml (current directory)
//  4. ~/.config/orchestratord/orchestratord.toml (XDG-style)
//
// All fields are optional in the config file. Environment variables always
// override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			CacheTTL:    300 * time.Second,
			MaxAttempts: 3,
		},
		Executor: ExecutorConfig{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			ResetTimeout:     60 * time.Second,
			PerTaskTimeout:   300 * time.Second,
			Window:           60 * time.Second,
			MaxParallel:      3,
		},
		Budget: BudgetConfig{
			MaxFiles: 50,
			MaxLOC:   1000,
		},
		Transport: TransportConfig{
			Mode:        "stdio",
			Port:        "8787",
			Host:        "0.0.0.0",
			CORSOrigins: "*",
		},
		Log: LogConfig{
			Level: "info",
		},
		Scheduler: SchedulerConfig{
			CacheSweepInterval: 5 * time.Minute,
		},
	}

	if err := cfg.loadFile(configPath); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile finds and parses the TOML config file. If no file is found,
// this is a no-op (config file is optional).
func (c *Config) loadFile(configPath string) error {
	path := resolveConfigPath(configPath)
	if path == "" {
		return nil // no config file found; rely on defaults + env
	}

	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	return nil
}

// resolveConfigPath determines which config file to use. Returns empty string
// if no config file is found (config file is optional).
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit // caller wants this file; let DecodeFile report if missing
	}

	if p := os.Getenv("ORCHESTRATORD_CONFIG"); p != "" {
		return p
	}

	if _, err := os.Stat("orchestratord.toml"); err == nil {
		return "orchestratord.toml"
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := home + "/.config/orchestratord/orchestratord.toml"
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnv overlays environment variables on top of existing config values.
// An env var only takes effect if it is non-empty.
func (c *Config) applyEnv() {
	envOverride("ORCHESTRATOR_LLM_PROVIDER", &c.LLM.Provider)
	envOverride("ORCHESTRATOR_LLM_API_KEY", &c.LLM.APIKey)
	envOverride("ORCHESTRATOR_LLM_MODEL", &c.LLM.Model)
	envDuration("ORCHESTRATOR_LLM_CACHE_TTL", &c.LLM.CacheTTL)

	envUint32("ORCHESTRATOR_FAILURE_THRESHOLD", &c.Executor.FailureThreshold)
	envDuration("ORCHESTRATOR_RESET_TIMEOUT", &c.Executor.ResetTimeout)
	envDuration("ORCHESTRATOR_PER_TASK_TIMEOUT", &c.Executor.PerTaskTimeout)
	envInt("ORCHESTRATOR_MAX_PARALLEL", &c.Executor.MaxParallel)

	envInt("ORCHESTRATOR_MAX_FILES", &c.Budget.MaxFiles)
	envInt("ORCHESTRATOR_MAX_LOC", &c.Budget.MaxLOC)

	envOverride("ORCHESTRATOR_TRANSPORT", &c.Transport.Mode)
	envOverride("ORCHESTRATOR_PORT", &c.Transport.Port)
	envOverride("ORCHESTRATOR_HOST", &c.Transport.Host)
	envOverride("ORCHESTRATOR_CORS_ORIGINS", &c.Transport.CORSOrigins)
	envOverride("ORCHESTRATOR_BEARER_TOKEN", &c.Transport.BearerToken)

	envOverride("ORCHESTRATOR_LOG_LEVEL", &c.Log.Level)

	envStringList("ORCHESTRATOR_WORKER_ENDPOINTS", &c.Workers.HTTPEndpoints)
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio":
	case "http":
	default:
		return fmt.Errorf("invalid transport mode: %q (must be \"stdio\" or \"http\")", c.Transport.Mode)
	}

	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm api key is required: set llm.api_key in config file, or ORCHESTRATOR_LLM_API_KEY env var")
	}
	if c.Executor.FailureThreshold == 0 || c.Executor.SuccessThreshold == 0 {
		return fmt.Errorf("executor failure_threshold and success_threshold must be positive")
	}
	if c.Budget.MaxFiles <= 0 || c.Budget.MaxLOC <= 0 {
		return fmt.Errorf("budget max_files and max_loc must be positive")
	}

	return nil
}

func envOverride(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
		*dst = n
	}
}

func envUint32(key string, dst *uint32) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var n uint32
	if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
		*dst = n
	}
}

func envStringList(key string, dst *[]string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parts := make([]string, 0, 4)
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		*dst = parts
	}
}

func envDuration(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
