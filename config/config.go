// Package config loads runtime configuration from the environment, with an
// optional .env file merged in via godotenv. Configuration is constructed
// explicitly and injected at startup; components never read the environment
// themselves, and a running process refreshes settings only through the
// single Reload operation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable the process reads at startup.
type Config struct {
	// Provider selects the model backend: "openai", "anthropic", or "mock".
	Provider string

	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Model ids per capability tier. Empty values use provider defaults.
	FastModel    string
	DeepModel    string
	DefaultModel string

	// DataDir holds the instance registry, job store, logbook and memory.
	DataDir string

	// Workspace roots the builtin file and shell tools.
	Workspace string

	// ToolsDir is scanned for command tool manifests.
	ToolsDir string

	// Persona prepends custom instructions to response synthesis.
	Persona string

	MaxInstances    int
	BackgroundSlots int
	MaxRetries      int
	PollInterval    time.Duration

	LogLevel  string
	LogFormat string

	envFile string
}

// Options configures loading.
type Options struct {
	// EnvFile is merged into the environment before reading. A missing file
	// is ignored. Defaults to ".env".
	EnvFile string
}

// Load builds a Config from the environment.
func Load(optFns ...func(o *Options)) (*Config, error) {
	opts := Options{EnvFile: ".env"}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := &Config{envFile: opts.EnvFile}
	if err := cfg.Reload(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Reload re-reads every setting from the env file and environment. This is
// the only way settings change after startup.
func (c *Config) Reload() error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", c.envFile, err)
		}
	}

	home, _ := os.UserHomeDir()
	defaultData := filepath.Join(home, ".solara")

	c.Provider = envOr("SOLARA_PROVIDER", "openai")
	c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	c.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	c.FastModel = os.Getenv("SOLARA_FAST_MODEL")
	c.DeepModel = os.Getenv("SOLARA_DEEP_MODEL")
	c.DefaultModel = os.Getenv("SOLARA_DEFAULT_MODEL")
	c.DataDir = envOr("SOLARA_DATA_DIR", defaultData)
	c.Workspace = envOr("SOLARA_WORKSPACE", ".")
	c.ToolsDir = envOr("SOLARA_TOOLS_DIR", filepath.Join(c.DataDir, "tools"))
	c.Persona = os.Getenv("SOLARA_PERSONA")
	c.LogLevel = envOr("SOLARA_LOG_LEVEL", "info")
	c.LogFormat = envOr("SOLARA_LOG_FORMAT", "text")

	var err error
	if c.MaxInstances, err = envIntOr("SOLARA_MAX_INSTANCES", 5); err != nil {
		return err
	}
	if c.BackgroundSlots, err = envIntOr("SOLARA_BACKGROUND_SLOTS", 2); err != nil {
		return err
	}
	if c.MaxRetries, err = envIntOr("SOLARA_MAX_RETRIES", 5); err != nil {
		return err
	}

	pollSecs, err := envIntOr("SOLARA_POLL_INTERVAL_SECONDS", 30)
	if err != nil {
		return err
	}
	c.PollInterval = time.Duration(pollSecs) * time.Second

	return nil
}

// RegistryPath returns the instance registry database location.
func (c *Config) RegistryPath() string { return filepath.Join(c.DataDir, "instances.db") }

// JobStorePath returns the scheduled job database location.
func (c *Config) JobStorePath() string { return filepath.Join(c.DataDir, "jobs.db") }

// LogbookPath returns the interaction journal location.
func (c *Config) LogbookPath() string { return filepath.Join(c.DataDir, "logbook.jsonl") }

// MemoryPath returns the long-term memory notes location.
func (c *Config) MemoryPath() string { return filepath.Join(c.DataDir, "memory.jsonl") }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}
