// Package config loads environment-specific YAML configuration with
// ${VAR} substitution, defaulting, and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the venueqa API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Sources    SourcesConfig    `yaml:"sources"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	Cache      bool   `yaml:"cache"`
}

// CompletionProviderConfig holds one completion provider in the fallback
// chain. Kind selects the transport: "openai" covers every
// OpenAI-compatible vendor, "ollama" talks to a local Ollama daemon.
type CompletionProviderConfig struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// CompletionConfig holds the ordered completion provider chain.
type CompletionConfig struct {
	Providers []CompletionProviderConfig `yaml:"providers"`
}

// SourcesConfig holds upstream corpus endpoints.
type SourcesConfig struct {
	ConferenceURL string `yaml:"conference_url"`
	JournalURL    string `yaml:"journal_url"`
	TimeoutSec    int    `yaml:"timeout_sec"`
}

// IngestConfig holds ingestion pipeline settings.
type IngestConfig struct {
	BatchSize       int  `yaml:"batch_size"`
	Workers         int  `yaml:"workers"`
	FetchAttempts   int  `yaml:"fetch_attempts"`
	FetchBackoffSec int  `yaml:"fetch_backoff_sec"`
	Force           bool `yaml:"force"` // re-embed records that are already indexed
	OnBoot          bool `yaml:"on_boot"`
	IntervalHours   int  `yaml:"interval_hours"` // 0 disables the schedule
}

// RetrievalConfig holds search tier settings.
type RetrievalConfig struct {
	IndexName  string `yaml:"index_name"` // first vector index candidate to probe
	VectorOnly bool   `yaml:"vector_only"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120 // generation can be slow
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Sources.TimeoutSec <= 0 {
		c.Sources.TimeoutSec = 60
	}
	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = 32
	}
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = 10
	}
	if c.Ingest.FetchAttempts <= 0 {
		c.Ingest.FetchAttempts = 3
	}
	if c.Ingest.FetchBackoffSec <= 0 {
		c.Ingest.FetchBackoffSec = 5
	}
	for i := range c.Completion.Providers {
		p := &c.Completion.Providers[i]
		if p.Kind == "" {
			p.Kind = "openai"
		}
		if p.Name == "" {
			p.Name = p.Kind
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if len(c.Completion.Providers) == 0 {
		return fmt.Errorf("completion.providers must list at least one provider")
	}
	for i, p := range c.Completion.Providers {
		switch p.Kind {
		case "openai", "ollama":
			// ok
		default:
			return fmt.Errorf(
				"completion.providers[%d].kind must be \"openai\" or \"ollama\", got %q", i, p.Kind,
			)
		}
		if p.Model == "" {
			return fmt.Errorf("completion.providers[%d].model is required", i)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
