// Package config resolves the probe configuration from an environment lookup
// and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvAPIKey     = "OPENAI_API_KEY"  //nolint:gosec // variable name, not a credential
	EnvBaseURL    = "OPENAI_BASE_URL" // Overrides base_url.
	EnvConfigPath = "KEYPROBE_CONFIG" // Path of the YAML file.
	EnvLogLevel   = "KEYPROBE_LOG_LEVEL"
)

// Defaults.
const (
	DefaultPath       = "keyprobe.yaml"
	DefaultBaseURL    = "https://api.openai.com"
	DefaultModel      = "gpt-3.5-turbo"
	DefaultPrompt     = "Say 'Hello! Your API key is working!' in one sentence."
	DefaultMaxTokens  = 50
	DefaultSampleSize = 5
	DefaultLogLevel   = "warn"
)

// Backends.
const (
	BackendHTTP = "http"
	BackendSDK  = "sdk"
)

// ErrMissingAPIKey is returned by Validate when no credential was found.
var ErrMissingAPIKey = errors.New(EnvAPIKey + " not found in environment variables")

// Config holds everything the probe needs. APIKey is only ever taken from
// the environment, never from the file.
type Config struct {
	APIKey     string `yaml:"-"`
	BaseURL    string `yaml:"base_url"`
	Backend    string `yaml:"backend"`
	Model      string `yaml:"model"`
	Prompt     string `yaml:"prompt"`
	MaxTokens  int    `yaml:"max_tokens"`
	SampleSize int    `yaml:"sample_size"`
	Timeout    string `yaml:"timeout"` // Duration string, e.g. "30s". Empty means no overall deadline.
	LogLevel   string `yaml:"log_level"`
	Markdown   bool   `yaml:"markdown"` // Render the chat reply as markdown.
}

// Default returns a Config with every default applied and no credential.
func Default() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		Backend:    BackendHTTP,
		Model:      DefaultModel,
		Prompt:     DefaultPrompt,
		MaxTokens:  DefaultMaxTokens,
		SampleSize: DefaultSampleSize,
		LogLevel:   DefaultLogLevel,
	}
}

// Load builds a Config. The YAML file at path is optional: a missing file
// leaves the defaults in place. $VAR and ${VAR} references in the file are
// expanded with getenv before parsing, so the file never needs to hold
// secrets. A literal dollar sign is written as $$.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("config: load: %w", err)
		default:
			expanded := os.Expand(string(data), expander(getenv))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	cfg.APIKey = strings.TrimSpace(getenv(EnvAPIKey))

	if v := strings.TrimSpace(getenv(EnvBaseURL)); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}

	cfg.fillDefaults()

	return cfg, nil
}

// expander maps $$ to a literal $ and everything else through getenv.
func expander(getenv func(string) string) func(string) string {
	return func(name string) string {
		if name == "$" {
			return "$"
		}
		return getenv(name)
	}
}

// fillDefaults replaces fields a file explicitly blanked.
func (c *Config) fillDefaults() {
	d := Default()

	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	c.BaseURL = normalizeBaseURL(c.BaseURL)

	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.Prompt == "" {
		c.Prompt = d.Prompt
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.SampleSize == 0 {
		c.SampleSize = d.SampleSize
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// normalizeBaseURL returns the API root without a trailing slash or /v1.
// OPENAI_BASE_URL conventionally includes /v1; both forms are accepted.
func normalizeBaseURL(u string) string {
	u = strings.TrimRight(u, "/")
	u = strings.TrimSuffix(u, "/v1")
	return strings.TrimRight(u, "/")
}

// Validate checks the configuration. A missing credential is reported
// first, as ErrMissingAPIKey.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}

	switch c.Backend {
	case BackendHTTP, BackendSDK:
	default:
		return fmt.Errorf("config: unknown backend %q (want %q or %q)", c.Backend, BackendHTTP, BackendSDK)
	}

	if c.MaxTokens < 0 {
		return fmt.Errorf("config: max_tokens must be positive, got %d", c.MaxTokens)
	}

	if c.SampleSize < 0 {
		return fmt.Errorf("config: sample_size must not be negative, got %d", c.SampleSize)
	}

	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	return nil
}

// TimeoutDuration parses Timeout. Zero means no deadline.
func (c Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("config: invalid timeout %q: %w", c.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: timeout must not be negative, got %s", d)
	}

	return d, nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid log_level %q: %w", c.LogLevel, err)
	}

	return lvl, nil
}

// LogValue implements slog.LogValuer. The credential is never included.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("base_url", c.BaseURL),
		slog.String("backend", c.Backend),
		slog.String("model", c.Model),
		slog.Int("max_tokens", c.MaxTokens),
		slog.Int("sample_size", c.SampleSize),
		slog.Bool("api_key_set", c.APIKey != ""),
	)
}
