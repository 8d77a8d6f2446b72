package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/paperbot/internal/domain"
)

// Config holds the paperbot configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Search   SearchConfig   `yaml:"search"`
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds admin endpoint authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds ops HTTP server settings.
type HTTPConfig struct {
	Enabled         *bool `yaml:"enabled"` // default: true
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
}

// TelegramConfig holds Bot API settings.
type TelegramConfig struct {
	Token                string        `yaml:"token"`
	APIEndpoint          string        `yaml:"api_endpoint"`
	Mode                 string        `yaml:"mode"` // polling (default), webhook
	PollTimeoutSec       int           `yaml:"poll_timeout_sec"`
	Webhook              WebhookConfig `yaml:"webhook"`
	Retry                RetryConfig   `yaml:"retry"`
	SendRatePerSec       float64       `yaml:"send_rate_per_sec"`
	MaxConcurrentUpdates int           `yaml:"max_concurrent_updates"`
}

// WebhookConfig holds webhook mode settings.
type WebhookConfig struct {
	PublicURL string `yaml:"public_url"`
	Path      string `yaml:"path"`
}

// RetryConfig selects how the transport is restarted after a failure.
type RetryConfig struct {
	Policy         string `yaml:"policy"` // infinite (default), backoff
	InitialDelayMS int    `yaml:"initial_delay_ms"`
	MaxDelayMS     int    `yaml:"max_delay_ms"`
}

// CatalogConfig holds catalog source settings.
type CatalogConfig struct {
	URL                string `yaml:"url"`
	RefreshIntervalSec int    `yaml:"refresh_interval_sec"`
	FetchTimeoutSec    int    `yaml:"fetch_timeout_sec"`
	MaxBodyMB          int    `yaml:"max_body_mb"`
	UserAgent          string `yaml:"user_agent"`
}

// SearchConfig holds search and reply settings.
type SearchConfig struct {
	MaxResults       int `yaml:"max_results"`
	MaxMessageLength int `yaml:"max_message_length"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(PathFor(env))
}

// LoadFile reads and validates configuration from an explicit YAML file path.
func LoadFile(configPath string) (Config, error) {
	cfg, err := Read(configPath)
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Read parses a YAML file and applies defaults without validating, so callers
// can apply overrides (CLI flags) first.
func Read(configPath string) (Config, error) {
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
	if c.Telegram.Mode == "" {
		c.Telegram.Mode = "polling"
	}
	if c.Telegram.PollTimeoutSec <= 0 {
		c.Telegram.PollTimeoutSec = 60
	}
	if c.Telegram.Webhook.Path == "" {
		c.Telegram.Webhook.Path = "/telegram/webhook"
	}
	if c.Telegram.Retry.Policy == "" {
		c.Telegram.Retry.Policy = "infinite"
	}
	if c.Telegram.Retry.InitialDelayMS <= 0 {
		c.Telegram.Retry.InitialDelayMS = 500
	}
	if c.Telegram.Retry.MaxDelayMS <= 0 {
		c.Telegram.Retry.MaxDelayMS = 60000
	}
	if c.Telegram.SendRatePerSec <= 0 {
		c.Telegram.SendRatePerSec = 25
	}
	if c.Telegram.MaxConcurrentUpdates <= 0 {
		c.Telegram.MaxConcurrentUpdates = 16
	}
	if c.Catalog.URL == "" {
		c.Catalog.URL = "https://wg21.link/index.json"
	}
	if c.Catalog.RefreshIntervalSec <= 0 {
		c.Catalog.RefreshIntervalSec = 600
	}
	if c.Catalog.FetchTimeoutSec <= 0 {
		c.Catalog.FetchTimeoutSec = 30
	}
	if c.Catalog.MaxBodyMB <= 0 {
		c.Catalog.MaxBodyMB = 64
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 20
	}
	if c.Search.MaxMessageLength <= 0 {
		c.Search.MaxMessageLength = 2500
	}
	if c.HTTP.Enabled == nil {
		enabled := true
		c.HTTP.Enabled = &enabled
	}
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("%w: telegram.token is required", domain.ErrInvalidConfig)
	}
	switch c.Telegram.Mode {
	case "polling":
	case "webhook":
		if c.Telegram.Webhook.PublicURL == "" {
			return fmt.Errorf("%w: telegram.webhook.public_url is required in webhook mode", domain.ErrInvalidConfig)
		}
		if !c.HTTPEnabled() {
			return fmt.Errorf("%w: webhook mode requires http.enabled", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: telegram.mode must be \"polling\" or \"webhook\", got %q",
			domain.ErrInvalidConfig, c.Telegram.Mode)
	}
	if !strings.HasPrefix(c.Telegram.Webhook.Path, "/") {
		return fmt.Errorf("%w: telegram.webhook.path must start with /, got %q",
			domain.ErrInvalidConfig, c.Telegram.Webhook.Path)
	}
	switch c.Telegram.Retry.Policy {
	case "infinite", "backoff":
	default:
		return fmt.Errorf("%w: telegram.retry.policy must be \"infinite\" or \"backoff\", got %q",
			domain.ErrInvalidConfig, c.Telegram.Retry.Policy)
	}
	if c.Telegram.Retry.MaxDelayMS < c.Telegram.Retry.InitialDelayMS {
		return fmt.Errorf("%w: telegram.retry.max_delay_ms must not be less than initial_delay_ms",
			domain.ErrInvalidConfig)
	}
	if c.HTTP.Port > 65535 {
		return fmt.Errorf("%w: http.port must be between 1 and 65535, got %d", domain.ErrInvalidConfig, c.HTTP.Port)
	}
	return nil
}

// HTTPEnabled reports whether the ops HTTP server should run.
func (c *Config) HTTPEnabled() bool {
	return c.HTTP.Enabled == nil || *c.HTTP.Enabled
}

// RefreshInterval returns the catalog refresh period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Catalog.RefreshIntervalSec) * time.Second
}

// WebhookURL returns the full URL registered with the Bot API.
func (c *Config) WebhookURL() string {
	return strings.TrimRight(c.Telegram.Webhook.PublicURL, "/") + c.Telegram.Webhook.Path
}

// PathFor locates the config file for an environment.
func PathFor(env string) string {
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
