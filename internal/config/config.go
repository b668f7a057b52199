// Package config provides configuration types and defaults for patchtree.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/talenthium/patchtree/internal/log"
)

// Config holds all configuration options for patchtree.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Store   StoreConfig   `mapstructure:"store"`
	Server  ServerConfig  `mapstructure:"server"`
	Theme   ThemeConfig   `mapstructure:"theme"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// APIConfig points at the project service.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AuthConfig holds the bearer token sent to the project service.
// An empty token means requests are sent unauthenticated.
type AuthConfig struct {
	Token string `mapstructure:"token"`
}

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

// CacheConfig controls the read-through cache in front of the project service.
type CacheConfig struct {
	// Backend is "memory" (default), "redis", or "none".
	Backend   string        `mapstructure:"backend"`
	TTL       time.Duration `mapstructure:"ttl"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
	// Prefix namespaces keys in a shared redis instance.
	Prefix string `mapstructure:"prefix"`
}

// StoreConfig locates the snapshot database.
type StoreConfig struct {
	// Path to the SQLite file.
	// Default: ~/.config/patchtree/patchtree.db
	Path string `mapstructure:"path"`
}

// ServerConfig holds HTTP API options.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// ThemeConfig selects the terminal palette.
type ThemeConfig struct {
	// Mode is "light", "dark", or empty for dark.
	Mode string `mapstructure:"mode"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/patchtree/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// ConfigDir returns ~/.config/patchtree, or empty string if home dir unavailable.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "patchtree")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// DefaultStorePath returns the default snapshot database location.
func DefaultStorePath() string {
	dir := ConfigDir()
	if dir == "" {
		return "patchtree.db"
	}
	return filepath.Join(dir, "patchtree.db")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 15 * time.Second,
		},
		Cache: CacheConfig{
			Backend:   CacheBackendMemory,
			TTL:       5 * time.Minute,
			RedisAddr: "localhost:6379",
			Prefix:    "patchtree",
		},
		Store: StoreConfig{
			Path: DefaultStorePath(),
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:7420",
		},
		Theme: ThemeConfig{
			Mode: "dark",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     DefaultTracesFilePath(),
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// SetDefaults registers every default with v so unset keys unmarshal to Defaults().
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("auth.token", d.Auth.Token)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
	v.SetDefault("cache.redis_db", d.Cache.RedisDB)
	v.SetDefault("cache.prefix", d.Cache.Prefix)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("theme.mode", d.Theme.Mode)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate runs every section validator.
func Validate(cfg Config) error {
	if err := ValidateAPI(cfg.API); err != nil {
		return err
	}
	if err := ValidateCache(cfg.Cache); err != nil {
		return err
	}
	if err := ValidateServer(cfg.Server); err != nil {
		return err
	}
	if err := ValidateTheme(cfg.Theme); err != nil {
		return err
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateAPI checks the project service settings.
func ValidateAPI(api APIConfig) error {
	if api.BaseURL != "" {
		u, err := url.Parse(api.BaseURL)
		if err != nil {
			return fmt.Errorf("api.base_url is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("api.base_url must use http or https, got %q", api.BaseURL)
		}
		if u.Host == "" {
			return fmt.Errorf("api.base_url must include a host, got %q", api.BaseURL)
		}
	}
	if api.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative, got %s", api.Timeout)
	}
	return nil
}

// ValidateCache checks cache configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateCache(cache CacheConfig) error {
	switch cache.Backend {
	case "", CacheBackendMemory, CacheBackendNone:
	case CacheBackendRedis:
		if cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required when backend is \"redis\"")
		}
	default:
		return fmt.Errorf("cache.backend must be \"memory\", \"redis\", or \"none\", got %q", cache.Backend)
	}
	if cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", cache.TTL)
	}
	if cache.RedisDB < 0 {
		return fmt.Errorf("cache.redis_db must not be negative, got %d", cache.RedisDB)
	}
	return nil
}

// ValidateServer checks that the listen address is host:port.
func ValidateServer(server ServerConfig) error {
	if server.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(server.Addr); err != nil {
		return fmt.Errorf("server.addr must be host:port, got %q", server.Addr)
	}
	return nil
}

// ValidateTheme checks the theme mode.
func ValidateTheme(theme ThemeConfig) error {
	switch theme.Mode {
	case "", "light", "dark":
		return nil
	default:
		return fmt.Errorf("theme.mode must be \"light\" or \"dark\", got %q", theme.Mode)
	}
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# patchtree configuration

# Project service
api:
  base_url: http://localhost:8080
  timeout: 15s

# Bearer token for the project service (set with 'patchtree login')
# auth:
#   token: ""

# Response cache for project service reads
cache:
  backend: memory        # memory (default), redis, or none
  ttl: 5m
  # redis_addr: localhost:6379
  # redis_db: 0
  # prefix: patchtree

# Snapshot database
# store:
#   path: ~/.config/patchtree/patchtree.db

# HTTP API ('patchtree serve')
server:
  addr: 127.0.0.1:7420

# Terminal palette: light or dark
theme:
  mode: dark

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/patchtree/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
