package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	require.Equal(t, 15*time.Second, cfg.API.Timeout)
	require.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	require.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	require.Equal(t, "dark", cfg.Theme.Mode)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, 1.0, cfg.Tracing.SampleRate)
	require.NoError(t, Validate(cfg), "defaults must validate")
}

func TestLoad_DefaultsOnly(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
}

func TestLoad_FromTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7420", cfg.Server.Addr)
	require.Equal(t, 15*time.Second, cfg.API.Timeout)
	require.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
}

func TestLoad_OverridesAndDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `api:
  base_url: https://projects.example.com
  timeout: 2s
cache:
  backend: redis
  ttl: 90s
  redis_addr: cache:6379
theme:
  mode: light
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "https://projects.example.com", cfg.API.BaseURL)
	require.Equal(t, 2*time.Second, cfg.API.Timeout)
	require.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	require.Equal(t, 90*time.Second, cfg.Cache.TTL)
	require.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
	require.Equal(t, "light", cfg.Theme.Mode)
	require.Equal(t, "patchtree", cfg.Cache.Prefix, "unset keys keep defaults")
}

func TestLoad_InvalidRejected(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("theme.mode", "sepia")

	_, err := Load(v)
	require.Error(t, err)
	require.Contains(t, err.Error(), "theme.mode")
}

func TestValidateAPI(t *testing.T) {
	require.NoError(t, ValidateAPI(APIConfig{}))
	require.NoError(t, ValidateAPI(APIConfig{BaseURL: "https://api.example.com/v1"}))

	err := ValidateAPI(APIConfig{BaseURL: "ftp://example.com"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "http or https")

	err = ValidateAPI(APIConfig{BaseURL: "http://"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "host")

	err = ValidateAPI(APIConfig{Timeout: -time.Second})
	require.Error(t, err)
}

func TestValidateCache(t *testing.T) {
	require.NoError(t, ValidateCache(CacheConfig{}))
	require.NoError(t, ValidateCache(CacheConfig{Backend: CacheBackendNone}))
	require.NoError(t, ValidateCache(CacheConfig{Backend: CacheBackendRedis, RedisAddr: "localhost:6379"}))

	err := ValidateCache(CacheConfig{Backend: CacheBackendRedis})
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis_addr is required")

	err = ValidateCache(CacheConfig{Backend: "memcached"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cache.backend")

	require.Error(t, ValidateCache(CacheConfig{TTL: -1}))
	require.Error(t, ValidateCache(CacheConfig{RedisDB: -1}))
}

func TestValidateServer(t *testing.T) {
	require.NoError(t, ValidateServer(ServerConfig{}))
	require.NoError(t, ValidateServer(ServerConfig{Addr: ":7420"}))
	require.Error(t, ValidateServer(ServerConfig{Addr: "localhost"}))
}

func TestValidateTheme(t *testing.T) {
	for _, mode := range []string{"", "light", "dark"} {
		require.NoError(t, ValidateTheme(ThemeConfig{Mode: mode}), mode)
	}
	require.Error(t, ValidateTheme(ThemeConfig{Mode: "Dark"}))
}

func TestValidateTracing(t *testing.T) {
	tests := []struct {
		name    string
		tracing TracingConfig
		wantErr string
	}{
		{name: "empty is valid", tracing: TracingConfig{}},
		{name: "sample rate too high", tracing: TracingConfig{SampleRate: 1.5}, wantErr: "sample_rate"},
		{name: "sample rate negative", tracing: TracingConfig{SampleRate: -0.1}, wantErr: "sample_rate"},
		{name: "unknown exporter", tracing: TracingConfig{Exporter: "jaeger"}, wantErr: "tracing.exporter"},
		{name: "file needs path when enabled", tracing: TracingConfig{Enabled: true, Exporter: "file"}, wantErr: "file_path is required"},
		{name: "file path ignored when disabled", tracing: TracingConfig{Exporter: "file"}},
		{name: "otlp needs endpoint", tracing: TracingConfig{Enabled: true, Exporter: "otlp"}, wantErr: "otlp_endpoint is required"},
		{name: "stdout ok", tracing: TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTracing(tt.tracing)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteDefaultConfig_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".patchtree", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "# patchtree configuration"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
