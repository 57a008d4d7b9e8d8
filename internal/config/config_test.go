package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nDmitry/stackfeed/internal/config"
	"github.com/nDmitry/stackfeed/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stackfeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := config.Load([]string{"--port", "9000", "--min-interval", "250ms", "--workers", "8", "--warm", "platformer"})
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.MinInterval.Std())
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "platformer", cfg.WarmHandle)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL.Std())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("STACKFEED_CACHE_TTL", "1h")
	t.Setenv("STACKFEED_LOG_LEVEL", "debug")

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.CacheTTL.Std())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_FilePrecedence(t *testing.T) {
	path := writeFile(t, `
port: "7000"
min_interval: 2s
keyword_count: 5
url_template: http://localhost:9999/{handle}
`)

	t.Setenv("STACKFEED_KEYWORD_COUNT", "7")

	cfg, err := config.Load([]string{"--config", path, "--port", "7001"})
	require.NoError(t, err)

	// Flags beat the environment, which beats the file
	assert.Equal(t, "7001", cfg.Port)
	assert.Equal(t, 7, cfg.KeywordCount)
	assert.Equal(t, 2*time.Second, cfg.MinInterval.Std())
	assert.Equal(t, "http://localhost:9999/{handle}", cfg.URLTemplate)
	assert.Equal(t, 3, cfg.RetryAttempts)
}

func TestLoad_PlainSeconds(t *testing.T) {
	t.Setenv("STACKFEED_MIN_INTERVAL", "1")

	path := writeFile(t, "cache_ttl: 900\nrequest_timeout: 2.5\n")

	cfg, err := config.Load([]string{"--config", path})
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.MinInterval.Std())
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL.Std())
	assert.Equal(t, 2500*time.Millisecond, cfg.RequestTimeout.Std())
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{input: "900", expected: 15 * time.Minute},
		{input: "0.25", expected: 250 * time.Millisecond},
		{input: "0", expected: 0},
		{input: "15m", expected: 15 * time.Minute},
		{input: " 1s ", expected: time.Second},
		{input: "soon", wantErr: true},
		{input: "NaN", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := config.ParseDuration(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, d.Std())
		})
	}
}

func TestLoad_FileErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "Missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.yaml") },
		},
		{
			name: "Unknown key",
			path: func(t *testing.T) string { return writeFile(t, "redis_host: redis\n") },
		},
		{
			name: "Bad duration",
			path: func(t *testing.T) string { return writeFile(t, "cache_ttl: soon\n") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load([]string{"--config", tt.path(t)})
			assert.Error(t, err)
		})
	}
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := config.Load([]string{"--config", writeFile(t, "")})
	require.NoError(t, err)

	assert.Equal(t, 1024, cfg.CacheMaxEntries)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(c *config.Config)
		expectedField string
	}{
		{name: "Valid", mutate: func(_ *config.Config) {}},
		{name: "Zero interval is allowed", mutate: func(c *config.Config) { c.MinInterval = 0 }},
		{name: "Negative interval", mutate: func(c *config.Config) { c.MinInterval = config.Duration(-time.Second) }, expectedField: "min_interval"},
		{name: "Template without handle", mutate: func(c *config.Config) { c.URLTemplate = "https://substack.com" }, expectedField: "url_template"},
		{name: "Zero cache TTL", mutate: func(c *config.Config) { c.CacheTTL = 0 }, expectedField: "cache_ttl"},
		{name: "Zero retry attempts", mutate: func(c *config.Config) { c.RetryAttempts = 0 }, expectedField: "retry_attempts"},
		{name: "Zero workers", mutate: func(c *config.Config) { c.Workers = 0 }, expectedField: "workers"},
		{name: "Invalid warm handle", mutate: func(c *config.Config) { c.WarmHandle = "Not A Handle" }, expectedField: "handle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.expectedField == "" {
				assert.NoError(t, err)
				return
			}

			var configErr *entity.ConfigurationError
			require.True(t, errors.As(err, &configErr))
			assert.Equal(t, tt.expectedField, configErr.Field)
		})
	}
}
