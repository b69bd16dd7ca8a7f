package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var configKeys = []string{
	"SERVER_PORT", "DATABASE_URL", "UPSTREAM_BASE_URL", "UPSTREAM_API_VERSION",
	"CACHE_MAX_AGE_SECONDS", "MARKET_TIMEZONE", "REFRESH_SCHEDULE", "REFRESH_CONCURRENCY",
	"HTTP_TIMEOUT_SECONDS", "HTTP_MAX_RETRIES", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()
	assert.Equal(t, DefaultServerPort, cfg.ServerPort)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.UpstreamBaseURL)
	assert.Equal(t, "v1", cfg.UpstreamAPIVersion)
	assert.Equal(t, DefaultCacheMaxAge, cfg.CacheMaxAge)
	assert.Equal(t, DefaultRefreshSchedule, cfg.RefreshSchedule)
	assert.Equal(t, DefaultRefreshConcurrency, cfg.RefreshConcurrency)
	assert.Equal(t, DefaultHTTPMaxRetries, cfg.HTTPMaxRetries)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("UPSTREAM_BASE_URL", "https://ipo.example.com/")
	t.Setenv("UPSTREAM_API_VERSION", "V2")
	t.Setenv("CACHE_MAX_AGE_SECONDS", "0")
	t.Setenv("REFRESH_CONCURRENCY", "8")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "10")
	t.Setenv("HTTP_MAX_RETRIES", "0")
	t.Setenv("LOG_FILE", "/var/log/pipeline.log")

	cfg := FromEnv()
	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, "https://ipo.example.com", cfg.UpstreamBaseURL)
	assert.Equal(t, "v2", cfg.UpstreamAPIVersion)
	assert.Equal(t, time.Duration(0), cfg.CacheMaxAge, "zero max age disables fresh reads")
	assert.Equal(t, 8, cfg.RefreshConcurrency)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 0, cfg.HTTPMaxRetries)
	assert.Equal(t, "/var/log/pipeline.log", cfg.Logging.File)
}

func TestFromEnvInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPSTREAM_API_VERSION", "v3")
	t.Setenv("CACHE_MAX_AGE_SECONDS", "-5")
	t.Setenv("REFRESH_CONCURRENCY", "0")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "soon")
	t.Setenv("HTTP_MAX_RETRIES", "-1")

	cfg := FromEnv()
	assert.Equal(t, "v1", cfg.UpstreamAPIVersion)
	assert.Equal(t, DefaultCacheMaxAge, cfg.CacheMaxAge)
	assert.Equal(t, DefaultRefreshConcurrency, cfg.RefreshConcurrency)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, DefaultHTTPMaxRetries, cfg.HTTPMaxRetries)
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.UTC, (&Config{MarketTimezone: "Mars/Olympus"}).Location())

	cfg := &Config{MarketTimezone: "UTC"}
	assert.Equal(t, "UTC", cfg.Location().String())
}
