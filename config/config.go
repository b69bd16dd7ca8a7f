package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-pipeline/shared"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort         string
	DatabaseURL        string
	UpstreamBaseURL    string
	UpstreamAPIVersion string
	CacheMaxAge        time.Duration
	MarketTimezone     string
	RefreshSchedule    string
	RefreshConcurrency int
	HTTPTimeout        time.Duration
	HTTPMaxRetries     int
	UpstreamRateLimit  time.Duration
	Logging            shared.LoggingConfig
}

// Defaults used when a variable is absent or invalid.
const (
	DefaultServerPort         = "8080"
	DefaultAPIVersion         = "v1"
	DefaultCacheMaxAge        = 5 * time.Minute
	DefaultMarketTimezone     = "Asia/Kolkata"
	DefaultRefreshSchedule    = "@every 15m"
	DefaultRefreshConcurrency = 4
	DefaultHTTPTimeout        = 30 * time.Second
	DefaultHTTPMaxRetries     = 3
	DefaultUpstreamRateLimit  = 250 * time.Millisecond
)

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current process environment.
func FromEnv() *Config {
	apiVersion := strings.ToLower(getEnv("UPSTREAM_API_VERSION", DefaultAPIVersion))
	if apiVersion != "v1" && apiVersion != "v2" {
		logrus.Warnf("Invalid UPSTREAM_API_VERSION value: %s, using %s", apiVersion, DefaultAPIVersion)
		apiVersion = DefaultAPIVersion
	}

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", DefaultServerPort),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		UpstreamBaseURL:    strings.TrimRight(getEnv("UPSTREAM_BASE_URL", ""), "/"),
		UpstreamAPIVersion: apiVersion,
		CacheMaxAge:        getSeconds("CACHE_MAX_AGE_SECONDS", DefaultCacheMaxAge),
		MarketTimezone:     getEnv("MARKET_TIMEZONE", DefaultMarketTimezone),
		RefreshSchedule:    getEnv("REFRESH_SCHEDULE", DefaultRefreshSchedule),
		RefreshConcurrency: getPositiveInt("REFRESH_CONCURRENCY", DefaultRefreshConcurrency),
		HTTPTimeout:        getSeconds("HTTP_TIMEOUT_SECONDS", DefaultHTTPTimeout),
		HTTPMaxRetries:     getNonNegativeInt("HTTP_MAX_RETRIES", DefaultHTTPMaxRetries),
		UpstreamRateLimit:  DefaultUpstreamRateLimit,
		Logging: shared.LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Format:      getEnv("LOG_FORMAT", "json"),
			File:        getEnv("LOG_FILE", ""),
			ServiceName: "ipo-pipeline",
		},
	}
}

// Location resolves MarketTimezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.MarketTimezone)
	if err != nil {
		logrus.Warnf("Invalid MARKET_TIMEZONE value: %s, using UTC", c.MarketTimezone)
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getSeconds reads a whole number of seconds; zero is allowed.
func getSeconds(key string, fallback time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		logrus.Warnf("Invalid %s value: %s, using default %v", key, raw, fallback)
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func getPositiveInt(key string, fallback int) int {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		logrus.Warnf("Invalid %s value: %s, using default %d", key, raw, fallback)
		return fallback
	}
	return value
}

func getNonNegativeInt(key string, fallback int) int {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		logrus.Warnf("Invalid %s value: %s, using default %d", key, raw, fallback)
		return fallback
	}
	return value
}
