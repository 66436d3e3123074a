package common

import (
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	API        APIConfig        `toml:"api"`
	Tracker    TrackerConfig    `toml:"tracker"`
	Collection CollectionConfig `toml:"collection"`
	Cache      CacheConfig      `toml:"cache"`
	Ingest     IngestConfig     `toml:"ingest"`
	Log        LogConfig        `toml:"log"`
}

// APIConfig holds backend client configuration
type APIConfig struct {
	BaseURL   string        `toml:"base_url"`
	APIKey    string        `toml:"api_key"`
	Timeout   time.Duration `toml:"timeout"`
	RateLimit float64       `toml:"rate_limit"` // requests per second
	RateBurst int           `toml:"rate_burst"`
}

// TrackerConfig holds submission-polling configuration
type TrackerConfig struct {
	PollInterval time.Duration `toml:"poll_interval"`
	MaxPollTicks int           `toml:"max_poll_ticks"`
}

// CollectionConfig holds archive-listing configuration
type CollectionConfig struct {
	PageSize    int `toml:"page_size"`
	MaxPageSize int `toml:"max_page_size"`
}

// CacheConfig holds local archive cache configuration
type CacheConfig struct {
	Path     string `toml:"path"`
	Disabled bool   `toml:"disabled"`
}

// IngestConfig holds watch-folder configuration
type IngestConfig struct {
	Debounce time.Duration `toml:"debounce"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `toml:"level"`  // debug|info|warn|error
	Format string `toml:"format"` // json|text
}

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://api.receiptdesk.dev",
			Timeout:   30 * time.Second,
			RateLimit: 5,
			RateBurst: 10,
		},
		Tracker: TrackerConfig{
			PollInterval: 2 * time.Second,
			MaxPollTicks: 30,
		},
		Collection: CollectionConfig{
			PageSize:    20,
			MaxPageSize: 100,
		},
		Cache: CacheConfig{
			Path: "receiptdesk.db",
		},
		Ingest: IngestConfig{
			Debounce: 2 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration in increasing priority: defaults, an
// optional TOML file (path argument, or RECEIPTDESK_CONFIG), then
// environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv("RECEIPTDESK_CONFIG")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, WrapError(err, "read config file")
		}
		if err := toml.Unmarshal(b, cfg); err != nil {
			return nil, WrapError(err, "parse config file")
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.API.BaseURL = getEnv("RECEIPTDESK_BASE_URL", c.API.BaseURL)
	c.API.APIKey = getEnv("RECEIPTDESK_API_KEY", c.API.APIKey)
	c.API.Timeout = getEnvAsDuration("RECEIPTDESK_API_TIMEOUT", c.API.Timeout)
	c.API.RateLimit = getEnvAsFloat64("RECEIPTDESK_RATE_LIMIT", c.API.RateLimit)
	c.API.RateBurst = getEnvAsInt("RECEIPTDESK_RATE_BURST", c.API.RateBurst)
	c.Tracker.PollInterval = getEnvAsDuration("RECEIPTDESK_POLL_INTERVAL", c.Tracker.PollInterval)
	c.Tracker.MaxPollTicks = getEnvAsInt("RECEIPTDESK_MAX_POLL_TICKS", c.Tracker.MaxPollTicks)
	c.Collection.PageSize = getEnvAsInt("RECEIPTDESK_PAGE_SIZE", c.Collection.PageSize)
	c.Cache.Path = getEnv("RECEIPTDESK_CACHE_PATH", c.Cache.Path)
	c.Ingest.Debounce = getEnvAsDuration("RECEIPTDESK_INGEST_DEBOUNCE", c.Ingest.Debounce)
	c.Log.Level = getEnv("RECEIPTDESK_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("RECEIPTDESK_LOG_FORMAT", c.Log.Format)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "RECEIPTDESK_BASE_URL is required", ErrInvalidInput)
	}
	if c.Tracker.PollInterval <= 0 {
		return NewAppError("CONFIG_ERROR", "poll_interval must be positive", ErrInvalidInput)
	}
	if c.Tracker.MaxPollTicks <= 0 {
		return NewAppError("CONFIG_ERROR", "max_poll_ticks must be positive", ErrInvalidInput)
	}
	if c.Collection.PageSize <= 0 {
		return NewAppError("CONFIG_ERROR", "page_size must be positive", ErrInvalidInput)
	}
	if c.Collection.PageSize > c.Collection.MaxPageSize {
		return NewAppError("CONFIG_ERROR", "page_size exceeds max_page_size", ErrInvalidInput)
	}
	return nil
}
