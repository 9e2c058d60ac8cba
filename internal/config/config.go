// Package config loads pipeline configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// LLM settings
	LLMProvider    string // "openai" | "lmstudio" | "ollama" | "gemini" | "none"
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64
	LLMMaxTokens   int
	LLMTimeout     time.Duration
	ReportTimeout  time.Duration // deadline for full report generation

	// Search provider settings
	SearchBaseURL   string
	SearchTimeout   time.Duration // single-source fetch
	RegionalTimeout time.Duration // multi-feed regional fetch
	MaxPerQuery     int

	// Geocoder settings
	GeocodeBaseURL  string
	GeocodeTimeout  time.Duration
	GeocodeCacheTTL time.Duration

	// Follow-the-sun scheduler
	BandsConfigPath   string
	FallbackThreshold int     // expand query set below this many events
	FallbackMaxBands  int     // extra bands per expansion
	FallbackWindow    float64 // max offset delta in hours for expansion

	// Normalizer / sources
	FiltersConfigPath string
	FeedsConfigPath   string
	FetchConcurrency  int

	// Seen-event store
	CacheFilePath string
	CacheTTLHours int
	DatabaseURL   string
	RedisAddr     string

	// App settings
	Debug         bool
	RetryAttempts int
	RetryDelay    time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		Port:              "8080",
		LLMProvider:       "none",
		LLMModel:          "",
		LLMTemperature:    0.2,
		LLMMaxTokens:      1024,
		LLMTimeout:        60 * time.Second,
		ReportTimeout:     600 * time.Second,
		SearchTimeout:     10 * time.Second,
		RegionalTimeout:   60 * time.Second,
		MaxPerQuery:       25,
		GeocodeBaseURL:    "https://geocoding-api.open-meteo.com",
		GeocodeTimeout:    10 * time.Second,
		GeocodeCacheTTL:   6 * time.Hour,
		BandsConfigPath:   "configs/bands.yaml",
		FallbackThreshold: 5,
		FallbackMaxBands:  2,
		FallbackWindow:    2,
		FiltersConfigPath: "configs/filters.yaml",
		FeedsConfigPath:   "configs/feeds.yaml",
		FetchConcurrency:  6,
		CacheFilePath:     "seen_events.json",
		CacheTTLHours:     48,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Second,
	}

	// Load from environment
	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.LLMProvider = getEnvOrDefault("LLM_PROVIDER", cfg.LLMProvider)
	cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	cfg.LLMModel = getEnvOrDefault("LLM_MODEL", cfg.LLMModel)
	cfg.SearchBaseURL = os.Getenv("SEARCH_BASE_URL")
	cfg.GeocodeBaseURL = getEnvOrDefault("GEOCODE_BASE_URL", cfg.GeocodeBaseURL)
	cfg.BandsConfigPath = getEnvOrDefault("BANDS_CONFIG_PATH", cfg.BandsConfigPath)
	cfg.FiltersConfigPath = getEnvOrDefault("FILTERS_CONFIG_PATH", cfg.FiltersConfigPath)
	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)
	cfg.CacheFilePath = getEnvOrDefault("CACHE_FILE_PATH", cfg.CacheFilePath)
	cfg.CacheTTLHours = getEnvIntOrDefault("CACHE_TTL_HOURS", cfg.CacheTTLHours)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")

	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil && val >= 0 {
			cfg.LLMTemperature = val
		}
	}
	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.LLMMaxTokens = val
		}
	}
	if v := getEnvIntOrDefault("LLM_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.LLMTimeout = time.Duration(v) * time.Second
	}
	if v := getEnvIntOrDefault("REPORT_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.ReportTimeout = time.Duration(v) * time.Second
	}
	if v := getEnvIntOrDefault("SEARCH_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.SearchTimeout = time.Duration(v) * time.Second
	}
	if v := getEnvIntOrDefault("REGIONAL_TIMEOUT_SECONDS", 0); v > 0 {
		cfg.RegionalTimeout = time.Duration(v) * time.Second
	}
	if v := getEnvIntOrDefault("MAX_PER_QUERY", 0); v > 0 {
		cfg.MaxPerQuery = v
	}
	if v := getEnvIntOrDefault("GEOCODE_CACHE_TTL_HOURS", 0); v > 0 {
		cfg.GeocodeCacheTTL = time.Duration(v) * time.Hour
	}
	if v := getEnvIntOrDefault("FALLBACK_THRESHOLD", 0); v > 0 {
		cfg.FallbackThreshold = v
	}
	if v := getEnvIntOrDefault("FETCH_CONCURRENCY", 0); v > 0 {
		cfg.FetchConcurrency = v
	}
	if v := getEnvIntOrDefault("RETRY_ATTEMPTS", 0); v > 0 {
		cfg.RetryAttempts = v
	}

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "openai", "lmstudio", "ollama", "gemini", "none":
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of openai, lmstudio, ollama, gemini, none (got %q)", c.LLMProvider)
	}
	if c.LLMProvider == "openai" && c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required for LLM_PROVIDER=openai")
	}
	if c.LLMProvider == "gemini" && c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required for LLM_PROVIDER=gemini")
	}
	if (c.LLMProvider == "lmstudio" || c.LLMProvider == "ollama") && c.LLMBaseURL == "" {
		return fmt.Errorf("LLM_BASE_URL is required for LLM_PROVIDER=%s", c.LLMProvider)
	}
	if c.FallbackThreshold < 1 {
		return fmt.Errorf("FALLBACK_THRESHOLD must be positive")
	}
	return nil
}
