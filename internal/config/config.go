package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultOddsAPIBaseURL is the odds provider's v4 REST root
const DefaultOddsAPIBaseURL = "https://api.the-odds-api.com/v4"

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// OddsAPIConfig holds upstream provider configuration
type OddsAPIConfig struct {
	APIKey  string
	BaseURL string
}

// CacheConfig holds the key-value cache store connection
type CacheConfig struct {
	URL   string
	Token string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Pretty bool
}

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	OddsAPI       OddsAPIConfig
	Cache         CacheConfig
	Log           LogConfig
	AlexandriaDSN string // Optional; enables the Postgres sharp-book registry
}

// Load reads configuration from the environment, after loading .env if present
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Addr:        getEnv("EV_ENGINE_PORT", ":8086"),
			CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:3001"}),
		},
		OddsAPI: OddsAPIConfig{
			APIKey:  os.Getenv("ODDS_API_KEY"),
			BaseURL: getEnv("ODDS_API_BASE_URL", DefaultOddsAPIBaseURL),
		},
		Cache: CacheConfig{
			URL:   getEnv("REDIS_URL", "redis://localhost:6380"),
			Token: os.Getenv("REDIS_TOKEN"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvBool("LOG_PRETTY", false),
		},
		AlexandriaDSN: os.Getenv("ALEXANDRIA_DSN"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.OddsAPI.BaseURL == "" {
		return fmt.Errorf("ODDS_API_BASE_URL must not be empty")
	}
	if c.Cache.URL != "" {
		if _, err := url.Parse(c.Cache.URL); err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
	}
	// A missing API key or cache URL is allowed: the provider client starts
	// degraded, and the engine runs uncached.
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
