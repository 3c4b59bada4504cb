package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath      string
	MarketDataURL     string
	MarketDataAPIKey  string
	LogLevel          string
	Port              int
	DevMode           bool
	ReconcileSchedule string // six-field cron expression for the nightly plan reconciliation
	PriceCacheTTL     int    // hours a cached price is considered fresh
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnvAsInt("PORT", 8010),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		DatabasePath:      getEnv("DATABASE_PATH", "./data/holdings.db"),
		MarketDataURL:     getEnv("MARKET_DATA_URL", "http://localhost:9010"),
		MarketDataAPIKey:  getEnv("MARKET_DATA_API_KEY", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", "0 0 6 * * *"), // 06:00 daily
		PriceCacheTTL:     getEnvAsInt("PRICE_CACHE_TTL_HOURS", 24),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.MarketDataURL == "" {
		return fmt.Errorf("MARKET_DATA_URL is required")
	}
	if c.PriceCacheTTL < 0 {
		return fmt.Errorf("PRICE_CACHE_TTL_HOURS cannot be negative")
	}
	return nil
}

// Helper functions
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
