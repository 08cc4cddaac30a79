package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment
// variables.
type Config struct {
	DatabaseURL             string
	Port                    string
	LogLevel                string
	RecurrenceExpansionDays int
	RecurrenceExpansion     time.Duration
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Database connection string is required
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// HTTP listen port (default: 8080)
	cfg.Port = getEnvOrDefault("PORT", "8080")

	// Log level for the structured logger (default: info)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Validation window for recurring bookings (default: 90 days)
	days, err := getEnvAsIntOrDefault("RECURRENCE_EXPANSION_DAYS", 90)
	if err != nil {
		return nil, err
	}
	cfg.RecurrenceExpansionDays = days
	cfg.RecurrenceExpansion = time.Duration(days) * 24 * time.Hour

	return cfg, nil
}

// getEnvOrDefault returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnvOrDefault(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsIntOrDefault is a helper for parsing integer environment variables.
func getEnvAsIntOrDefault(key string, defaultValue int) (int, error) {
	if v, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return i, nil
	}
	return defaultValue, nil
}
