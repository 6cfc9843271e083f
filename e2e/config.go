// Package e2e holds end-to-end tests that run against a live Microsoft 365
// tenant. They are excluded from normal builds with the e2e build tag and
// skip themselves unless credentials are configured.
package e2e

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration for E2E tests.
type Config struct {
	Mailbox     string
	SiteURL     string
	Timeout     time.Duration
	Cleanup     bool
	MaxFileSize int64
}

// LoadConfig loads E2E test configuration from a .env file in the project
// root (if present) and the environment.
func LoadConfig() *Config {
	_ = godotenv.Load("../.env")

	return &Config{
		Mailbox:     os.Getenv("OFFICE365_E2E_MAILBOX"),
		SiteURL:     os.Getenv("OFFICE365_E2E_SITE_URL"),
		Timeout:     getTimeoutFromEnv("OFFICE365_E2E_TIMEOUT", 300*time.Second),
		Cleanup:     getBoolFromEnv("OFFICE365_E2E_CLEANUP", true),
		MaxFileSize: getInt64FromEnv("OFFICE365_E2E_MAX_FILE_SIZE", 10*1024*1024),
	}
}

func getTimeoutFromEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getBoolFromEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	result, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return result
}

func getInt64FromEnv(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return result
}
