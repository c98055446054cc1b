package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Environment
	Env string

	// Durable store
	DBDriver string // "sqlite" or "postgres"
	DBPath   string // sqlite file path, or ":memory:"
	DBDSN    string // postgres DSN, used when DBDriver is "postgres"

	// Synchronization
	SyncRemoteURL   string
	SyncInterval    time.Duration
	SyncHTTPTimeout time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env: getEnv("ENV", "development"),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBPath:   getEnv("DB_PATH", "centabit.db"),
		DBDSN:    getEnv("DB_DSN", ""),

		SyncRemoteURL: getEnv("SYNC_REMOTE_URL", ""),
	}

	config.SyncInterval = getDuration("SYNC_INTERVAL", 5*time.Minute)
	config.SyncHTTPTimeout = getDuration("SYNC_HTTP_TIMEOUT", 30*time.Second)

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration environment variable, falling back to a
// default on absence or parse failure.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return dur
}
