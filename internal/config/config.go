package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port  int
	Debug bool

	// Database. An empty DatabaseURL selects the embedded SQLite store.
	DatabaseURL string
	SQLitePath  string

	// Redis leaderboard cache; empty disables caching
	RedisURL string

	// RabbitMQ notification queue; empty disables event publishing
	RabbitMQURL string

	// Scorer
	ScorerProvider string // heuristic, openai
	ScorerAPIKey   string
	ScorerBaseURL  string
	ScorerModel    string
	ScorerTimeout  int // seconds

	// Catalog
	CatalogPath string

	// Leaderboard
	LeaderboardTTL int // seconds
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvInt("PORT", 8080),
		Debug:          getEnvBool("DEBUG", false),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SQLitePath:     getEnv("SQLITE_PATH", "promptcraft.db"),
		RedisURL:       getEnv("REDIS_URL", ""),
		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		ScorerProvider: getEnv("SCORER_PROVIDER", "heuristic"),
		ScorerAPIKey:   getEnv("SCORER_API_KEY", ""),
		ScorerBaseURL:  getEnv("SCORER_BASE_URL", ""),
		ScorerModel:    getEnv("SCORER_MODEL", ""),
		ScorerTimeout:  getEnvInt("SCORER_TIMEOUT", 30),
		CatalogPath:    getEnv("CATALOG_PATH", "./catalog"),
		LeaderboardTTL: getEnvInt("LEADERBOARD_TTL", 60),
	}

	if cfg.ScorerProvider == "openai" && cfg.ScorerAPIKey == "" {
		return nil, fmt.Errorf("SCORER_API_KEY required for openai scorer")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
