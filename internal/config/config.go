// internal/config/config.go
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries the process configuration resolved from the environment.
type Config struct {
	Port                string
	JWTSecret           []byte
	FirestoreProjectID  string
	FirestoreDatabaseID string
	RateLimitRPS        float64
	RateLimitBurst      int
}

// Load reads .env when present and resolves the configuration. Missing
// optional values fall back to defaults; JWT_SECRET has no safe default and
// stays empty so main can refuse to start.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		JWTSecret:           []byte(os.Getenv("JWT_SECRET")),
		FirestoreProjectID:  getEnv("FIRESTORE_PROJECT_ID", "collectflow-db"),
		FirestoreDatabaseID: getEnv("FIRESTORE_DATABASE_ID", "collectflow-db"),
		RateLimitRPS:        getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", 10),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
