package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	AppPort       string
	DatabaseURLKG string
	DatabaseURLUS string
	JWTSecret     string
	TokenExpires  time.Duration

	// SMS gateway (best-effort collaborator).
	SMSAPIKey     string
	SMSServiceURL string

	// Shared rate-limit store. Empty means in-process counters only.
	RedisAddr string

	// Verification issuance limits per phone within the trailing window.
	MaxSendAttempts   int
	SendAttemptWindow time.Duration

	// Connection pool, applied to each market's database separately.
	DBPoolSize        int
	DBPoolOverflow    int
	DBConnMaxLifetime time.Duration

	LogLevel string
}

// Load reads environment variables and returns a populated Config. Missing
// per-market database URLs are fatal: a market must not be discovered broken
// mid-request.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:           getEnv("APP_PORT", "8080"),
		DatabaseURLKG:     getEnv("DATABASE_URL_KG", ""),
		DatabaseURLUS:     getEnv("DATABASE_URL_US", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		TokenExpires:      getEnvDuration("JWT_TTL_HOURS", 24) * time.Hour,
		SMSAPIKey:         getEnv("SMS_API_KEY", ""),
		SMSServiceURL:     getEnv("SMS_SERVICE_URL", ""),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		MaxSendAttempts:   getEnvInt("SMS_MAX_ATTEMPTS", 3),
		SendAttemptWindow: getEnvDuration("SMS_ATTEMPT_WINDOW_MINUTES", 15) * time.Minute,
		DBPoolSize:        getEnvInt("DB_POOL_SIZE", 10),
		DBPoolOverflow:    getEnvInt("DB_POOL_OVERFLOW", 20),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME_MINUTES", 60) * time.Minute,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	if cfg.DatabaseURLKG == "" {
		log.Fatal("DATABASE_URL_KG must be set")
	}
	if cfg.DatabaseURLUS == "" {
		log.Fatal("DATABASE_URL_US must be set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback))
}
