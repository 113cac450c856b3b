package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// AppConfig holds everything the server reads from the environment.
type AppConfig struct {
	ServerPort string

	// Redis
	RedisAddr string
	RedisPass string
	RedisDB   int

	// Sessions
	JWTSecret  string
	SessionTTL time.Duration

	// Bound on every backend call
	BackendTimeout time.Duration

	UploadsDir        string
	JurisdictionsFile string
}

// Load reads AppConfig from environment variables. JWT_SECRET_KEY is required.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:         getEnv("REDIS_PASS", ""),
		JWTSecret:         os.Getenv("JWT_SECRET_KEY"),
		UploadsDir:        getEnv("UPLOADS_DIR", "uploads"),
		JurisdictionsFile: getEnv("JURISDICTIONS_FILE", ""),
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY not set in environment")
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getEnvDuration("SESSION_TTL", 720*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BackendTimeout, err = getEnvDuration("BACKEND_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	return cfg, nil
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
