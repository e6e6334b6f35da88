// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the server needs to start.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// DBPath is the SQLite database file path.
	DBPath string
	// JWTSecret signs and verifies bearer tokens. Required.
	JWTSecret string
	// Env selects the logger profile: "development" or "production".
	Env string
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
	// CORSOrigins lists allowed origins for browser clients.
	CORSOrigins []string
}

// Load reads configuration from environment variables, applying defaults
// for everything except the JWT secret.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:            getEnv("ROULETTE_ADDR", ":8080"),
		DBPath:          getEnv("ROULETTE_DB_PATH", "roulette.db"),
		JWTSecret:       os.Getenv("ROULETTE_JWT_SECRET"),
		Env:             getEnv("ROULETTE_ENV", "development"),
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{getEnv("ROULETTE_CORS_ORIGIN", "*")},
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("ROULETTE_JWT_SECRET is required")
	}

	if v := os.Getenv("ROULETTE_SHUTDOWN_TIMEOUT_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			return nil, fmt.Errorf("invalid ROULETTE_SHUTDOWN_TIMEOUT_SEC %q", v)
		}
		cfg.ShutdownTimeout = time.Duration(sec) * time.Second
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
