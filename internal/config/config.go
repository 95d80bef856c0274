// Package config provides configuration loading and validation for the server.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the server configuration, read from environment variables.
type Config struct {
	DatabaseURL string // PostgreSQL connection URL
	Port        int    // HTTP listen port

	GeminiAPIKey string // optional; keyword fallback runs without it
	GeminiModel  string

	BaselineCVScore float64 // floor applied to CV analysis scores
	WorkerCount     int     // analysis worker goroutines

	StorageDir     string // local object store root
	StorageBaseURL string // public URL prefix for stored objects
}

// Load reads the configuration from the environment. DATABASE_URL is
// required; everything else has a default.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		StorageDir:     getEnv("STORAGE_DIR", "./uploads"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "/uploads"),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.WorkerCount, err = getEnvInt("ANALYSIS_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.BaselineCVScore, err = getEnvFloat("BASELINE_CV_SCORE", 30); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be a valid port number, got: %d", c.Port)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("ANALYSIS_WORKERS must be at least 1, got: %d", c.WorkerCount)
	}
	if c.BaselineCVScore < 0 || c.BaselineCVScore > 100 {
		return fmt.Errorf("BASELINE_CV_SCORE must be between 0 and 100, got: %g", c.BaselineCVScore)
	}
	return nil
}

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
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return f, nil
}
