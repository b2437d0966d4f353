package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the full service configuration. Loaded once at startup from
// environment variables and treated as immutable afterwards.
type Config struct {
	// Server
	Port    string
	BaseURL string

	// Backend API
	BackendURL    string
	APITimeout    time.Duration
	ExportTimeout time.Duration

	// Storage
	DBPath string

	// CRM
	HubSpotToken string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, applying defaults for
// anything unset. The CRM token may legitimately be empty in development;
// the handlers degrade to a local-only waitlist in that case.
func Load() *Config {
	cfg := &Config{
		Port:          getEnv("COASTAL_PORT", "8080"),
		BackendURL:    getEnv("COASTAL_BACKEND_URL", "http://localhost:3001/api"),
		APITimeout:    getEnvDuration("COASTAL_API_TIMEOUT", 10*time.Second),
		ExportTimeout: getEnvDuration("COASTAL_EXPORT_TIMEOUT", 60*time.Second),
		DBPath:        getEnv("COASTAL_DB_PATH", "coastal.db"),
		HubSpotToken:  os.Getenv("HUBSPOT_PRIVATE_APP_TOKEN"),
		LogLevel:      os.Getenv("COASTAL_LOG_LEVEL"),
		LogFormat:     os.Getenv("COASTAL_LOG_FORMAT"),
	}
	cfg.BaseURL = getEnv("COASTAL_BASE_URL", "http://localhost:"+cfg.Port)
	return cfg
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Bare numbers are read as milliseconds, matching the old frontend's
	// API_TIMEOUT convention.
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultVal
}
