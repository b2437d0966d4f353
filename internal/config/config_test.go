package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.BackendURL != "http://localhost:3001/api" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Errorf("APITimeout = %v", cfg.APITimeout)
	}
	if cfg.ExportTimeout != 60*time.Second {
		t.Errorf("ExportTimeout = %v", cfg.ExportTimeout)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.DBPath != "coastal.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("COASTAL_PORT", "9090")
	t.Setenv("COASTAL_BACKEND_URL", "https://api.example.com/v1")
	t.Setenv("COASTAL_API_TIMEOUT", "5s")
	t.Setenv("HUBSPOT_PRIVATE_APP_TOKEN", "pat-xyz")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.BackendURL != "https://api.example.com/v1" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.APITimeout != 5*time.Second {
		t.Errorf("APITimeout = %v", cfg.APITimeout)
	}
	if cfg.HubSpotToken != "pat-xyz" {
		t.Errorf("HubSpotToken = %q", cfg.HubSpotToken)
	}
	if cfg.BaseURL != "http://localhost:9090" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
}

func TestDurationParsing(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"30s", 30 * time.Second},
		{"2m", 2 * time.Minute},
		{"10000", 10 * time.Second},
		{"garbage", 10 * time.Second},
		{"", 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("COASTAL_API_TIMEOUT", tt.value)
			}
			if got := getEnvDuration("COASTAL_API_TIMEOUT", 10*time.Second); got != tt.want {
				t.Errorf("getEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
