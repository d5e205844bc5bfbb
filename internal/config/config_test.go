package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.BackendTimeout != 10*time.Second {
		t.Errorf("expected 10s backend timeout, got %s", cfg.BackendTimeout)
	}
	if cfg.CatalogCacheTTL != 5*time.Minute {
		t.Errorf("expected 5m catalog cache TTL, got %s", cfg.CatalogCacheTTL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BACKEND_BASE_URL", "https://api.turnosmed.test")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.turnosmed.test, https://admin.turnosmed.test")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.BackendBaseURL != "https://api.turnosmed.test" {
		t.Errorf("unexpected backend url: %s", cfg.BackendBaseURL)
	}
	if cfg.BackendTimeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %s", cfg.BackendTimeout)
	}
	if !cfg.RedisTLS {
		t.Error("expected RedisTLS true")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.turnosmed.test" {
		t.Errorf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
}
