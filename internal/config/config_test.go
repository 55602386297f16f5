package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"API_BASE_URL", "REQUEST_TIMEOUT_SECONDS", "STORAGE_BACKEND", "CORS_ORIGINS"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()
	if cfg.APIBaseURL != "http://localhost:8080" {
		t.Fatalf("unexpected base url %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.RequestTimeout)
	}
	if cfg.StorageBackend != StorageMemory {
		t.Fatalf("unexpected storage backend %q", cfg.StorageBackend)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://shop.example.com/")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "3")
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg := FromEnv()
	if cfg.APIBaseURL != "https://shop.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.RequestTimeout)
	}
	if cfg.StorageBackend != StorageRedis {
		t.Fatalf("unexpected storage backend %q", cfg.StorageBackend)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestEnvDurationIgnoresGarbage(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "soon")
	if got := envDuration("REQUEST_TIMEOUT_SECONDS", time.Second); got != time.Second {
		t.Fatalf("expected default, got %s", got)
	}
}
