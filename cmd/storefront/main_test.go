package main

import (
	"errors"
	"testing"

	"commerce-storefront/internal/config"
)

func TestResolveStorageDefaultsToRedis(t *testing.T) {
	cfg := config.Config{StorageBackend: config.StorageMemory}
	if err := resolveStorage(&cfg, false, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StorageBackend != config.StorageRedis {
		t.Fatalf("expected redis, got %s", cfg.StorageBackend)
	}
}

func TestResolveStorageRefusesExplicitMemory(t *testing.T) {
	cfg := config.Config{StorageBackend: config.StorageMemory}
	if err := resolveStorage(&cfg, true, false); !errors.Is(err, errEphemeralStorage) {
		t.Fatalf("expected ephemeral storage error, got %v", err)
	}
}

func TestResolveStorageKeepsExplicitBackend(t *testing.T) {
	cfg := config.Config{StorageBackend: config.StoragePostgres}
	if err := resolveStorage(&cfg, true, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StorageBackend != config.StoragePostgres {
		t.Fatalf("expected postgres, got %s", cfg.StorageBackend)
	}
}

func TestResolveStorageEphemeralFlag(t *testing.T) {
	cfg := config.Config{StorageBackend: config.StorageRedis}
	if err := resolveStorage(&cfg, true, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StorageBackend != config.StorageMemory {
		t.Fatalf("expected memory, got %s", cfg.StorageBackend)
	}
}
