package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
  allowed_origins: ["http://localhost:3000"]
storage:
  driver: disk
  dir: /var/lib/quiz
redis:
  addr: localhost:6379
  ttl: 5m
generator:
  url: http://localhost:11434
  model: llama3
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Storage.Driver != "disk" || cfg.Storage.Dir != "/var/lib/quiz" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Generator.Model != "llama3" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	// Unset keys keep their defaults.
	if cfg.Log.Level != "info" || !cfg.Quiz.SeedSamples {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if got := TTLDuration(cfg.Redis.TTL, time.Minute); got != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %v", got)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "memory" || cfg.Server.Port != "8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("GENERATOR_API_KEY", "secret")
	t.Setenv("STORAGE_DRIVER", "Postgres")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7070" || cfg.Generator.APIKey != "secret" || cfg.Storage.Driver != "postgres" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Second); got != time.Second {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := TTLDuration("soon", time.Second); got != time.Second {
		t.Fatalf("expected fallback for garbage, got %v", got)
	}
}
