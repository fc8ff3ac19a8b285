package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.Qdrant.Collection != "products" {
		t.Errorf("expected default collection 'products', got %q", cfg.Qdrant.Collection)
	}
	if cfg.Pipeline.RetrievalK != 10 {
		t.Errorf("expected default retrieval_k 10, got %d", cfg.Pipeline.RetrievalK)
	}
	if cfg.Pipeline.ConfidenceFloor != 0.3 {
		t.Errorf("expected default confidence_floor 0.3, got %f", cfg.Pipeline.ConfidenceFloor)
	}
	if !cfg.EnableConversation {
		t.Error("expected conversation enabled by default")
	}
	if cfg.Session.MaxTurns != 10 {
		t.Errorf("expected default max_turns 10, got %d", cfg.Session.MaxTurns)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
port: 9090
pipeline:
  retrieval_k: 25
  top_n: 5
session:
  type: redis
  ttl: 30m
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.Pipeline.RetrievalK != 25 {
		t.Errorf("expected retrieval_k 25, got %d", cfg.Pipeline.RetrievalK)
	}
	if cfg.Session.Type != "redis" {
		t.Errorf("expected session type redis, got %q", cfg.Session.Type)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("expected ttl 30m, got %v", cfg.Session.TTL)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("expected debug/json logging, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("port: 9090\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SHOP_PORT", "7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != 7070 {
		t.Errorf("env should override file: expected 7070, got %d", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Port = 0 },
			wantErr: "port",
		},
		{
			name:    "bad session type",
			mutate:  func(c *Config) { c.Session.Type = "etcd" },
			wantErr: "session type",
		},
		{
			name:    "bad bus type",
			mutate:  func(c *Config) { c.Bus.Type = "rabbitmq" },
			wantErr: "bus type",
		},
		{
			name:    "top_n exceeds retrieval_k",
			mutate:  func(c *Config) { c.Pipeline.TopN = 50 },
			wantErr: "top_n",
		},
		{
			name:    "confidence floor out of range",
			mutate:  func(c *Config) { c.Pipeline.ConfidenceFloor = 1.5 },
			wantErr: "confidence_floor",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: "log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid config, got error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAddress(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if got := cfg.Address(); got != "0.0.0.0:8080" {
		t.Errorf("Address() = %q, want %q", got, "0.0.0.0:8080")
	}
}
