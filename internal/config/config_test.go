package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Search.Queries) < cfg.Search.BootstrapQueries {
		t.Errorf("expected more queries than bootstrap_queries, got %d", len(cfg.Search.Queries))
	}
	if cfg.YouTube.APIKeyEnv != "YOUTUBE_API_KEY" {
		t.Errorf("expected api_key_env 'YOUTUBE_API_KEY', got %q", cfg.YouTube.APIKeyEnv)
	}
	if cfg.Recommend.TrainThreshold != 3 {
		t.Errorf("expected train_threshold 3, got %d", cfg.Recommend.TrainThreshold)
	}
	if cfg.Recommend.MaxResults != 12 {
		t.Errorf("expected max_results 12, got %d", cfg.Recommend.MaxResults)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("expected port 5000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
server:
  port: 9000
logging:
  level: debug
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Search.PerQueryLimit != 10 {
		t.Errorf("expected default per_query_limit 10, got %d", cfg.Search.PerQueryLimit)
	}
	if len(cfg.Search.Queries) != len(DefaultQueries) {
		t.Errorf("expected fallback queries, got %v", cfg.Search.Queries)
	}
	if !cfg.PublishedAfterTime().Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected default cutoff %v", cfg.PublishedAfterTime())
	}
}

func TestParseRejectsBadCutoff(t *testing.T) {
	_, err := parse([]byte("youtube:\n  published_after: yesterday\n"))
	if err == nil {
		t.Fatal("expected error for invalid published_after")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Search.Queries) == 0 {
		t.Error("expected queries to be populated from file")
	}
}

func TestResolveExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	cfg := &Config{YouTube: YouTube{APIKeyEnv: "MYTUBE_TEST_KEY"}}
	t.Setenv("MYTUBE_TEST_KEY", "secret")
	if cfg.APIKey() != "secret" {
		t.Errorf("expected key from env, got %q", cfg.APIKey())
	}
}

func TestDurations(t *testing.T) {
	cfg := &Config{YouTube: YouTube{Timeout: "bad"}, Server: Server{RequestTimeout: "5s"}}
	if cfg.ClientTimeout() != 30*time.Second {
		t.Errorf("expected fallback timeout, got %v", cfg.ClientTimeout())
	}
	if cfg.RequestTimeout() != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.RequestTimeout())
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}
